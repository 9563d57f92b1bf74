package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/probe/internal/display"
	"github.com/standardbeagle/probe/internal/search"
)

type outputFormat string

const (
	formatText    outputFormat = "text"
	formatCompact outputFormat = "compact"
	formatJSON    outputFormat = "json"
	formatYAML    outputFormat = "yaml"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, compact, json or yaml",
		Value:   string(formatText),
	}
}

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatText, formatCompact, formatJSON, formatYAML:
		return f, nil
	case "":
		return formatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, compact, json or yaml)", s)
	}
}

func encode(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode values", format)
	}
}

func writeResponse(w, errw io.Writer, format outputFormat, lineNumbers bool, resp *search.Response) error {
	if format == formatJSON || format == formatYAML {
		return encode(w, format, resp)
	}

	for _, warn := range resp.Warnings {
		fmt.Fprintf(errw, "warning: %s\n", warn.Message)
	}
	formatter := display.NewResultFormatter(display.FormatterOptions{
		Format:     string(format),
		ShowLines:  lineNumbers,
		ShowScores: true,
	})
	fmt.Fprint(w, formatter.Format(resp))
	fmt.Fprintln(errw, formatter.Summary(resp))
	return nil
}
