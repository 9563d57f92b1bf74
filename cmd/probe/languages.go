package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/probe/internal/search"
)

func languagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "List languages with structural block extraction",
		Flags: []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			engine, err := search.NewEngine(search.EngineConfig{})
			if err != nil {
				return err
			}
			langs := engine.Languages()

			format, err := parseFormat(c.String("format"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			if format == formatJSON || format == formatYAML {
				return encode(c.App.Writer, format, langs)
			}
			for _, l := range langs {
				fmt.Fprintf(c.App.Writer, "%-12s %s\n", l.Name, strings.Join(l.Extensions, " "))
			}
			return nil
		},
	}
}
