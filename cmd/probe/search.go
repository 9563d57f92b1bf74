package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/probe/internal/config"
	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/search"
	"github.com/standardbeagle/probe/internal/types"
	"github.com/standardbeagle/probe/pkg/pathutil"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search for code blocks matching a query",
		ArgsUsage: "<query> [path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Match mode: all (every term) or any",
			},
			&cli.BoolFlag{
				Name:    "exact",
				Aliases: []string{"e"},
				Usage:   "Case-sensitive whole-word match without stemming or stopwords",
			},
			&cli.StringSliceFlag{
				Name:    "ext",
				Aliases: []string{"x"},
				Usage:   "Only search files with these extensions (e.g., --ext go --ext .py)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only search files matching glob patterns (e.g., --include 'src/**')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (e.g., --exclude '**/testdata/**')",
			},
			&cli.IntFlag{
				Name:    "max-results",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "max-files",
				Usage: "Stop after this many matching files (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:    "context",
				Aliases: []string{"C"},
				Usage:   "Line radius when no syntax tree can place a match",
			},
			&cli.Float64Flag{
				Name:  "whole-file-threshold",
				Usage: "Return the whole file when blocks cover more than this fraction of it",
			},
			&cli.BoolFlag{
				Name:  "no-comments",
				Usage: "Do not attach leading comments to blocks",
			},
			&cli.Float64Flag{Name: "k1", Usage: "BM25 term-frequency saturation"},
			&cli.Float64Flag{Name: "b", Usage: "BM25 length normalization"},
			&cli.Float64Flag{Name: "tfidf-weight", Usage: "Weight of the TF-IDF score"},
			&cli.Float64Flag{Name: "bm25-weight", Usage: "Weight of the BM25 score"},
			&cli.Float64Flag{Name: "filename-boost", Usage: "Score added for a term in the file name"},
			&cli.BoolFlag{
				Name:  "no-gitignore",
				Usage: "Search files ignored by .gitignore",
			},
			&cli.BoolFlag{
				Name:  "follow-symlinks",
				Usage: "Follow symlinked directories",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel workers (0 = number of CPUs)",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Include terms, patterns and raw scores in the output",
			},
			&cli.BoolFlag{
				Name:    "line-numbers",
				Aliases: []string{"N"},
				Usage:   "Prefix code lines with their line numbers",
			},
			&cli.BoolFlag{
				Name:  "absolute",
				Usage: "Print absolute paths",
			},
			formatFlag(),
		},
		Action: runSearch,
	}
}

func runSearch(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("search requires a query", 2)
	}
	queryText := c.Args().Get(0)
	root := "."
	if c.NArg() > 1 {
		root = c.Args().Get(1)
	}

	format, err := parseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	configRoot := root
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		configRoot = filepath.Dir(root)
	}
	cfg, err := config.Load(configRoot)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}

	engine, err := search.NewEngineFromConfig(cfg)
	if err != nil {
		return err
	}

	opts := search.OptionsFromConfig(cfg)
	if err := applyFlags(c, &opts); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	resp, err := engine.Search(c.Context, search.Request{Query: queryText, Root: root, Options: opts})
	switch {
	case err == nil:
	case resp != nil && c.Context.Err() != nil:
		// Interrupted: print what was gathered
		fmt.Fprintf(c.App.ErrWriter, "search interrupted: %v\n", err)
	case probeerrors.IsFatal(err):
		return cli.Exit(err.Error(), 2)
	default:
		return err
	}

	if c.Bool("absolute") {
		resp.Results = pathutil.Rebase(resp.Results, resp.Root, "")
	} else if wd, err := os.Getwd(); err == nil {
		resp.Results = pathutil.Rebase(resp.Results, resp.Root, wd)
	}

	return writeResponse(c.App.Writer, c.App.ErrWriter, format, c.Bool("line-numbers"), resp)
}

// applyFlags overrides opts with every flag given on the command line and
// validates the result
func applyFlags(c *cli.Context, opts *search.Options) error {
	if c.IsSet("mode") {
		mode, err := types.ParseMatchMode(c.String("mode"))
		if err != nil {
			return err
		}
		opts.MatchMode = mode
	}
	if c.IsSet("exact") {
		opts.Exact = c.Bool("exact")
	}
	if c.IsSet("ext") {
		opts.Extensions = c.StringSlice("ext")
	}
	if c.IsSet("include") {
		opts.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		opts.Exclude = append(opts.Exclude, c.StringSlice("exclude")...)
	}
	if c.IsSet("max-results") {
		opts.MaxResults = c.Int("max-results")
	}
	if c.IsSet("max-files") {
		opts.MaxFiles = c.Int("max-files")
	}
	if c.IsSet("context") {
		opts.ContextLines = c.Int("context")
	}
	if c.IsSet("whole-file-threshold") {
		opts.WholeFileThreshold = c.Float64("whole-file-threshold")
	}
	if c.Bool("no-comments") {
		opts.IncludeLeadingComments = false
	}
	if c.IsSet("k1") {
		opts.K1 = c.Float64("k1")
	}
	if c.IsSet("b") {
		opts.B = c.Float64("b")
	}
	if c.IsSet("tfidf-weight") {
		opts.TFIDFWeight = c.Float64("tfidf-weight")
	}
	if c.IsSet("bm25-weight") {
		opts.BM25Weight = c.Float64("bm25-weight")
	}
	if c.IsSet("filename-boost") {
		opts.FilenameBoost = c.Float64("filename-boost")
	}
	if c.Bool("no-gitignore") {
		opts.RespectGitignore = false
	}
	if c.IsSet("follow-symlinks") {
		opts.FollowSymlinks = c.Bool("follow-symlinks")
	}
	if c.IsSet("workers") {
		opts.Workers = c.Int("workers")
	}
	opts.Debug = c.Bool("stats")
	return opts.Validate()
}
