package search

import (
	"github.com/standardbeagle/probe/internal/config"
	"github.com/standardbeagle/probe/internal/extract"
	"github.com/standardbeagle/probe/internal/ranking"
	"github.com/standardbeagle/probe/internal/scanner"
	"github.com/standardbeagle/probe/internal/types"
)

// Options are the per-call search settings. Start from DefaultOptions or
// OptionsFromConfig and override fields.
type Options struct {
	MatchMode types.MatchMode
	Exact     bool

	Extensions       []string // allow-list, with or without the dot
	Include          []string // globs a file must match
	Exclude          []string // globs pruning files and directories
	RespectGitignore bool
	FollowSymlinks   bool
	MaxFileSize      int64
	MaxFiles         int // matched-file cap, 0 = unlimited

	MaxResults             int // 0 = unlimited
	ContextLines           int
	WholeFileThreshold     float64
	IncludeLeadingComments bool

	K1            float64
	B             float64
	TFIDFWeight   float64
	BM25Weight    float64
	FilenameBoost float64

	Workers int // 0 = runtime.NumCPU()

	// Debug attaches intermediate statistics to the response
	Debug bool
}

// DefaultOptions returns the built-in settings, including the default exclusions
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default("."))
}

// OptionsFromConfig copies the search-related settings of cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MatchMode:              cfg.Search.MatchMode,
		Exact:                  cfg.Search.Exact,
		Extensions:             append([]string(nil), cfg.Extensions...),
		Include:                append([]string(nil), cfg.Include...),
		Exclude:                append([]string(nil), cfg.Exclude...),
		RespectGitignore:       cfg.Index.RespectGitignore,
		FollowSymlinks:         cfg.Index.FollowSymlinks,
		MaxFileSize:            cfg.Index.MaxFileSize,
		MaxFiles:               cfg.Search.MaxFiles,
		MaxResults:             cfg.Search.MaxResults,
		ContextLines:           cfg.Search.ContextLines,
		WholeFileThreshold:     cfg.Search.WholeFileThreshold,
		IncludeLeadingComments: cfg.Search.IncludeLeadingComments,
		K1:                     cfg.Ranking.K1,
		B:                      cfg.Ranking.B,
		TFIDFWeight:            cfg.Ranking.TFIDFWeight,
		BM25Weight:             cfg.Ranking.BM25Weight,
		FilenameBoost:          cfg.Ranking.FilenameBoost,
		Workers:                cfg.Index.Workers,
	}
}

func (o Options) scannerOptions(root string) scanner.Options {
	return scanner.Options{
		Root:             root,
		Include:          o.Include,
		Exclude:          o.Exclude,
		Extensions:       o.Extensions,
		MaxFileSize:      o.MaxFileSize,
		RespectGitignore: o.RespectGitignore,
		FollowSymlinks:   o.FollowSymlinks,
		Workers:          o.Workers,
		MaxFiles:         o.MaxFiles,
	}
}

func (o Options) extractOptions() extract.Options {
	return extract.Options{
		ContextLines:           o.ContextLines,
		WholeFileThreshold:     o.WholeFileThreshold,
		IncludeLeadingComments: o.IncludeLeadingComments,
		Workers:                o.Workers,
	}
}

// Validate applies the configuration file's range checks to the final
// options, so per-call overrides cannot bypass them.
func (o Options) Validate() error {
	v := config.NewValidator()
	if err := v.ValidateSearch(&config.Search{
		MatchMode:          o.MatchMode,
		MaxResults:         o.MaxResults,
		ContextLines:       o.ContextLines,
		WholeFileThreshold: o.WholeFileThreshold,
		MaxFiles:           o.MaxFiles,
	}); err != nil {
		return err
	}
	return v.ValidateRanking(&config.Ranking{
		K1:            o.K1,
		B:             o.B,
		TFIDFWeight:   o.TFIDFWeight,
		BM25Weight:    o.BM25Weight,
		FilenameBoost: o.FilenameBoost,
	})
}

func (o Options) rankingParams() ranking.Params {
	return ranking.Params{
		K1:            o.K1,
		B:             o.B,
		TFIDFWeight:   o.TFIDFWeight,
		BM25Weight:    o.BM25Weight,
		FilenameBoost: o.FilenameBoost,
	}
}
