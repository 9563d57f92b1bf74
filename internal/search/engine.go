// Package search runs the full query pipeline: term processing, pattern
// generation, file scanning, block extraction and ranking. Every call is
// independent; nothing is cached between searches.
package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/probe/internal/config"
	"github.com/standardbeagle/probe/internal/debug"
	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/extract"
	"github.com/standardbeagle/probe/internal/parser"
	"github.com/standardbeagle/probe/internal/pattern"
	"github.com/standardbeagle/probe/internal/query"
	"github.com/standardbeagle/probe/internal/ranking"
	"github.com/standardbeagle/probe/internal/scanner"
	"github.com/standardbeagle/probe/internal/types"
)

// EngineConfig holds the process-wide, read-only parts of the pipeline
type EngineConfig struct {
	Terms    query.Options
	Registry *parser.Registry // nil selects parser.DefaultRegistry
}

// Engine is immutable after construction and safe for concurrent searches
type Engine struct {
	processor *query.Processor
	generator *pattern.Generator
	registry  *parser.Registry
}

// NewEngine builds the shared stopword set, stemmer and grammar registry
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Terms.MinStemLength < 0 {
		return nil, probeerrors.NewConfigError("terms.min_stem_length", "negative", errors.New("must not be negative"))
	}
	registry := cfg.Registry
	if registry == nil {
		registry = parser.DefaultRegistry()
	}
	return &Engine{
		processor: query.NewProcessor(cfg.Terms),
		generator: pattern.NewGenerator(),
		registry:  registry,
	}, nil
}

// NewEngineFromConfig builds an engine from the terms section of cfg
func NewEngineFromConfig(cfg *config.Config) (*Engine, error) {
	return NewEngine(EngineConfig{
		Terms: query.Options{
			Stopwords:       cfg.Terms.Stopwords,
			ExtraStopwords:  cfg.Terms.ExtraStopwords,
			MinStemLength:   cfg.Terms.MinStemLength,
			StemExclusions:  cfg.Terms.StemExclusions,
			DisableStemming: cfg.Terms.DisableStemming,
		},
	})
}

// Request is one search call
type Request struct {
	Query   string
	Root    string // file or directory; "" means the working directory
	Options Options
}

// Languages lists the languages with structural extraction
func (e *Engine) Languages() []parser.LanguageInfo {
	return e.registry.Languages()
}

// Search runs req. Invalid options and query, path and pattern errors abort
// the search and are returned directly. Per-file failures become warnings in
// the response. Matching nothing is a successful, empty response. When ctx is
// canceled the partial response is returned together with ctx.Err().
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	q, err := e.processor.Process(req.Query, opts.MatchMode, opts.Exact)
	if err != nil {
		return nil, err
	}

	set, err := e.generator.Generate(q)
	if err != nil {
		return nil, err
	}
	matcher, err := pattern.Compile(set, len(q.Terms))
	if err != nil {
		return nil, err
	}

	sc, err := scanner.New(opts.scannerOptions(req.Root), matcher, q)
	if err != nil {
		return nil, err
	}

	resp := &Response{Root: resultBase(sc.Root()), Results: []types.RankedResult{}}
	if opts.Debug {
		resp.Debug = newDebugInfo(q, set)
	}

	scanned, err := sc.Scan(ctx)
	if scanned != nil {
		resp.addScan(scanned)
	}
	if err != nil {
		resp.Stats.Duration = time.Since(start)
		return resp, err
	}

	extracted, err := extract.New(e.registry, opts.extractOptions()).Extract(ctx, scanned.Files)
	if extracted != nil {
		resp.addWarnings(extracted.Warnings)
		resp.Stats.Blocks = len(extracted.Blocks)
	}
	if err != nil {
		resp.Truncated = true
		resp.Stats.Duration = time.Since(start)
		return resp, err
	}

	ranked := ranking.New(opts.rankingParams()).Rank(q, scanned.Files, extracted.Blocks, opts.Debug)
	if resp.Debug != nil {
		resp.Debug.addCorpus(ranking.NewCorpus(scanned.Files, len(q.Terms)), scanned.Files)
		resp.Debug.addScores(ranked)
		ranked = stripStats(ranked)
	}

	if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}
	resp.Results = ranked
	resp.Stats.Results = len(ranked)
	resp.Stats.Duration = time.Since(start)

	debug.LogSearch("%q: %d results from %d files in %v", req.Query, len(ranked), resp.Stats.FilesMatched, resp.Stats.Duration)
	return resp, nil
}

// resultBase is the directory result paths are relative to; a file root
// reports its parent.
func resultBase(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}

// stripStats moves per-term statistics out of the results; the debug section
// carries them.
func stripStats(results []types.RankedResult) []types.RankedResult {
	for i := range results {
		results[i].TermStats = nil
	}
	return results
}
