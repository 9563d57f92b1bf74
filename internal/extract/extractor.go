// Package extract turns per-file match locations into code blocks: whole
// syntactic units where a grammar is available, line windows otherwise.
package extract

import (
	"context"
	"errors"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/probe/internal/debug"
	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/parser"
	"github.com/standardbeagle/probe/internal/types"
)

// errSyntax marks a parse tree that contains error nodes
var errSyntax = errors.New("source contains syntax errors")

// Options controls block extraction
type Options struct {
	ContextLines           int     // line radius for the heuristic fallback
	WholeFileThreshold     float64 // covered-line ratio above which the whole file is returned
	IncludeLeadingComments bool
	Workers                int // 0 = runtime.NumCPU()
}

// DefaultOptions returns the default extraction settings
func DefaultOptions() Options {
	return Options{
		ContextLines:           types.DefaultContextLines,
		WholeFileThreshold:     types.DefaultWholeFileThreshold,
		IncludeLeadingComments: true,
	}
}

// Extractor is read-only after construction and shared by all workers
type Extractor struct {
	registry *parser.Registry
	opts     Options
}

func New(registry *parser.Registry, opts Options) *Extractor {
	if registry == nil {
		registry = parser.DefaultRegistry()
	}
	if opts.ContextLines < 0 {
		opts.ContextLines = 0
	}
	if opts.WholeFileThreshold <= 0 || opts.WholeFileThreshold > 1 {
		opts.WholeFileThreshold = types.DefaultWholeFileThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Extractor{registry: registry, opts: opts}
}

// ExtractFile returns the blocks for one file. A non-nil error is a per-file
// ParseError; the blocks returned alongside it come from the line fallback.
func (e *Extractor) ExtractFile(fm *types.FileMatch) ([]types.CodeBlock, error) {
	if fm.TotalLines == 0 {
		return nil, nil
	}
	if len(fm.Hits) == 0 {
		if fm.HasFilenameMatch() {
			return []types.CodeBlock{e.wholeFile(fm)}, nil
		}
		return nil, nil
	}

	ranges, parseErr := e.astRanges(fm)
	merged := mergeRanges(ranges)

	covered := coveredLines(merged)
	if float64(covered) > e.opts.WholeFileThreshold*float64(fm.TotalLines) {
		debug.LogExtract("%s: %d of %d lines covered, returning whole file", fm.RelPath, covered, fm.TotalLines)
		return []types.CodeBlock{e.wholeFile(fm)}, parseErr
	}

	offsets := lineOffsets(fm.Content)
	blocks := make([]types.CodeBlock, 0, len(merged))
	for _, r := range merged {
		blocks = append(blocks, types.CodeBlock{
			Path:       fm.Path,
			RelPath:    fm.RelPath,
			StartLine:  r.start,
			EndLine:    r.end,
			Code:       sliceLines(fm.Content, offsets, r.start, r.end),
			Provenance: r.prov,
			NodeKind:   r.kind,
		})
	}
	return blocks, parseErr
}

// astRanges places each hit in its enclosing unit. Hits without a unit, and
// every hit of a file that has no grammar or fails to parse, get a line window.
func (e *Extractor) astRanges(fm *types.FileMatch) ([]lineRange, error) {
	grammar := e.registry.ForPath(fm.Path)

	var locator *unitLocator
	var parseErr error
	if grammar.Available() {
		tree, err := grammar.Parse(fm.Content)
		switch {
		case err != nil:
			parseErr = probeerrors.NewParseError(fm.RelPath, grammar.Name(), err)
		case tree.RootNode().HasError():
			tree.Close()
			parseErr = probeerrors.NewParseError(fm.RelPath, grammar.Name(), errSyntax)
		default:
			defer tree.Close()
			locator = &unitLocator{
				root:            tree.RootNode(),
				units:           grammar.Units(),
				leadingComments: e.opts.IncludeLeadingComments,
				totalLines:      fm.TotalLines,
			}
		}
		if parseErr != nil {
			debug.LogExtract("%s: falling back to line windows: %v", fm.RelPath, parseErr)
		}
	}

	ranges := make([]lineRange, 0, len(fm.Hits))
	for _, h := range fm.Hits {
		if locator != nil {
			if r, ok := locator.locate(h.Start, h.End); ok {
				ranges = append(ranges, r)
				continue
			}
		}
		ranges = append(ranges, window(h.Line, h.EndLine, e.opts.ContextLines, fm.TotalLines))
	}
	return ranges, parseErr
}

func (e *Extractor) wholeFile(fm *types.FileMatch) types.CodeBlock {
	offsets := lineOffsets(fm.Content)
	return types.CodeBlock{
		Path:       fm.Path,
		RelPath:    fm.RelPath,
		StartLine:  1,
		EndLine:    fm.TotalLines,
		Code:       sliceLines(fm.Content, offsets, 1, fm.TotalLines),
		Provenance: types.ProvenanceWholeFile,
	}
}

// Result is the output of Extract
type Result struct {
	Blocks   []types.CodeBlock // sorted by relative path then start line
	Warnings []error           // per-file parse errors
}

// Extract runs ExtractFile for every file on a bounded worker pool. On
// cancellation the blocks of files finished so far are returned with the
// context error.
func (e *Extractor) Extract(ctx context.Context, files []*types.FileMatch) (*Result, error) {
	perFile := make([][]types.CodeBlock, len(files))
	warnings := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, fm := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i], warnings[i] = e.ExtractFile(fm)
			return nil
		})
	}
	waitErr := g.Wait()

	res := &Result{}
	for i := range files {
		res.Blocks = append(res.Blocks, perFile[i]...)
		if warnings[i] != nil {
			res.Warnings = append(res.Warnings, warnings[i])
		}
	}
	sort.SliceStable(res.Blocks, func(i, j int) bool {
		a, b := res.Blocks[i], res.Blocks[j]
		if a.RelPath != b.RelPath {
			return a.RelPath < b.RelPath
		}
		return a.StartLine < b.StartLine
	})
	debug.LogExtract("extracted %d blocks from %d files", len(res.Blocks), len(files))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, waitErr
}
