// Package scanner walks a directory tree and matches a compiled pattern set
// against every searchable file, producing one FileMatch per matching file.
package scanner

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/probe/internal/config"
	"github.com/standardbeagle/probe/internal/debug"
	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/pattern"
	"github.com/standardbeagle/probe/internal/types"
)

// Options controls which files are scanned
type Options struct {
	Root             string
	Include          []string // globs a file must match, empty means all
	Exclude          []string // globs pruning files and directories
	Extensions       []string // allow-list with or without the dot, empty means all
	MaxFileSize      int64
	RespectGitignore bool
	FollowSymlinks   bool
	Workers          int // 0 = runtime.NumCPU()
	MaxFiles         int // matched-file cap, 0 = unlimited
}

// Stats summarizes one scan
type Stats struct {
	FilesVisited int   `json:"files_visited" yaml:"files_visited"` // files read and matched
	FilesSkipped int   `json:"files_skipped" yaml:"files_skipped"` // files rejected by filters
	FilesMatched int   `json:"files_matched" yaml:"files_matched"`
	BytesScanned int64 `json:"bytes_scanned" yaml:"bytes_scanned"`
	Duration     time.Duration
}

// Result holds matched files sorted by relative path
type Result struct {
	Files     []*types.FileMatch
	Warnings  []error // per-file errors; the scan continued past each one
	Stats     Stats
	Truncated bool // MaxFiles was reached or the context was canceled
}

// Scanner is safe to reuse; each Scan call is independent.
type Scanner struct {
	opts     Options
	root     string
	matcher  *pattern.Matcher
	query    types.Query
	required []int
	binary   *BinaryDetector
}

type fileTask struct {
	path string // path as seen under the search root
	rel  string
	size int64
}

type scanItem struct {
	match *types.FileMatch
	warn  error
}

// New validates the root and prepares a scanner for q's compiled patterns
func New(opts Options, matcher *pattern.Matcher, q types.Query) (*Scanner, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, probeerrors.NewInvalidPathError(root, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, probeerrors.NewInvalidPathError(root, err)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = types.DefaultMaxFileSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	return &Scanner{
		opts:     opts,
		root:     abs,
		matcher:  matcher,
		query:    q,
		required: q.RequiredTerms(),
		binary:   NewBinaryDetector(),
	}, nil
}

// Root returns the absolute search root
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the root and returns every file satisfying the query's match
// mode. On cancellation the files matched so far are returned with
// Truncated set, together with the context error.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var skipped, visited int64
	var scanned int64

	g, gctx := errgroup.WithContext(scanCtx)
	tasks := make(chan fileTask, s.opts.Workers*4)
	items := make(chan scanItem, s.opts.Workers*4)

	send := func(it scanItem) error {
		select {
		case items <- it:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	}

	g.Go(func() error {
		defer close(tasks)
		w := &walker{
			s:       s,
			visited: make(map[string]bool),
			skipped: &skipped,
			emit: func(t fileTask) error {
				select {
				case tasks <- t:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			},
			warn: func(err error) error { return send(scanItem{warn: err}) },
		}
		return w.run(gctx)
	})

	for i := 0; i < s.opts.Workers; i++ {
		g.Go(func() error {
			for t := range tasks {
				atomic.AddInt64(&visited, 1)
				fm, err := s.scanFile(t, &scanned)
				if err != nil {
					if serr := send(scanItem{warn: err}); serr != nil {
						return serr
					}
					continue
				}
				if fm == nil {
					continue
				}
				if err := send(scanItem{match: fm}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var groupErr error
	go func() {
		groupErr = g.Wait()
		close(items)
	}()

	capped := false
	for it := range items {
		if it.warn != nil {
			res.Warnings = append(res.Warnings, it.warn)
			continue
		}
		if capped {
			continue
		}
		res.Files = append(res.Files, it.match)
		if s.opts.MaxFiles > 0 && len(res.Files) >= s.opts.MaxFiles {
			capped = true
			res.Truncated = true
			debug.LogScan("match cap of %d files reached, stopping walk", s.opts.MaxFiles)
			cancel()
		}
	}

	sort.Slice(res.Files, func(i, j int) bool {
		return res.Files[i].RelPath < res.Files[j].RelPath
	})

	res.Stats = Stats{
		FilesVisited: int(atomic.LoadInt64(&visited)),
		FilesSkipped: int(atomic.LoadInt64(&skipped)),
		FilesMatched: len(res.Files),
		BytesScanned: atomic.LoadInt64(&scanned),
		Duration:     time.Since(start),
	}
	debug.LogScan("scanned %d files (%d skipped), %d matched, %d warnings in %v",
		res.Stats.FilesVisited, res.Stats.FilesSkipped, res.Stats.FilesMatched, len(res.Warnings), res.Stats.Duration)

	if err := ctx.Err(); err != nil {
		res.Truncated = true
		return res, err
	}
	if groupErr != nil && !errors.Is(groupErr, context.Canceled) {
		return res, groupErr
	}
	return res, nil
}

// scanFile reads one file and matches it. A nil FileMatch with a nil error
// means the file was binary or did not satisfy the query.
func (s *Scanner) scanFile(t fileTask, scanned *int64) (*types.FileMatch, error) {
	content, binary, err := s.readText(t.path)
	if err != nil {
		return nil, probeerrors.NewFileError("read", t.rel, err)
	}
	if binary {
		return nil, nil
	}
	atomic.AddInt64(scanned, int64(len(content)))

	if !utf8.Valid(content) {
		return nil, probeerrors.NewFileError("decode", t.rel, probeerrors.ErrInvalidEncoding)
	}

	spans, counts := s.matcher.Match(content)
	nameCounts := s.matcher.Counts(filepath.Base(t.path))

	if !s.satisfies(counts, nameCounts) {
		return nil, nil
	}

	lines := newLineIndex(content)
	hits := make([]types.Hit, 0, len(spans))
	for _, sp := range spans {
		last := sp.End - 1
		if last < sp.Start {
			last = sp.Start
		}
		hits = append(hits, types.Hit{
			Start:   sp.Start,
			End:     sp.End,
			Line:    lines.line(sp.Start),
			EndLine: lines.line(last),
			Terms:   sp.Terms,
		})
	}

	return &types.FileMatch{
		Path:         t.path,
		RelPath:      t.rel,
		Extension:    extensionOf(t.path),
		Hits:         hits,
		TermHits:     counts,
		FilenameHits: nameCounts,
		TotalLines:   types.CountLines(content),
		Size:         int64(len(content)),
		Content:      content,
	}, nil
}

// readText sniffs the head of the file before reading the rest
func (s *Scanner) readText(path string) ([]byte, bool, error) {
	if s.binary.IsBinaryByExtension(path) {
		return nil, true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	head := make([]byte, types.BinarySniffBytes)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, false, err
	}
	head = head[:n]
	if s.binary.IsBinaryContent(head) {
		return nil, true, nil
	}
	if n < types.BinarySniffBytes {
		return head, false, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	content := make([]byte, 0, len(head)+len(rest))
	content = append(content, head...)
	return append(content, rest...), false, nil
}

// satisfies applies the match mode. A term counts as present when it hits
// the content or the file name.
func (s *Scanner) satisfies(counts, nameCounts []int) bool {
	present := func(i int) bool {
		return (i < len(counts) && counts[i] > 0) || (i < len(nameCounts) && nameCounts[i] > 0)
	}

	if s.query.Mode == types.MatchAll {
		if len(s.required) == 0 {
			return false
		}
		for _, i := range s.required {
			if !present(i) {
				return false
			}
		}
		return true
	}

	for i := range s.query.Terms {
		if present(i) {
			return true
		}
	}
	return false
}

func extensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// walker enumerates candidate files on a single goroutine
type walker struct {
	s       *Scanner
	filter  *pathFilter
	ignore  *config.GitignoreParser
	visited map[string]bool
	skipped *int64
	emit    func(fileTask) error
	warn    func(error) error
}

func (w *walker) run(ctx context.Context) error {
	s := w.s
	if s.opts.RespectGitignore {
		w.ignore = config.NewGitignoreParser()
	}
	w.filter = newPathFilter(s.opts.Include, s.opts.Exclude, s.opts.Extensions, w.ignore)

	info, err := os.Stat(s.root)
	if err != nil {
		return probeerrors.NewInvalidPathError(s.root, err)
	}

	// A file root is scanned as-is
	if !info.IsDir() {
		return w.emit(fileTask{path: s.root, rel: filepath.Base(s.root), size: info.Size()})
	}

	physical, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return probeerrors.NewInvalidPathError(s.root, err)
	}
	return w.walkTree(ctx, physical, s.root)
}

// walkTree walks the real directory physical, reporting paths as if they
// were found under logical
func (w *walker) walkTree(ctx context.Context, physical, logical string) error {
	return filepath.WalkDir(physical, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		logicalPath := logical
		if p != physical {
			sub, relErr := filepath.Rel(physical, p)
			if relErr != nil {
				return nil
			}
			logicalPath = filepath.Join(logical, sub)
		}
		rel := w.relative(logicalPath)

		if err != nil {
			debug.LogScan("walk error at %s: %v", p, err)
			if p == physical && logical == w.s.root {
				return probeerrors.NewInvalidPathError(w.s.root, err)
			}
			if werr := w.warn(probeerrors.NewFileError("walk", rel, err)); werr != nil {
				return werr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return w.enterDir(p, logicalPath, rel)
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return w.symlink(ctx, p, logicalPath, rel)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return w.warn(probeerrors.NewFileError("stat", rel, err))
		}
		return w.file(logicalPath, rel, info.Size())
	})
}

func (w *walker) enterDir(physical, logical, rel string) error {
	if w.visited[physical] {
		debug.LogScan("cycle detected, skipping already visited: %s", physical)
		return filepath.SkipDir
	}
	w.visited[physical] = true

	if rel != "." && w.filter.skipDir(rel) {
		return filepath.SkipDir
	}
	if w.ignore != nil {
		dir := rel
		if dir == "." {
			dir = ""
		}
		if err := w.ignore.LoadDir(w.s.root, dir); err != nil {
			return w.warn(probeerrors.NewFileError("read", filepath.ToSlash(filepath.Join(rel, ".gitignore")), err))
		}
	}
	return nil
}

func (w *walker) symlink(ctx context.Context, p, logical, rel string) error {
	target, err := os.Stat(p)
	if err != nil {
		debug.LogScan("skipping unresolvable symlink: %s (%v)", p, err)
		return nil
	}
	if !target.IsDir() {
		if !target.Mode().IsRegular() {
			return nil
		}
		return w.file(logical, rel, target.Size())
	}

	if !w.s.opts.FollowSymlinks {
		return nil
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil || w.visited[resolved] {
		return nil
	}
	if w.filter.skipDir(rel) {
		return nil
	}
	return w.walkTree(ctx, resolved, logical)
}

func (w *walker) file(logical, rel string, size int64) error {
	if w.filter.skipFile(rel) || size > w.s.opts.MaxFileSize {
		atomic.AddInt64(w.skipped, 1)
		return nil
	}
	return w.emit(fileTask{path: logical, rel: rel, size: size})
}

func (w *walker) relative(p string) string {
	rel, err := filepath.Rel(w.s.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
