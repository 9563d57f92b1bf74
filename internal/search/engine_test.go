package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/probe/internal/config"
	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/query"
	"github.com/standardbeagle/probe/internal/types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{})
	require.NoError(t, err)
	return e
}

func run(t *testing.T, root, q string, mutate func(*Options)) *Response {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	resp, err := newEngine(t).Search(context.Background(), Request{Query: q, Root: root, Options: opts})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

const loginJS = `const config = { retries: 3 };

/**
 * Checks a login.
 */
function userAuthenticate(name, password) {
  return name === "admin" && password.length > 0;
}

function logout() {
  return null;
}

module.exports = { logout };
`

func TestSearch_UserAuthScenario(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/login.js": loginJS})

	resp := run(t, root, "user Auth", func(o *Options) {
		o.MatchMode = types.MatchAll
		o.Debug = true
	})

	require.Len(t, resp.Results, 1)
	res := resp.Results[0]
	assert.Equal(t, "src/login.js", res.Path)
	assert.Equal(t, types.ProvenanceAST, res.Provenance)
	assert.Equal(t, 3, res.StartLine)
	assert.Equal(t, 8, res.EndLine)
	assert.Contains(t, res.Code, "function userAuthenticate(name, password) {")
	assert.Greater(t, res.Score, 0.0)

	require.NotNil(t, resp.Debug)
	var combination bool
	for _, p := range resp.Debug.Patterns {
		if len(p.Terms) == 2 && strings.Contains(p.Expr, "user") && strings.Contains(p.Expr, "auth") {
			combination = true
		}
	}
	assert.True(t, combination, "ALL mode generates the concatenated variant")
}

func TestSearch_RareTermRanksFirst(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"rare.txt":    "zebra zebra zebra\nfiller\nfiller\n",
		"common1.txt": "apple\nfiller\nfiller\n",
		"common2.txt": "apple\nfiller\nfiller\n",
		"common3.txt": "apple\nfiller\nfiller\n",
	})

	resp := run(t, root, "zebra apple", func(o *Options) { o.MatchMode = types.MatchAny })

	require.Len(t, resp.Results, 4)
	assert.Equal(t, "rare.txt", resp.Results[0].Path)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	for _, r := range resp.Results {
		assert.Equal(t, types.ProvenanceWholeFile, r.Provenance)
	}
}

func TestSearch_WholeFileWhenWindowCoversFile(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		if i == 5 {
			fmt.Fprintf(&b, "line %d needle\n", i)
			continue
		}
		fmt.Fprintf(&b, "line %d\n", i)
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"notes.txt": b.String()})

	resp := run(t, root, "needle", nil)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.ProvenanceWholeFile, resp.Results[0].Provenance)
	assert.Equal(t, 1, resp.Results[0].StartLine)
	assert.Equal(t, 10, resp.Results[0].EndLine)
}

func TestSearch_StopwordQueryFallsBack(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "the quick fox\n"})

	resp := run(t, root, "the and", func(o *Options) { o.MatchMode = types.MatchAny })
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.txt", resp.Results[0].Path)
}

func TestSearch_AbortingErrors(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t)

	_, err := e.Search(context.Background(), Request{Query: "  \t ", Root: root, Options: DefaultOptions()})
	require.Error(t, err)
	assert.ErrorIs(t, err, probeerrors.ErrEmptyQuery)
	assert.Equal(t, probeerrors.KindEmptyQuery, probeerrors.KindOf(err))

	_, err = e.Search(context.Background(), Request{Query: "x", Root: filepath.Join(root, "missing"), Options: DefaultOptions()})
	require.Error(t, err)
	assert.Equal(t, probeerrors.KindInvalidPath, probeerrors.KindOf(err))
	assert.True(t, probeerrors.IsFatal(err))
}

func TestSearch_NoMatchesIsEmptySuccess(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.go": "package a\n"})

	resp := run(t, root, "nonexistentidentifier", nil)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 0, resp.Stats.FilesMatched)
}

func TestSearch_MaxResults(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 6; i++ {
		files[fmt.Sprintf("f%d.txt", i)] = "token\n"
	}
	writeFiles(t, root, files)

	resp := run(t, root, "token", func(o *Options) { o.MaxResults = 4 })
	require.Len(t, resp.Results, 4)
	assert.Equal(t, 4, resp.Stats.Results)
	assert.Equal(t, 6, resp.Stats.FilesMatched)

	// Equal scores break ties by path
	assert.Equal(t, "f0.txt", resp.Results[0].Path)
	assert.Equal(t, "f3.txt", resp.Results[3].Path)
}

func TestSearch_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/handler.go": "package a\n\nfunc Handle() {}\n\nfunc handleAll() { Handle() }\n",
		"b/handler.go": "package b\n\nfunc Handle() {}\n",
		"c/util.py":    "def handle():\n    pass\n",
	})

	first := run(t, root, "handle", func(o *Options) { o.Workers = 4 })
	require.NotEmpty(t, first.Results)
	for i := 0; i < 5; i++ {
		again := run(t, root, "handle", func(o *Options) { o.Workers = 4 })
		assert.Equal(t, first.Results, again.Results)
	}
}

func TestSearch_DebugInfo(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"parser.go": "package p\n\n// parse parses.\nfunc parse() {}\n",
		"other.go":  "package p\n\nvar x = parse\n",
	})

	resp := run(t, root, "parse", func(o *Options) { o.Debug = true })
	require.NotNil(t, resp.Debug)

	d := resp.Debug
	require.Len(t, d.Terms, 1)
	assert.Equal(t, "parse", d.Terms[0].Text)
	assert.Equal(t, 2, d.Terms[0].DF)
	assert.Equal(t, 4, d.Terms[0].Hits)
	assert.Equal(t, 1, d.Terms[0].FilenameHits)
	assert.NotEmpty(t, d.Patterns)
	assert.Equal(t, 2, d.Files)
	assert.Len(t, d.Scores, len(resp.Results))
	assert.Greater(t, d.AvgLines, 0.0)

	for _, s := range d.Scores {
		require.Len(t, s.Terms, 1)
		assert.Equal(t, 2, s.Terms[0].DF)
	}
	for _, r := range resp.Results {
		assert.Nil(t, r.TermStats)
	}

	plain := run(t, root, "parse", nil)
	assert.Nil(t, plain.Debug)
	assert.Equal(t, 0.0, plain.Results[0].TFIDFScore)
}

func TestSearch_WarningsDoNotAbort(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.txt": "token\n",
		"bad.txt":  "token \xff\xfe\n",
	})

	resp := run(t, root, "token", nil)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "good.txt", resp.Results[0].Path)

	require.Len(t, resp.Warnings, 1)
	w := resp.Warnings[0]
	assert.Equal(t, probeerrors.KindFileRead, w.Kind)
	assert.Equal(t, "bad.txt", w.Path)
	assert.ErrorIs(t, resp.Err(), probeerrors.ErrInvalidEncoding)
}

func TestSearch_ParseErrorWarning(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"broken.go": "package x\n\nfunc broken( {\n\ttoken := 1\n"})

	resp := run(t, root, "token", nil)
	require.Len(t, resp.Results, 1)
	assert.NotEqual(t, types.ProvenanceAST, resp.Results[0].Provenance)

	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, probeerrors.KindParse, resp.Warnings[0].Kind)
	assert.Equal(t, "broken.go", resp.Warnings[0].Path)
}

func TestSearch_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "token\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := newEngine(t).Search(ctx, Request{Query: "token", Root: root, Options: DefaultOptions()})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, resp)
	assert.True(t, resp.Truncated)
}

func TestSearch_ConfigDrivenOptions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".probe.kdl":     "search {\n  match_mode \"any\"\n  max_results 1\n}\nextensions \"go\"\n",
		"a.go":           "package a // widget\n",
		"b.go":           "package b // gadget\n",
		"notes.txt":      "widget gadget\n",
		"vendor/skip.go": "package skip // widget\n",
	})
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	cfg, err := config.Load(root)
	require.NoError(t, err)
	cfg.Exclude = append(cfg.Exclude, "**/vendor/**")

	e, err := NewEngineFromConfig(cfg)
	require.NoError(t, err)

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, types.MatchAny, opts.MatchMode)
	assert.Equal(t, 1, opts.MaxResults)

	opts.MaxResults = 0
	resp, err := e.Search(context.Background(), Request{Query: "widget gadget", Root: root, Options: opts})
	require.NoError(t, err)

	var paths []string
	for _, r := range resp.Results {
		paths = append(paths, r.Path)
	}
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, paths)
}

func TestNewEngine_RejectsNegativeStemLength(t *testing.T) {
	_, err := NewEngine(EngineConfig{Terms: query.Options{MinStemLength: -1}})
	require.Error(t, err)
	assert.Equal(t, probeerrors.KindConfig, probeerrors.KindOf(err))
}

func TestSearch_RejectsInvalidOptions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"router.go": "package router\n"})

	tests := []struct {
		name   string
		field  string
		mutate func(*Options)
	}{
		{"b above one", "ranking.b", func(o *Options) { o.B = 5 }},
		{"negative k1", "ranking.k1", func(o *Options) { o.K1 = -1 }},
		{"both weights zero", "ranking", func(o *Options) { o.TFIDFWeight, o.BM25Weight = 0, 0 }},
		{"negative boost", "ranking.filename_boost", func(o *Options) { o.FilenameBoost = -2 }},
		{"threshold above one", "search.whole_file_threshold", func(o *Options) { o.WholeFileThreshold = 1.5 }},
		{"negative context", "search.context_lines", func(o *Options) { o.ContextLines = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			resp, err := newEngine(t).Search(context.Background(), Request{Query: "router", Root: root, Options: opts})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, probeerrors.KindConfig, probeerrors.KindOf(err))
			assert.True(t, probeerrors.IsFatal(err))

			var ce *probeerrors.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestSearch_SingleWeightIsUsedAsGiven(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"notes.txt": "router\n"})

	resp := run(t, root, "router", func(o *Options) {
		o.TFIDFWeight = 0
		o.FilenameBoost = 0
		o.Debug = true
	})
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Debug.Scores, 1)

	sc := resp.Debug.Scores[0]
	assert.Greater(t, sc.TFIDF, 0.0)
	assert.Greater(t, sc.BM25, 0.0)
	assert.InDelta(t, DefaultOptions().BM25Weight*sc.BM25, resp.Results[0].Score, 1e-9)
}

func TestEngine_Languages(t *testing.T) {
	langs := newEngine(t).Languages()
	require.NotEmpty(t, langs)

	names := map[string]bool{}
	for _, l := range langs {
		names[l.Name] = true
		assert.NotEmpty(t, l.Extensions)
	}
	assert.True(t, names["go"])
	assert.True(t, names["python"])
}
