package display

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/probe/internal/search"
	"github.com/standardbeagle/probe/internal/types"
)

func sampleResponse() *search.Response {
	return &search.Response{
		Results: []types.RankedResult{
			{
				Path:       "auth/login.go",
				StartLine:  9,
				EndLine:    11,
				Code:       "func Login() bool {\n\treturn true\n}",
				Score:      2.5,
				Provenance: types.ProvenanceAST,
				NodeKind:   "function_declaration",
			},
			{
				Path:       "notes.txt",
				StartLine:  1,
				EndLine:    1,
				Code:       "login notes",
				Score:      0.25,
				Provenance: types.ProvenanceWholeFile,
			},
		},
		Stats: search.Stats{FilesMatched: 2, FilesVisited: 7, Duration: 3 * time.Millisecond},
	}
}

func TestNewResultFormatter(t *testing.T) {
	formatter := NewResultFormatter(FormatterOptions{})
	assert.Equal(t, "text", formatter.options.Format)

	options := FormatterOptions{Format: "compact", ShowLines: true, ShowScores: true, Indent: "\t"}
	assert.Equal(t, options, NewResultFormatter(options).options)
}

func TestResultFormatter_Text(t *testing.T) {
	out := NewResultFormatter(FormatterOptions{ShowScores: true}).Format(sampleResponse())

	assert.Contains(t, out, "auth/login.go:9-11 (score 2.500, ast-derived function_declaration)\n")
	assert.Contains(t, out, "func Login() bool {\n\treturn true\n}\n")
	assert.Contains(t, out, "\nnotes.txt:1-1 (score 0.250, whole-file)\n")
	assert.NotContains(t, out, "--- terms")
}

func TestResultFormatter_LineNumbers(t *testing.T) {
	out := NewResultFormatter(FormatterOptions{ShowLines: true}).Format(sampleResponse())

	assert.Contains(t, out, " 9| func Login() bool {\n")
	assert.Contains(t, out, "10| \treturn true\n")
	assert.Contains(t, out, "1| login notes\n")
	assert.Contains(t, out, "auth/login.go:9-11\n")
}

func TestResultFormatter_Compact(t *testing.T) {
	out := NewResultFormatter(FormatterOptions{Format: "compact"}).Format(sampleResponse())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"auth/login.go:9-11", "notes.txt:1-1"}, lines)
}

func TestResultFormatter_Debug(t *testing.T) {
	resp := sampleResponse()
	resp.Debug = &search.DebugInfo{
		Terms:    []search.DebugTerm{{Text: "login", Stemmed: "log", Required: true, Hits: 3, DF: 2}},
		Patterns: []search.DebugPattern{{Expr: `(?i)\blogin`, Terms: []int{0}, Boundary: "start"}},
		Files:    2,
		AvgLines: 6,
		Scores:   []search.DebugScore{{Path: "notes.txt", StartLine: 1, EndLine: 1, TFIDF: 0.5, Score: 0.25}},
	}

	out := NewResultFormatter(FormatterOptions{}).Format(resp)
	assert.Contains(t, out, "--- terms\nlogin")
	assert.Contains(t, out, "hits=3 filename=0 df=2 stem=log")
	assert.Contains(t, out, `(?i)\blogin`)
	assert.Contains(t, out, "--- scores (files=2 avg_lines=6.0)")
	assert.Contains(t, out, "notes.txt:1-1 tfidf=0.500 bm25=0.000 filename=0.000 score=0.250")
}

func TestResultFormatter_Empty(t *testing.T) {
	formatter := NewResultFormatter(FormatterOptions{})
	assert.Empty(t, formatter.Format(nil))
	assert.Empty(t, formatter.Format(&search.Response{}))

	resp := &search.Response{Truncated: true}
	assert.Equal(t, "0 results in 0 files (0 scanned, 0s), truncated", formatter.Summary(resp))
	assert.Equal(t, "2 results in 2 files (7 scanned, 3ms)", formatter.Summary(sampleResponse()))
}
