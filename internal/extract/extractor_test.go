package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/parser"
	"github.com/standardbeagle/probe/internal/types"
)

// fileMatch builds a FileMatch with one hit per occurrence of each word.
// Hits of the i-th word carry term index i.
func fileMatch(path, content string, words ...string) *types.FileMatch {
	fm := &types.FileMatch{
		Path:         "/repo/" + path,
		RelPath:      path,
		Content:      []byte(content),
		TotalLines:   types.CountLines([]byte(content)),
		TermHits:     make([]int, len(words)),
		FilenameHits: make([]int, len(words)),
	}
	for ti, w := range words {
		for from := 0; ; {
			idx := strings.Index(content[from:], w)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(w)
			fm.Hits = append(fm.Hits, types.Hit{
				Start:   start,
				End:     end,
				Line:    strings.Count(content[:start], "\n") + 1,
				EndLine: strings.Count(content[:end-1], "\n") + 1,
				Terms:   []int{ti},
			})
			fm.TermHits[ti]++
			from = end
		}
	}
	return fm
}

func newExtractor(opts Options) *Extractor {
	return New(parser.NewRegistry(), opts)
}

func numberedLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestExtract_WholeFileWhenWindowCoversFile(t *testing.T) {
	content := numberedLines(10)
	fm := fileMatch("notes.txt", content, "line 5")

	blocks, err := newExtractor(DefaultOptions()).ExtractFile(fm)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, types.ProvenanceWholeFile, b.Provenance)
	assert.Equal(t, 1, b.StartLine)
	assert.Equal(t, 10, b.EndLine)
	assert.Equal(t, strings.TrimSuffix(content, "\n"), b.Code)
}

func TestExtract_LineWindowsMerge(t *testing.T) {
	content := numberedLines(40)
	ex := newExtractor(Options{ContextLines: 2, WholeFileThreshold: 0.8})

	blocks, err := ex.ExtractFile(fileMatch("notes.txt", content, "line 5\n", "line 30\n"))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, [2]int{3, 7}, [2]int{blocks[0].StartLine, blocks[0].EndLine})
	assert.Equal(t, [2]int{28, 32}, [2]int{blocks[1].StartLine, blocks[1].EndLine})
	assert.Equal(t, types.ProvenanceLine, blocks[0].Provenance)
	assert.Equal(t, "line 3\nline 4\nline 5\nline 6\nline 7", blocks[0].Code)

	blocks, err = ex.ExtractFile(fileMatch("notes.txt", content, "line 5\n", "line 8\n"))
	require.NoError(t, err)
	require.Len(t, blocks, 1, "overlapping windows merge")
	assert.Equal(t, [2]int{3, 10}, [2]int{blocks[0].StartLine, blocks[0].EndLine})
}

func TestExtract_WindowEndingOnBlankLine(t *testing.T) {
	content := strings.Repeat("filler\n", 30) + "needle\n\n" + strings.Repeat("filler\n", 30)
	ex := newExtractor(Options{ContextLines: 1, WholeFileThreshold: 0.8})

	blocks, err := ex.ExtractFile(fileMatch("notes.txt", content, "needle"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, [2]int{30, 32}, [2]int{b.StartLine, b.EndLine})
	assert.Equal(t, "filler\nneedle\n", b.Code)
	assert.Len(t, strings.Split(b.Code, "\n"), b.LineCount())
}

func TestExtract_WholeFileThresholdIsStrict(t *testing.T) {
	content := numberedLines(10)
	ex := newExtractor(Options{ContextLines: 0, WholeFileThreshold: 0.8})

	// lines 2-5 and 7-10: exactly 8 of 10 covered
	exactly := fileMatch("notes.txt", content, "line 2\nline 3\nline 4\nline 5\n", "line 7\nline 8\nline 9\nline 10\n")
	blocks, err := ex.ExtractFile(exactly)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, types.ProvenanceLine, blocks[0].Provenance)
	assert.Equal(t, [2]int{2, 5}, [2]int{blocks[0].StartLine, blocks[0].EndLine})
	assert.Equal(t, [2]int{7, 10}, [2]int{blocks[1].StartLine, blocks[1].EndLine})

	// one more line tips it over
	above := fileMatch("notes.txt", content, "line 1\n", "line 2\nline 3\nline 4\nline 5\n", "line 7\nline 8\nline 9\nline 10\n")
	blocks, err = ex.ExtractFile(above)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, types.ProvenanceWholeFile, blocks[0].Provenance)
}

func TestExtract_WindowClampedToFile(t *testing.T) {
	content := numberedLines(30)
	ex := newExtractor(Options{ContextLines: 5, WholeFileThreshold: 0.8})

	blocks, err := ex.ExtractFile(fileMatch("notes.txt", content, "line 1\n", "line 30\n"))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].StartLine)
	assert.Equal(t, 6, blocks[0].EndLine)
	assert.Equal(t, 25, blocks[1].StartLine)
	assert.Equal(t, 30, blocks[1].EndLine)
}

const goSource = `package auth

import "strings"

// normalize trims input.
func normalize(s string) string {
	return strings.TrimSpace(s)
}

// userAuthenticate checks credentials.
func userAuthenticate(name, password string) bool {
	return normalize(name) != "" && password != ""
}

const maxAttempts = 3

var registry = map[string]int{}

func unrelated() int {
	return 42
}
`

func TestExtract_GoFunctionWithLeadingComment(t *testing.T) {
	blocks, err := newExtractor(DefaultOptions()).ExtractFile(fileMatch("auth.go", goSource, "password"))
	require.NoError(t, err)
	require.Len(t, blocks, 1, "hits in one function merge into one block")

	b := blocks[0]
	assert.Equal(t, types.ProvenanceAST, b.Provenance)
	assert.Equal(t, "function_declaration", b.NodeKind)
	assert.Equal(t, 10, b.StartLine, "doc comment is included")
	assert.Equal(t, 13, b.EndLine)
	assert.True(t, strings.HasPrefix(b.Code, "// userAuthenticate checks credentials."))
	assert.True(t, strings.HasSuffix(b.Code, "}"))
}

func TestExtract_GoWithoutLeadingComments(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeLeadingComments = false

	blocks, err := newExtractor(opts).ExtractFile(fileMatch("auth.go", goSource, "password"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 11, blocks[0].StartLine)
}

func TestExtract_GoHitInDocComment(t *testing.T) {
	blocks, err := newExtractor(DefaultOptions()).ExtractFile(fileMatch("auth.go", goSource, "checks credentials"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, types.ProvenanceAST, blocks[0].Provenance)
	assert.Equal(t, 10, blocks[0].StartLine)
	assert.Equal(t, 13, blocks[0].EndLine)
}

func TestExtract_GoTopLevelAndUnplacedHits(t *testing.T) {
	opts := DefaultOptions()
	opts.ContextLines = 1

	blocks, err := newExtractor(opts).ExtractFile(fileMatch("auth.go", goSource, "maxAttempts", "package"))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, types.ProvenanceLine, blocks[0].Provenance, "package clause is not a unit")
	assert.Equal(t, 1, blocks[0].StartLine)
	assert.Equal(t, 2, blocks[0].EndLine)

	assert.Equal(t, types.ProvenanceAST, blocks[1].Provenance)
	assert.Equal(t, "const_declaration", blocks[1].NodeKind)
	assert.Equal(t, 15, blocks[1].StartLine)
	assert.Equal(t, 15, blocks[1].EndLine)
}

const jsSource = `const config = { retries: 3 };

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

func TestExtract_UserAuthCombinationScenario(t *testing.T) {
	fm := fileMatch("login.js", jsSource, "userAuth")
	fm.Hits[0].Terms = []int{0, 1}

	blocks, err := newExtractor(DefaultOptions()).ExtractFile(fm)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, types.ProvenanceAST, b.Provenance)
	assert.Equal(t, "function_declaration", b.NodeKind)
	assert.Equal(t, 3, b.StartLine)
	assert.Equal(t, 8, b.EndLine)
	assert.Contains(t, b.Code, "function userAuthenticate(name, password) {")
}

const pySource = `import os


class Session:
    def open(self):
        return os.getcwd()

    def close(self):
        return None


def helper():
    return 1
`

func TestExtract_NestedUnitsMerge(t *testing.T) {
	ex := newExtractor(DefaultOptions())

	blocks, err := ex.ExtractFile(fileMatch("session.py", pySource, "getcwd", "None"))
	require.NoError(t, err)
	require.Len(t, blocks, 2, "methods are separate units")
	assert.Equal(t, [2]int{5, 6}, [2]int{blocks[0].StartLine, blocks[0].EndLine})
	assert.Equal(t, [2]int{8, 9}, [2]int{blocks[1].StartLine, blocks[1].EndLine})

	blocks, err = ex.ExtractFile(fileMatch("session.py", pySource, "getcwd", "None", "Session"))
	require.NoError(t, err)
	require.Len(t, blocks, 1, "methods nest inside the class")
	assert.Equal(t, [2]int{4, 9}, [2]int{blocks[0].StartLine, blocks[0].EndLine})
	assert.Equal(t, "class_definition", blocks[0].NodeKind)
}

func TestExtract_ParseErrorFallsBackToLines(t *testing.T) {
	content := "package broken\n\nfunc broken( {\n\treturn token\n}\n" + strings.Repeat("// filler\n", 20)
	ex := newExtractor(Options{ContextLines: 1, WholeFileThreshold: 0.8})

	blocks, err := ex.ExtractFile(fileMatch("broken.go", content, "token"))
	require.Error(t, err)
	assert.Equal(t, probeerrors.KindParse, probeerrors.KindOf(err))
	assert.False(t, probeerrors.IsFatal(err))

	require.Len(t, blocks, 1)
	assert.Equal(t, types.ProvenanceLine, blocks[0].Provenance)
	assert.Equal(t, 3, blocks[0].StartLine)
	assert.Equal(t, 5, blocks[0].EndLine)
}

func TestExtract_FilenameOnlyAndEmpty(t *testing.T) {
	ex := newExtractor(DefaultOptions())

	fm := fileMatch("auth.go", goSource)
	fm.FilenameHits = []int{1}
	blocks, err := ex.ExtractFile(fm)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, types.ProvenanceWholeFile, blocks[0].Provenance)
	assert.Equal(t, 21, blocks[0].EndLine)

	empty := fileMatch("empty.go", "")
	empty.FilenameHits = []int{1}
	blocks, err = ex.ExtractFile(empty)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestExtract_BlocksStayInsideFile(t *testing.T) {
	ex := newExtractor(Options{ContextLines: 3, WholeFileThreshold: 0.8})
	files := []*types.FileMatch{
		fileMatch("auth.go", goSource, "return", "string"),
		fileMatch("login.js", jsSource, "name", "null"),
		fileMatch("session.py", pySource, "self", "helper"),
		fileMatch("notes.txt", numberedLines(50), "line 1", "line 4"),
	}

	for _, fm := range files {
		blocks, err := ex.ExtractFile(fm)
		require.NoError(t, err, fm.RelPath)
		require.NotEmpty(t, blocks, fm.RelPath)

		covered := 0
		for i, b := range blocks {
			assert.GreaterOrEqual(t, b.StartLine, 1)
			assert.LessOrEqual(t, b.EndLine, fm.TotalLines)
			assert.LessOrEqual(t, b.StartLine, b.EndLine)
			if i > 0 {
				assert.Greater(t, b.StartLine, blocks[i-1].EndLine, "blocks do not overlap")
			}
			covered += b.LineCount()
		}
		assert.LessOrEqual(t, covered, fm.TotalLines)

		if len(blocks) > 1 {
			assert.LessOrEqual(t, float64(covered), 0.8*float64(fm.TotalLines))
		}
	}
}

func TestExtract_ParallelSorted(t *testing.T) {
	ex := newExtractor(Options{ContextLines: 1, WholeFileThreshold: 0.8, Workers: 3})
	files := []*types.FileMatch{
		fileMatch("z.txt", numberedLines(30), "line 20\n", "line 2\n"),
		fileMatch("a.go", goSource, "maxAttempts"),
		fileMatch("broken.go", "package x\nfunc (\n"+numberedLines(20), "line 15\n"),
		fileMatch("m.py", pySource, "helper"),
	}

	res, err := ex.Extract(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)

	var got []string
	for _, b := range res.Blocks {
		got = append(got, fmt.Sprintf("%s:%d", b.RelPath, b.StartLine))
	}
	assert.Equal(t, []string{"a.go:15", "broken.go:16", "m.py:12", "z.txt:1", "z.txt:19"}, got)
}

func TestExtract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newExtractor(DefaultOptions()).Extract(ctx, []*types.FileMatch{fileMatch("a.txt", "x\n", "x")})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
}
