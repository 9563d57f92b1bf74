package types

import (
	"fmt"
	"strings"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file
	// Rationale: Prevents memory exhaustion from large
	// generated files while covering 99.9% of source files.

	// Binary detection reads this many leading bytes before loading a whole file
	BinarySniffBytes = 8 * 1024

	// DefaultWholeFileThreshold is the covered-line ratio above which a file is returned whole
	DefaultWholeFileThreshold = 0.8

	// DefaultContextLines is the line radius used when no grammar can place a match
	DefaultContextLines = 5

	// DefaultMaxResults caps the ranked result list; 0 means unlimited
	DefaultMaxResults = 50
)

// Ranking defaults
const (
	DefaultK1            = 1.2  // BM25 term-frequency saturation
	DefaultB             = 0.75 // BM25 length normalization
	DefaultTFIDFWeight   = 0.4
	DefaultBM25Weight    = 0.6
	DefaultFilenameBoost = 2.0
)

// MatchMode decides how term hits combine into a file match
type MatchMode uint8

const (
	MatchAny MatchMode = iota // any single term hit keeps the file
	MatchAll                  // every required term must hit
)

func (m MatchMode) String() string {
	switch m {
	case MatchAll:
		return "all"
	default:
		return "any"
	}
}

// ParseMatchMode parses "any"/"or" and "all"/"and" (case-insensitive)
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "or":
		return MatchAny, nil
	case "all", "and":
		return MatchAll, nil
	default:
		return MatchAny, fmt.Errorf("unknown match mode %q (want any or all)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (m MatchMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MatchMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Term is one normalized search token. Terms are immutable once a Query is built.
type Term struct {
	Original string // normalized text (lowercased unless exact)
	Stemmed  string // stem; equals Original when stemming did not apply
	Stopword bool
	Required bool
}

// HasStem reports whether stemming produced a distinct, usable form
func (t Term) HasStem() bool {
	return t.Stemmed != "" && t.Stemmed != t.Original
}

// Query is the processed form of the raw query text
type Query struct {
	Raw   string
	Terms []Term
	Mode  MatchMode
	Exact bool
	// FellBack is set when stopword filtering removed every term and the unfiltered set was used
	FellBack bool
}

// RequiredTerms returns the indices of terms carrying the required flag
func (q Query) RequiredTerms() []int {
	var out []int
	for i, t := range q.Terms {
		if t.Required {
			out = append(out, i)
		}
	}
	return out
}

// TermTexts returns the original text of each term in order
func (q Query) TermTexts() []string {
	out := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		out[i] = t.Original
	}
	return out
}

// BoundaryMode describes where a pattern is anchored relative to word boundaries
type BoundaryMode uint8

const (
	BoundaryNone  BoundaryMode = iota // unanchored
	BoundaryStart                     // anchored at a word start only
	BoundaryEnd                       // anchored at a word end only
	BoundaryWhole                     // anchored on both sides (exact mode)
)

func (b BoundaryMode) String() string {
	switch b {
	case BoundaryStart:
		return "start"
	case BoundaryEnd:
		return "end"
	case BoundaryWhole:
		return "whole"
	default:
		return "none"
	}
}

// Pattern is a matchable expression derived from one or more terms
type Pattern struct {
	Expr          string       // regular expression source (RE2 syntax)
	Terms         []int        // originating term indices into Query.Terms
	Boundary      BoundaryMode // anchoring of the expression
	Literal       string       // origin text the expression is guaranteed to match
	CaseSensitive bool
}

// IsCombination reports whether the pattern joins several terms
func (p Pattern) IsCombination() bool {
	return len(p.Terms) > 1
}

// Hit is one occurrence inside file content
type Hit struct {
	Start   int   // byte offset, inclusive
	End     int   // byte offset, exclusive
	Line    int   // 1-based line of Start
	EndLine int   // 1-based line of End-1
	Terms   []int // term indices the occurrence belongs to
}

// FileMatch is the scan result for one file. It is not mutated after creation.
type FileMatch struct {
	Path         string // absolute path
	RelPath      string // path relative to the search root, slash separated
	Extension    string // lowercased extension including the dot
	Hits         []Hit  // content occurrences sorted by Start
	TermHits     []int  // per-term content occurrence counts
	FilenameHits []int  // per-term occurrence counts within the base name
	TotalLines   int
	Size         int64
	Content      []byte `json:"-"`
}

// ContentHitCount returns the total number of per-term content occurrences
func (f *FileMatch) ContentHitCount() int {
	total := 0
	for _, n := range f.TermHits {
		total += n
	}
	return total
}

// HasFilenameMatch reports whether any term matched the file's base name
func (f *FileMatch) HasFilenameMatch() bool {
	for _, n := range f.FilenameHits {
		if n > 0 {
			return true
		}
	}
	return false
}

// TermMatched reports whether term i hit content or filename
func (f *FileMatch) TermMatched(i int) bool {
	if i < len(f.TermHits) && f.TermHits[i] > 0 {
		return true
	}
	return i < len(f.FilenameHits) && f.FilenameHits[i] > 0
}

// Provenance records how a block's range was chosen
type Provenance string

const (
	ProvenanceAST       Provenance = "ast-derived"
	ProvenanceLine      Provenance = "line-heuristic"
	ProvenanceWholeFile Provenance = "whole-file"
)

// CodeBlock is an extracted excerpt with a valid, non-empty line range
type CodeBlock struct {
	Path       string
	RelPath    string
	StartLine  int // 1-based, inclusive
	EndLine    int // 1-based, inclusive
	Code       string
	Provenance Provenance
	NodeKind   string // grammar node kind of the enclosing unit, if any
}

// LineCount returns the number of lines the block spans
func (b CodeBlock) LineCount() int {
	return b.EndLine - b.StartLine + 1
}

// Contains reports whether line falls inside the block
func (b CodeBlock) Contains(line int) bool {
	return line >= b.StartLine && line <= b.EndLine
}

// TermStat carries the statistics one term contributed to a result's score
type TermStat struct {
	Term     string  `json:"term"`
	TF       int     `json:"tf"`
	DF       int     `json:"df"`
	IDF      float64 `json:"idf"`
	BM25IDF  float64 `json:"bm25_idf"`
	TFIDF    float64 `json:"tfidf"`
	BM25     float64 `json:"bm25"`
	Filename int     `json:"filename_hits,omitempty"`
}

// RankedResult is a CodeBlock with its composite relevance score
type RankedResult struct {
	Path          string     `json:"path" yaml:"path"`
	StartLine     int        `json:"start_line" yaml:"start_line"`
	EndLine       int        `json:"end_line" yaml:"end_line"`
	Code          string     `json:"code" yaml:"code"`
	Score         float64    `json:"score" yaml:"score"`
	Provenance    Provenance `json:"provenance" yaml:"provenance"`
	NodeKind      string     `json:"node_kind,omitempty" yaml:"node_kind,omitempty"`
	TFIDFScore    float64    `json:"tfidf_score,omitempty" yaml:"tfidf_score,omitempty"`
	BM25Score     float64    `json:"bm25_score,omitempty" yaml:"bm25_score,omitempty"`
	FilenameScore float64    `json:"filename_score,omitempty" yaml:"filename_score,omitempty"`
	TermStats     []TermStat `json:"term_stats,omitempty" yaml:"term_stats,omitempty"`
}

// Less orders results by descending score, then path, then start line
func Less(a, b RankedResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	return a.EndLine < b.EndLine
}

// CountLines returns the number of lines in content. A trailing newline does not start a new line.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 0
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
