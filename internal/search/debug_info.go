package search

import (
	"github.com/standardbeagle/probe/internal/pattern"
	"github.com/standardbeagle/probe/internal/ranking"
	"github.com/standardbeagle/probe/internal/types"
)

// DebugInfo exposes the intermediate state of a search. It is only filled
// when Options.Debug is set.
type DebugInfo struct {
	Terms    []DebugTerm    `json:"terms" yaml:"terms"`
	Patterns []DebugPattern `json:"patterns" yaml:"patterns"`
	Files    int            `json:"files" yaml:"files"`
	AvgLines float64        `json:"avg_lines" yaml:"avg_lines"`
	Scores   []DebugScore   `json:"scores" yaml:"scores"`
}

// DebugTerm is one processed term with its corpus statistics
type DebugTerm struct {
	Text         string `json:"text" yaml:"text"`
	Stemmed      string `json:"stemmed,omitempty" yaml:"stemmed,omitempty"`
	Required     bool   `json:"required" yaml:"required"`
	Stopword     bool   `json:"stopword,omitempty" yaml:"stopword,omitempty"`
	Hits         int    `json:"hits" yaml:"hits"`                   // content occurrences over all matched files
	FilenameHits int    `json:"filename_hits" yaml:"filename_hits"` // occurrences in base names
	DF           int    `json:"df" yaml:"df"`                       // matched files with a content hit
}

// DebugPattern is one generated match expression
type DebugPattern struct {
	Expr     string `json:"expr" yaml:"expr"`
	Terms    []int  `json:"terms" yaml:"terms"`
	Boundary string `json:"boundary" yaml:"boundary"`
}

// DebugScore holds the raw component scores of one ranked block
type DebugScore struct {
	Path      string           `json:"path" yaml:"path"`
	StartLine int              `json:"start_line" yaml:"start_line"`
	EndLine   int              `json:"end_line" yaml:"end_line"`
	TFIDF     float64          `json:"tfidf" yaml:"tfidf"`
	BM25      float64          `json:"bm25" yaml:"bm25"`
	Filename  float64          `json:"filename" yaml:"filename"`
	Score     float64          `json:"score" yaml:"score"`
	Terms     []types.TermStat `json:"terms" yaml:"terms"`
}

func newDebugInfo(q types.Query, set *pattern.Set) *DebugInfo {
	info := &DebugInfo{}
	for _, t := range q.Terms {
		dt := DebugTerm{Text: t.Original, Required: t.Required, Stopword: t.Stopword}
		if t.HasStem() {
			dt.Stemmed = t.Stemmed
		}
		info.Terms = append(info.Terms, dt)
	}
	for _, p := range set.Patterns() {
		info.Patterns = append(info.Patterns, DebugPattern{
			Expr:     p.Expr,
			Terms:    append([]int(nil), p.Terms...),
			Boundary: p.Boundary.String(),
		})
	}
	return info
}

func (d *DebugInfo) addCorpus(c ranking.Corpus, files []*types.FileMatch) {
	d.Files = c.N
	d.AvgLines = c.AvgDL
	for i := range d.Terms {
		if i < len(c.DF) {
			d.Terms[i].DF = c.DF[i]
		}
		for _, f := range files {
			if i < len(f.TermHits) {
				d.Terms[i].Hits += f.TermHits[i]
			}
			if i < len(f.FilenameHits) {
				d.Terms[i].FilenameHits += f.FilenameHits[i]
			}
		}
	}
}

func (d *DebugInfo) addScores(ranked []types.RankedResult) {
	d.Scores = make([]DebugScore, 0, len(ranked))
	for _, r := range ranked {
		d.Scores = append(d.Scores, DebugScore{
			Path:      r.Path,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			TFIDF:     r.TFIDFScore,
			BM25:      r.BM25Score,
			Filename:  r.FilenameScore,
			Score:     r.Score,
			Terms:     r.TermStats,
		})
	}
}
