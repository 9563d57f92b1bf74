// Package ranking scores code blocks against a query with a blend of
// TF-IDF and BM25 plus a filename boost.
package ranking

import (
	"math"
	"sort"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/types"
)

// Params holds the tunable scoring constants
type Params struct {
	K1            float64 // BM25 term-frequency saturation
	B             float64 // BM25 length normalization
	TFIDFWeight   float64
	BM25Weight    float64
	FilenameBoost float64 // added per matched term, scaled by filename similarity
}

// DefaultParams returns the default scoring constants
func DefaultParams() Params {
	return Params{
		K1:            types.DefaultK1,
		B:             types.DefaultB,
		TFIDFWeight:   types.DefaultTFIDFWeight,
		BM25Weight:    types.DefaultBM25Weight,
		FilenameBoost: types.DefaultFilenameBoost,
	}
}

// Ranker is stateless apart from its parameters
type Ranker struct {
	params Params
}

func New(params Params) *Ranker {
	return &Ranker{params: params}
}

// Params returns the ranker's scoring constants
func (r *Ranker) Params() Params {
	return r.params
}

// Corpus holds the collection statistics of one search: the matched files
// form the document population for IDF and average length.
type Corpus struct {
	N     int     // matched files
	DF    []int   // per-term count of files with a content hit
	AvgDL float64 // mean line count of non-empty matched files
}

// NewCorpus computes collection statistics over files for termCount terms
func NewCorpus(files []*types.FileMatch, termCount int) Corpus {
	c := Corpus{N: len(files), DF: make([]int, termCount)}

	totalLines, nonEmpty := 0, 0
	for _, f := range files {
		for t := 0; t < termCount && t < len(f.TermHits); t++ {
			if f.TermHits[t] > 0 {
				c.DF[t]++
			}
		}
		// Zero-length files stay out of the average
		if f.TotalLines > 0 {
			totalLines += f.TotalLines
			nonEmpty++
		}
	}
	if nonEmpty > 0 {
		c.AvgDL = float64(totalLines) / float64(nonEmpty)
	}
	return c
}

// IDF is the TF-IDF inverse document frequency, zero for an absent term
func (c Corpus) IDF(t int) float64 {
	if t >= len(c.DF) || c.DF[t] == 0 || c.N == 0 {
		return 0
	}
	return math.Log(1 + float64(c.N)/float64(c.DF[t]))
}

// BM25IDF is the BM25 inverse document frequency, zero for an absent term
// and never negative
func (c Corpus) BM25IDF(t int) float64 {
	if t >= len(c.DF) || c.DF[t] == 0 {
		return 0
	}
	df := float64(c.DF[t])
	return math.Log(1 + (float64(c.N)-df+0.5)/(df+0.5))
}

// tfidf returns the log-scaled TF-IDF weight of one term
func tfidf(tf int, idf float64) float64 {
	if tf <= 0 {
		return 0
	}
	return (1 + math.Log(float64(tf))) * idf
}

// bm25 returns the BM25 weight of one term in a document of dl lines
func (r *Ranker) bm25(tf int, idf, dl, avgdl float64) float64 {
	if tf <= 0 || idf == 0 {
		return 0
	}
	lengthRatio := 1.0
	if avgdl > 0 && dl > 0 {
		lengthRatio = dl / avgdl
	}
	f := float64(tf)
	return idf * f * (r.params.K1 + 1) / (f + r.params.K1*(1-r.params.B+r.params.B*lengthRatio))
}

// BlockTF counts the single-term hits of fm that fall inside block
func BlockTF(fm *types.FileMatch, block types.CodeBlock, termCount int) []int {
	tf := make([]int, termCount)
	if block.Provenance == types.ProvenanceWholeFile {
		copy(tf, fm.TermHits)
		return tf
	}
	for _, h := range fm.Hits {
		if len(h.Terms) != 1 || !block.Contains(h.Line) {
			continue
		}
		if t := h.Terms[0]; t >= 0 && t < termCount {
			tf[t]++
		}
	}
	return tf
}

// Rank scores every block and returns results in total order: score
// descending, then path, start line and end line. files must contain the
// FileMatch each block came from. withStats attaches raw component scores
// and per-term statistics.
func (r *Ranker) Rank(q types.Query, files []*types.FileMatch, blocks []types.CodeBlock, withStats bool) []types.RankedResult {
	termCount := len(q.Terms)
	corpus := NewCorpus(files, termCount)

	byPath := make(map[string]*types.FileMatch, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	results := make([]types.RankedResult, 0, len(blocks))
	for _, block := range blocks {
		fm := byPath[block.Path]
		if fm == nil {
			debug.LogSearch("ranking: no file match for block %s:%d", block.RelPath, block.StartLine)
			continue
		}
		results = append(results, r.score(q, corpus, fm, block, withStats))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return types.Less(results[i], results[j])
	})
	debug.LogSearch("ranked %d blocks over %d files (avgdl %.1f)", len(results), corpus.N, corpus.AvgDL)
	return results
}

func (r *Ranker) score(q types.Query, c Corpus, fm *types.FileMatch, block types.CodeBlock, withStats bool) types.RankedResult {
	termCount := len(q.Terms)
	tf := BlockTF(fm, block, termCount)
	dl := float64(block.LineCount())

	var tfidfScore, bm25Score, filenameScore float64
	var stats []types.TermStat
	if withStats {
		stats = make([]types.TermStat, 0, termCount)
	}

	for t := 0; t < termCount; t++ {
		idf := c.IDF(t)
		bidf := c.BM25IDF(t)
		ti := tfidf(tf[t], idf)
		bm := r.bm25(tf[t], bidf, dl, c.AvgDL)
		tfidfScore += ti
		bm25Score += bm

		nameHits := 0
		if t < len(fm.FilenameHits) {
			nameHits = fm.FilenameHits[t]
		}
		if nameHits > 0 && termCount > 0 {
			filenameScore += r.params.FilenameBoost * filenameSimilarity(q.Terms[t].Original, fm.Path) / float64(termCount)
		}

		if withStats {
			stats = append(stats, types.TermStat{
				Term:     q.Terms[t].Original,
				TF:       tf[t],
				DF:       c.DF[t],
				IDF:      idf,
				BM25IDF:  bidf,
				TFIDF:    ti,
				BM25:     bm,
				Filename: nameHits,
			})
		}
	}

	res := types.RankedResult{
		Path:       block.RelPath,
		StartLine:  block.StartLine,
		EndLine:    block.EndLine,
		Code:       block.Code,
		Score:      r.params.TFIDFWeight*tfidfScore + r.params.BM25Weight*bm25Score + filenameScore,
		Provenance: block.Provenance,
		NodeKind:   block.NodeKind,
	}
	if withStats {
		res.TFIDFScore = tfidfScore
		res.BM25Score = bm25Score
		res.FilenameScore = filenameScore
		res.TermStats = stats
	}
	return res
}
