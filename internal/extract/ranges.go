package extract

import (
	"sort"

	"github.com/standardbeagle/probe/internal/types"
)

// lineRange is a 1-based inclusive span of lines
type lineRange struct {
	start, end int
	prov       types.Provenance
	kind       string // node kind for ast-derived ranges
}

func (r lineRange) lines() int {
	return r.end - r.start + 1
}

// mergeRanges merges overlapping or nested ranges. A merged range is
// ast-derived when any of its parts is, and keeps the node kind of its
// widest ast-derived part.
func mergeRanges(in []lineRange) []lineRange {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]lineRange(nil), in...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end > sorted[j].end
	})

	out := []lineRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.start > last.end {
			out = append(out, r)
			continue
		}
		if r.prov == types.ProvenanceAST {
			if last.prov != types.ProvenanceAST || r.lines() > last.lines() {
				last.kind = r.kind
			}
			last.prov = types.ProvenanceAST
		}
		if r.end > last.end {
			last.end = r.end
		}
	}
	return out
}

// coveredLines counts lines in merged, non-overlapping ranges
func coveredLines(merged []lineRange) int {
	n := 0
	for _, r := range merged {
		n += r.lines()
	}
	return n
}

// window returns the line-radius range around lines first..last, clamped to the file
func window(first, last, radius, total int) lineRange {
	start := first - radius
	if start < 1 {
		start = 1
	}
	end := last + radius
	if end > total {
		end = total
	}
	return lineRange{start: start, end: end, prov: types.ProvenanceLine}
}

// lineOffsets returns the byte offset at which each line starts
func lineOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// sliceLines returns the text of lines start..end without the final newline
func sliceLines(content []byte, offsets []int, start, end int) string {
	from := offsets[start-1]
	to := len(content)
	if end < len(offsets) {
		to = offsets[end] - 1
	} else if to > from && content[to-1] == '\n' {
		to--
	}
	if to > from && content[to-1] == '\r' {
		to--
	}
	return string(content[from:to])
}
