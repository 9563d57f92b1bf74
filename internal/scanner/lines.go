package scanner

import "sort"

// lineIndex maps byte offsets to 1-based line numbers
type lineIndex []int

func newLineIndex(content []byte) lineIndex {
	var nl lineIndex
	for i, b := range content {
		if b == '\n' {
			nl = append(nl, i)
		}
	}
	return nl
}

// line returns the line holding offset
func (li lineIndex) line(offset int) int {
	return sort.SearchInts(li, offset) + 1
}
