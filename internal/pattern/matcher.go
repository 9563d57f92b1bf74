package pattern

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/types"
)

// Span is one occurrence found by a Matcher
type Span struct {
	Start int
	End   int
	Terms []int
}

type compiled struct {
	re      *regexp.Regexp
	pattern types.Pattern
}

// Matcher holds the compiled form of a Set. Compiled regexps are safe for
// concurrent use, so one Matcher is shared by every scan worker.
type Matcher struct {
	entries   []compiled
	byTerm    [][]int // term index -> single-term entries
	combos    []int   // entries spanning several terms
	termCount int
}

// Compile compiles every pattern of set. termCount is the number of query terms.
func Compile(set *Set, termCount int) (*Matcher, error) {
	m := &Matcher{
		entries:   make([]compiled, 0, set.Len()),
		byTerm:    make([][]int, termCount),
		termCount: termCount,
	}

	for _, p := range set.patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, errors.NewUnsupportedPatternError(p.Expr, err)
		}
		idx := len(m.entries)
		m.entries = append(m.entries, compiled{re: re, pattern: p})

		if p.IsCombination() {
			m.combos = append(m.combos, idx)
			continue
		}
		for _, t := range p.Terms {
			if t >= 0 && t < termCount {
				m.byTerm[t] = append(m.byTerm[t], idx)
			}
		}
	}
	return m, nil
}

// verify compiles every pattern and checks that it matches its own literal
func verify(set *Set) error {
	for _, p := range set.patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return errors.NewUnsupportedPatternError(p.Expr, err)
		}
		if !re.MatchString(p.Literal) {
			return errors.NewUnsupportedPatternError(p.Expr, fmt.Errorf("pattern does not match its origin text %q", p.Literal))
		}
	}
	return nil
}

// Len returns the number of compiled patterns
func (m *Matcher) Len() int {
	return len(m.entries)
}

// Match finds every occurrence in content. Spans from all single-term
// patterns of one term are merged, so counts[t] is the number of distinct
// occurrences of term t however many variants hit it. Combination matches are
// returned as extra spans carrying several terms and do not add to counts.
// Spans are sorted by Start then End.
func (m *Matcher) Match(content []byte) (spans []Span, counts []int) {
	counts = make([]int, m.termCount)

	for t, idxs := range m.byTerm {
		var intervals [][2]int
		for _, idx := range idxs {
			for _, loc := range m.entries[idx].re.FindAllIndex(content, -1) {
				if loc[1] > loc[0] {
					intervals = append(intervals, [2]int{loc[0], loc[1]})
				}
			}
		}
		for _, iv := range mergeIntervals(intervals) {
			spans = append(spans, Span{Start: iv[0], End: iv[1], Terms: []int{t}})
			counts[t]++
		}
	}

	seen := make(map[[2]int]bool)
	for _, idx := range m.combos {
		e := m.entries[idx]
		for _, loc := range e.re.FindAllIndex(content, -1) {
			key := [2]int{loc[0], loc[1]}
			if loc[1] <= loc[0] || seen[key] {
				continue
			}
			seen[key] = true
			spans = append(spans, Span{Start: loc[0], End: loc[1], Terms: append([]int(nil), e.pattern.Terms...)})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		if spans[i].End != spans[j].End {
			return spans[i].End < spans[j].End
		}
		return len(spans[i].Terms) < len(spans[j].Terms)
	})
	return spans, counts
}

// Counts returns only the per-term occurrence counts for text
func (m *Matcher) Counts(text string) []int {
	_, counts := m.Match([]byte(text))
	return counts
}

// mergeIntervals merges overlapping [start,end) intervals. Touching intervals stay separate.
func mergeIntervals(in [][2]int) [][2]int {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i][0] != in[j][0] {
			return in[i][0] < in[j][0]
		}
		return in[i][1] < in[j][1]
	})

	out := [][2]int{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if iv[0] < last[1] {
			if iv[1] > last[1] {
				last[1] = iv[1]
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
