package pattern

import (
	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/probe/internal/types"
)

// Set is an insertion-ordered collection of patterns with no two identical
// expressions. It is built once per query and only read afterwards.
type Set struct {
	patterns []types.Pattern
	index    map[uint64][]int // xxhash of Expr -> positions in patterns
}

// NewSet creates an empty set
func NewSet() *Set {
	return &Set{index: make(map[uint64][]int)}
}

// Add appends p unless a pattern with the same expression is present.
// It reports whether p was added.
func (s *Set) Add(p types.Pattern) bool {
	key := xxhash.Sum64String(p.Expr)
	for _, i := range s.index[key] {
		if s.patterns[i].Expr == p.Expr {
			return false
		}
	}
	s.index[key] = append(s.index[key], len(s.patterns))
	s.patterns = append(s.patterns, p)
	return true
}

// Contains reports whether an expression is already in the set
func (s *Set) Contains(expr string) bool {
	for _, i := range s.index[xxhash.Sum64String(expr)] {
		if s.patterns[i].Expr == expr {
			return true
		}
	}
	return false
}

// Len returns the number of patterns
func (s *Set) Len() int {
	return len(s.patterns)
}

// Patterns returns a copy of the patterns in insertion order
func (s *Set) Patterns() []types.Pattern {
	out := make([]types.Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Expressions returns the expression text of every pattern in order
func (s *Set) Expressions() []string {
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.Expr
	}
	return out
}

// ForTerm returns the patterns that originate from term index i
func (s *Set) ForTerm(i int) []types.Pattern {
	var out []types.Pattern
	for _, p := range s.patterns {
		for _, t := range p.Terms {
			if t == i {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
