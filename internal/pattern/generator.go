package pattern

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/types"
)

const (
	// DefaultMaxCombinationTerms caps how many leading terms take part in combination patterns
	DefaultMaxCombinationTerms = 6

	caseInsensitive = "(?i)"
	wordBoundary    = `\b`
	// joiner allows a short separator run between combined terms on the same
	// line: user_auth, user-auth, user::auth, userAuth
	joiner = `[^[:alnum:]\r\n]{0,3}`
)

// Generator builds the pattern set for a query
type Generator struct {
	MaxCombinationTerms int
}

// NewGenerator creates a generator with default limits
func NewGenerator() *Generator {
	return &Generator{MaxCombinationTerms: DefaultMaxCombinationTerms}
}

// Generate builds the deduplicated pattern set for q. Every pattern is
// verified to compile and to match its own Literal.
func (g *Generator) Generate(q types.Query) (*Set, error) {
	set := NewSet()

	if q.Exact {
		for i, t := range q.Terms {
			set.Add(exactPattern(i, t.Original))
		}
	} else {
		for i, t := range q.Terms {
			for _, p := range boundaryVariants(i, t.Original) {
				set.Add(p)
			}
			if t.HasStem() {
				set.Add(types.Pattern{
					Expr:     caseInsensitive + regexp.QuoteMeta(t.Stemmed),
					Terms:    []int{i},
					Boundary: types.BoundaryNone,
					Literal:  t.Stemmed,
				})
			}
		}
		if q.Mode == types.MatchAll && len(q.Terms) > 1 {
			g.addCombinations(set, q.Terms)
		}
	}

	if err := verify(set); err != nil {
		return nil, err
	}

	debug.LogQuery("generated %d patterns for %d terms", set.Len(), len(q.Terms))
	return set, nil
}

// boundaryVariants returns the start-anchored, end-anchored and unanchored
// forms of text. A \b is only placed on an edge that is a word character.
func boundaryVariants(term int, text string) []types.Pattern {
	quoted := regexp.QuoteMeta(text)
	startEdge, endEdge := wordEdges(text)

	start := quoted
	if startEdge {
		start = wordBoundary + quoted
	}
	end := quoted
	if endEdge {
		end = quoted + wordBoundary
	}

	return []types.Pattern{
		{Expr: caseInsensitive + start, Terms: []int{term}, Boundary: types.BoundaryStart, Literal: text},
		{Expr: caseInsensitive + end, Terms: []int{term}, Boundary: types.BoundaryEnd, Literal: text},
		{Expr: caseInsensitive + quoted, Terms: []int{term}, Boundary: types.BoundaryNone, Literal: text},
	}
}

func exactPattern(term int, text string) types.Pattern {
	expr := regexp.QuoteMeta(text)
	startEdge, endEdge := wordEdges(text)
	if startEdge {
		expr = wordBoundary + expr
	}
	if endEdge {
		expr += wordBoundary
	}
	return types.Pattern{
		Expr:          expr,
		Terms:         []int{term},
		Boundary:      types.BoundaryWhole,
		Literal:       text,
		CaseSensitive: true,
	}
}

// addCombinations adds ordered pairs in both orders and, for three or more
// terms, the full in-order sequence.
func (g *Generator) addCombinations(set *Set, terms []types.Term) {
	limit := g.MaxCombinationTerms
	if limit <= 0 {
		limit = DefaultMaxCombinationTerms
	}
	n := len(terms)
	if n > limit {
		n = limit
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			set.Add(combination([]int{i, j}, terms))
		}
	}

	if n >= 3 {
		seq := make([]int, n)
		for i := range seq {
			seq[i] = i
		}
		set.Add(combination(seq, terms))
	}
}

func combination(order []int, terms []types.Term) types.Pattern {
	parts := make([]string, len(order))
	var literal strings.Builder
	for k, idx := range order {
		parts[k] = regexp.QuoteMeta(terms[idx].Original)
		literal.WriteString(terms[idx].Original)
	}
	return types.Pattern{
		Expr:     caseInsensitive + strings.Join(parts, joiner),
		Terms:    append([]int(nil), order...),
		Boundary: types.BoundaryNone,
		Literal:  literal.String(),
	}
}

// wordEdges reports whether text starts and ends with a word character as \b sees it
func wordEdges(text string) (start, end bool) {
	if text == "" {
		return false, false
	}
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	return isASCIIWord(first), isASCIIWord(last)
}

// isASCIIWord mirrors RE2's \b, which only treats ASCII [0-9A-Za-z_] as word characters
func isASCIIWord(r rune) bool {
	return r < utf8.RuneSelf && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
