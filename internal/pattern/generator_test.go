package pattern

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/probe/internal/query"
	"github.com/standardbeagle/probe/internal/types"
)

func mustQuery(t *testing.T, raw string, mode types.MatchMode, exact bool) types.Query {
	t.Helper()
	q, err := query.NewProcessor(query.Options{}).Process(raw, mode, exact)
	require.NoError(t, err)
	return q
}

func TestBoundaryVariants(t *testing.T) {
	q := mustQuery(t, "token", types.MatchAny, false)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	assert.Equal(t, []string{`(?i)\btoken`, `(?i)token\b`, `(?i)token`}, set.Expressions())
	ps := set.Patterns()
	assert.Equal(t, types.BoundaryStart, ps[0].Boundary)
	assert.Equal(t, types.BoundaryEnd, ps[1].Boundary)
	assert.Equal(t, types.BoundaryNone, ps[2].Boundary)
}

func TestStemAddsUnanchoredPattern(t *testing.T) {
	q := mustQuery(t, "running", types.MatchAny, false)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	assert.True(t, set.Contains("(?i)run"))
	assert.Equal(t, 4, set.Len())
}

func TestEveryPatternMatchesItsOriginTerm(t *testing.T) {
	queries := []struct {
		raw   string
		mode  types.MatchMode
		exact bool
	}{
		{"user Auth", types.MatchAll, false},
		{"parse config file loader", types.MatchAll, false},
		{"running connections happy", types.MatchAny, false},
		{"C++ operator[] a.b*c", types.MatchAny, true},
		{"(?i) [x] $y ^z", types.MatchAny, true},
		{"naïve café", types.MatchAll, false},
	}

	for _, tc := range queries {
		t.Run(tc.raw, func(t *testing.T) {
			q := mustQuery(t, tc.raw, tc.mode, tc.exact)
			set, err := NewGenerator().Generate(q)
			require.NoError(t, err)

			for _, p := range set.Patterns() {
				re := regexp.MustCompile(p.Expr)
				for _, ti := range p.Terms {
					text := q.Terms[ti].Original
					if !tc.exact {
						text = strings.ToLower(text)
					}
					if p.IsCombination() {
						text = p.Literal
					}
					assert.True(t, re.MatchString(text), "pattern %q must match %q", p.Expr, text)
				}
			}
		})
	}
}

func TestGenerationIsIdempotent(t *testing.T) {
	q := mustQuery(t, "user auth token", types.MatchAll, false)

	first, err := NewGenerator().Generate(q)
	require.NoError(t, err)
	second, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	assert.Equal(t, first.Expressions(), second.Expressions())

	seen := make(map[string]bool)
	for _, e := range first.Expressions() {
		assert.False(t, seen[e], "duplicate expression %q", e)
		seen[e] = true
	}
}

func TestCombinationPatterns(t *testing.T) {
	q := mustQuery(t, "user Auth", types.MatchAll, false)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	require.True(t, set.Contains(`(?i)user[^[:alnum:]\r\n]{0,3}auth`))
	require.True(t, set.Contains(`(?i)auth[^[:alnum:]\r\n]{0,3}user`))

	re := regexp.MustCompile(`(?i)user[^[:alnum:]\r\n]{0,3}auth`)
	for _, ident := range []string{"userAuthenticate", "user_auth", "USER-AUTH", "user.auth", "user::auth"} {
		assert.True(t, re.MatchString(ident), ident)
	}
	for _, text := range []string{"user\nauth", "user\r\nauth", "user  ::  auth"} {
		assert.False(t, re.MatchString(text), "%q", text)
	}
}

func TestCombinationsOnlyInAllMode(t *testing.T) {
	q := mustQuery(t, "user auth", types.MatchAny, false)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	for _, p := range set.Patterns() {
		assert.False(t, p.IsCombination(), p.Expr)
	}
}

func TestSequenceCombination(t *testing.T) {
	q := mustQuery(t, "get user name", types.MatchAll, false)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	assert.True(t, set.Contains(`(?i)get[^[:alnum:]\r\n]{0,3}user[^[:alnum:]\r\n]{0,3}name`))
	// 3 terms x 3 variants + 6 ordered pairs + 1 sequence
	assert.Equal(t, 9+6+1, set.Len())
}

func TestCombinationTermCap(t *testing.T) {
	q := mustQuery(t, "alpha bravo charlie delta", types.MatchAll, false)

	g := &Generator{MaxCombinationTerms: 2}
	set, err := g.Generate(q)
	require.NoError(t, err)

	for _, p := range set.Patterns() {
		for _, ti := range p.Terms {
			if p.IsCombination() {
				assert.Less(t, ti, 2)
			}
		}
	}
}

func TestExactMode(t *testing.T) {
	q := mustQuery(t, "ParseConfig the", types.MatchAll, true)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	assert.Equal(t, []string{`\bParseConfig\b`, `\bthe\b`}, set.Expressions())
	for _, p := range set.Patterns() {
		assert.True(t, p.CaseSensitive)
		assert.Equal(t, types.BoundaryWhole, p.Boundary)
	}

	re := regexp.MustCompile(set.Expressions()[0])
	assert.False(t, re.MatchString("parseconfig"))
	assert.False(t, re.MatchString("ParseConfigFile"))
}

func TestMetacharactersAreEscaped(t *testing.T) {
	q := mustQuery(t, "a.b (x)", types.MatchAny, true)

	set, err := NewGenerator().Generate(q)
	require.NoError(t, err)

	assert.Equal(t, []string{`\ba\.b\b`, `\(x\)`}, set.Expressions())
}
