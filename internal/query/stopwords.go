package query

import "strings"

// defaultStopwords are low-signal words dropped from natural-language queries
var defaultStopwords = []string{
	// Articles
	"a", "an", "the",
	// Prepositions
	"in", "on", "at", "to", "for", "of", "with", "by", "from", "as", "into", "about",
	// Conjunctions
	"and", "or", "but", "nor", "so",
	// Pronouns
	"i", "me", "my", "we", "our", "you", "your", "it", "its", "this", "that", "these", "those",
	// Common verbs
	"is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "can", "could", "should", "would", "will",
	// Question words (usually not useful for code search)
	"how", "what", "where", "when", "why", "which", "who",
	// Search filler
	"find", "show", "all", "some", "any",
}

// DefaultStopwords returns a fresh copy of the built-in stopword list
func DefaultStopwords() []string {
	out := make([]string, len(defaultStopwords))
	copy(out, defaultStopwords)
	return out
}

// StopwordSet is an immutable, lowercase stopword lookup
type StopwordSet struct {
	words map[string]struct{}
}

// NewStopwordSet builds a set from base plus extra. A nil base selects the defaults.
func NewStopwordSet(base []string, extra ...string) *StopwordSet {
	if base == nil {
		base = defaultStopwords
	}
	words := make(map[string]struct{}, len(base)+len(extra))
	for _, w := range base {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words[w] = struct{}{}
		}
	}
	for _, w := range extra {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words[w] = struct{}{}
		}
	}
	return &StopwordSet{words: words}
}

// Contains reports whether word (any case) is a stopword
func (s *StopwordSet) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[strings.ToLower(word)]
	return ok
}

// Len returns the number of stopwords
func (s *StopwordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}
