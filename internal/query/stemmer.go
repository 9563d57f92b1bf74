package query

import (
	"strings"
	"unicode/utf8"

	"github.com/surgebase/porter2"
)

// DefaultMinStemLength is the shortest word the stemmer will touch
const DefaultMinStemLength = 3

// defaultStemExclusions are code vocabulary words whose stems would hurt matching
var defaultStemExclusions = []string{
	"api", "http", "https", "url", "uri", "json", "xml", "yaml", "toml", "sql",
	"id", "db", "io", "os", "ui", "cli", "tls", "ssl", "jwt", "uuid", "utf",
	"class", "this", "args", "params", "status", "alias", "process", "access",
}

// DefaultStemExclusions returns a fresh copy of the built-in exclusion list
func DefaultStemExclusions() []string {
	out := make([]string, len(defaultStemExclusions))
	copy(out, defaultStemExclusions)
	return out
}

// Stemmer provides word normalization through porter2 stemming.
// Enables finding similar words in different forms (authenticate, authentication, authenticating)
type Stemmer struct {
	enabled    bool
	minLength  int
	exclusions map[string]bool // Words to never stem
}

// NewStemmer creates a new stemmer. A nil exclusions slice selects the defaults.
func NewStemmer(enabled bool, minLength int, exclusions []string) *Stemmer {
	if minLength <= 0 {
		minLength = DefaultMinStemLength
	}
	if exclusions == nil {
		exclusions = defaultStemExclusions
	}

	excl := make(map[string]bool, len(exclusions))
	for _, w := range exclusions {
		excl[strings.ToLower(w)] = true
	}

	return &Stemmer{
		enabled:    enabled,
		minLength:  minLength,
		exclusions: excl,
	}
}

// IsEnabled checks if stemming is enabled
func (s *Stemmer) IsEnabled() bool {
	return s.enabled
}

// IsExcluded checks if a word is in the exclusion list
func (s *Stemmer) IsExcluded(word string) bool {
	return s.exclusions[strings.ToLower(word)]
}

// Stem returns the stem of a lowercase word, or the word itself when stemming
// is disabled, the word is excluded or too short. porter2 is an English
// stemmer, so words with non-ASCII runes are returned unchanged.
func (s *Stemmer) Stem(word string) string {
	if !s.enabled || s.exclusions[word] || len(word) < s.minLength || !isASCII(word) {
		return word
	}
	return porter2.Stem(word)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// MatchableStem returns the stem only when it is a proper prefix of word, so a
// pattern built from it still matches the word. Otherwise it returns word.
// porter2 rewrites some suffixes (happy -> happi); those stems are dropped.
func (s *Stemmer) MatchableStem(word string) string {
	stem := s.Stem(word)
	if stem == "" || stem == word || !strings.HasPrefix(word, stem) {
		return word
	}
	return stem
}
