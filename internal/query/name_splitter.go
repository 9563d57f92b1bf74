package query

import (
	"strings"
	"sync"
	"unicode"
)

// NameSplitter splits identifiers into lowercase words.
// Supports: camelCase, snake_case, kebab-case, PascalCase, SCREAMING_SNAKE_CASE, dotted.paths
//
// Thread-safe: the cache uses sync.Map with bounded FIFO eviction
type NameSplitter struct {
	cache sync.Map

	cacheKeys []string
	maxSize   int
	mu        sync.Mutex
}

// DefaultCacheSize is the number of split results kept by NewNameSplitter
const DefaultCacheSize = 1000

// NewNameSplitter creates a new name splitter with cache
func NewNameSplitter() *NameSplitter {
	return NewNameSplitterWithSize(DefaultCacheSize)
}

// NewNameSplitterWithSize creates a new name splitter with custom cache size
func NewNameSplitterWithSize(cacheSize int) *NameSplitter {
	if cacheSize < 0 {
		cacheSize = 0
	}
	return &NameSplitter{
		cacheKeys: make([]string, 0, cacheSize),
		maxSize:   cacheSize,
	}
}

// SeparatorType represents the kinds of word breaks found in a name
type SeparatorType uint8

const (
	SepNone       SeparatorType = 0
	SepExplicit   SeparatorType = 1 << iota // _ - . / and any other non-alphanumeric rune
	SepCamelCase                            // lower (or digit) followed by upper
	SepPascalCase                           // acronym run followed by a capitalized word
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// detectSeparators performs first pass to identify separator types present
func (ns *NameSplitter) detectSeparators(runes []rune) SeparatorType {
	var seps SeparatorType
	for i, ch := range runes {
		if !isWordRune(ch) {
			seps |= SepExplicit
			continue
		}
		if i == 0 {
			continue
		}
		prev := runes[i-1]
		if (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(ch) {
			seps |= SepCamelCase
		}
		if i > 1 && unicode.IsUpper(prev) && unicode.IsLower(ch) && unicode.IsUpper(runes[i-2]) {
			seps |= SepPascalCase
		}
	}
	return seps
}

// Split splits a name into constituent lowercase words.
// Digits stay attached to the word they follow: utf8Decode -> [utf8 decode].
func (ns *NameSplitter) Split(name string) []string {
	if name == "" {
		return []string{}
	}

	if cached, ok := ns.cache.Load(name); ok {
		return append([]string(nil), cached.([]string)...)
	}

	runes := []rune(name)
	seps := ns.detectSeparators(runes)
	if seps == SepNone {
		return []string{strings.ToLower(name)}
	}

	wordBuffer := make([]rune, 0, 64)
	words := make([]string, 0, 8)
	flush := func() {
		if len(wordBuffer) > 0 {
			words = append(words, strings.ToLower(string(wordBuffer)))
			wordBuffer = wordBuffer[:0]
		}
	}

	for i, ch := range runes {
		if !isWordRune(ch) {
			flush()
			continue
		}

		if i > 0 && seps&(SepCamelCase|SepPascalCase) != 0 {
			prev := runes[i-1]

			if (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(ch) {
				flush()
			}

			// HTTPServer -> HTTP Server: the last upper of an acronym run starts the next word
			if i > 1 && unicode.IsUpper(prev) && unicode.IsLower(ch) && unicode.IsUpper(runes[i-2]) {
				if len(wordBuffer) > 1 {
					last := wordBuffer[len(wordBuffer)-1]
					wordBuffer = wordBuffer[:len(wordBuffer)-1]
					flush()
					wordBuffer = append(wordBuffer, last)
				}
			}
		}

		wordBuffer = append(wordBuffer, ch)
	}
	flush()

	ns.store(name, words)
	return words
}

// store caches a split result, evicting the oldest entry when full
func (ns *NameSplitter) store(name string, words []string) {
	if ns.maxSize == 0 {
		return
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if len(ns.cacheKeys) >= ns.maxSize {
		oldest := ns.cacheKeys[0]
		ns.cache.Delete(oldest)
		ns.cacheKeys = ns.cacheKeys[1:]
	}

	ns.cache.Store(name, append([]string(nil), words...))
	ns.cacheKeys = append(ns.cacheKeys, name)
}
