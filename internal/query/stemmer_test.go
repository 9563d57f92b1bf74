package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStemDisabled(t *testing.T) {
	stemmer := NewStemmer(false, 3, nil)

	assert.False(t, stemmer.IsEnabled())
	assert.Equal(t, "running", stemmer.Stem("running"))
	assert.Equal(t, "running", stemmer.MatchableStem("running"))
}

func TestStemExcluded(t *testing.T) {
	stemmer := NewStemmer(true, 3, []string{"api", "status"})

	assert.True(t, stemmer.IsExcluded("API"))
	assert.Equal(t, "status", stemmer.Stem("status"))
	assert.NotEqual(t, "running", stemmer.Stem("running"))
}

func TestStemMinLength(t *testing.T) {
	stemmer := NewStemmer(true, 5, []string{})

	assert.Equal(t, "runs", stemmer.Stem("runs"))
	assert.Equal(t, "connect", stemmer.Stem("connections"))
}

func TestMatchableStemIsPrefix(t *testing.T) {
	stemmer := NewStemmer(true, DefaultMinStemLength, nil)

	words := []string{"running", "authentication", "happy", "connections", "parsing", "users", "id", "tokenizer"}
	for _, w := range words {
		stem := stemmer.MatchableStem(w)
		assert.True(t, strings.HasPrefix(w, stem), "stem %q of %q must be a prefix", stem, w)
		assert.NotEmpty(t, stem)
	}

	assert.Equal(t, "run", stemmer.MatchableStem("running"))
	assert.Equal(t, "happy", stemmer.MatchableStem("happy"), "happi is not a prefix of happy")
}
