package query

import (
	"strings"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/types"
)

// RequiredPrefix marks a raw query token as explicitly required
const RequiredPrefix = "+"

// Options configures a Processor
type Options struct {
	Stopwords       []string // nil selects DefaultStopwords
	ExtraStopwords  []string
	MinStemLength   int
	StemExclusions  []string // nil selects DefaultStemExclusions
	DisableStemming bool
}

// Processor turns raw query text into an ordered, deduplicated term set.
// It holds no per-query state and is safe for concurrent use.
type Processor struct {
	stopwords *StopwordSet
	stemmer   *Stemmer
	splitter  *NameSplitter
}

// NewProcessor builds a processor from options
func NewProcessor(opts Options) *Processor {
	return &Processor{
		stopwords: NewStopwordSet(opts.Stopwords, opts.ExtraStopwords...),
		stemmer:   NewStemmer(!opts.DisableStemming, opts.MinStemLength, opts.StemExclusions),
		splitter:  NewNameSplitter(),
	}
}

// candidate is a token before stopword filtering
type candidate struct {
	text     string
	explicit bool
}

// Process normalizes raw into a Query. It fails with an EmptyQuery error only
// when raw contains no tokens at all; a query made entirely of stopwords falls
// back to the unfiltered token set.
func (p *Processor) Process(raw string, mode types.MatchMode, exact bool) (types.Query, error) {
	q := types.Query{Raw: raw, Mode: mode, Exact: exact}

	var cands []candidate
	if exact {
		cands = p.exactTokens(raw)
	} else {
		cands = p.tokens(raw)
	}
	if len(cands) == 0 {
		return q, errors.NewEmptyQueryError(raw)
	}

	selected := cands
	if !exact {
		kept := make([]candidate, 0, len(cands))
		for _, c := range cands {
			if !p.stopwords.Contains(c.text) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			q.FellBack = true
			debug.LogQuery("all %d terms of %q are stopwords, using unfiltered set", len(cands), raw)
		} else {
			selected = kept
		}
	}

	anyExplicit := false
	for _, c := range selected {
		if c.explicit {
			anyExplicit = true
			break
		}
	}

	q.Terms = make([]types.Term, 0, len(selected))
	for _, c := range selected {
		t := types.Term{
			Original: c.text,
			Stemmed:  c.text,
			Stopword: p.stopwords.Contains(c.text),
			Required: !anyExplicit || c.explicit,
		}
		if !exact {
			t.Stemmed = p.stemmer.MatchableStem(c.text)
		}
		q.Terms = append(q.Terms, t)
	}

	debug.LogQuery("processed %q into %d terms (mode=%s exact=%t)", raw, len(q.Terms), mode, exact)
	return q, nil
}

// tokens splits on whitespace, non-alphanumeric runs and identifier case
// transitions, lowercasing and deduplicating in first-seen order.
func (p *Processor) tokens(raw string) []candidate {
	var out []candidate
	index := make(map[string]int)

	for _, field := range strings.Fields(raw) {
		explicit := strings.HasPrefix(field, RequiredPrefix)
		field = strings.TrimLeft(field, RequiredPrefix)

		for _, word := range p.splitter.Split(field) {
			if word == "" {
				continue
			}
			if i, ok := index[word]; ok {
				out[i].explicit = out[i].explicit || explicit
				continue
			}
			index[word] = len(out)
			out = append(out, candidate{text: word, explicit: explicit})
		}
	}
	return out
}

// exactTokens splits on whitespace only and keeps case
func (p *Processor) exactTokens(raw string) []candidate {
	var out []candidate
	index := make(map[string]int)

	for _, field := range strings.Fields(raw) {
		explicit := strings.HasPrefix(field, RequiredPrefix) && len(field) > len(RequiredPrefix)
		if explicit {
			field = field[len(RequiredPrefix):]
		}
		if i, ok := index[field]; ok {
			out[i].explicit = out[i].explicit || explicit
			continue
		}
		index[field] = len(out)
		out = append(out, candidate{text: field, explicit: explicit})
	}
	return out
}

// Stopwords exposes the processor's stopword set
func (p *Processor) Stopwords() *StopwordSet {
	return p.stopwords
}
