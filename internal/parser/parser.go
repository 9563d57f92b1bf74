package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/probe/internal/debug"
)

// ErrNoGrammar is returned by the grammar of files whose language is not supported
var ErrNoGrammar = errors.New("no grammar available")

// LanguageKind is the closed set of languages the registry knows about
type LanguageKind uint8

const (
	LanguageNone LanguageKind = iota // no grammar: line heuristics only
	LanguageGo
	LanguagePython
	LanguageJavaScript
	LanguageTypeScript
	LanguageTSX
	LanguageRust
	LanguageJava
	LanguageCpp
	LanguageCSharp
	LanguagePHP
	LanguageZig
)

// Grammar parses source for one language. The zero LanguageKind variant
// reports Available() == false and always fails with ErrNoGrammar.
// Implementations are safe for concurrent use.
type Grammar interface {
	Kind() LanguageKind
	Name() string
	Available() bool
	// Parse returns a syntax tree the caller must Close
	Parse(content []byte) (*tree_sitter.Tree, error)
	Units() *UnitTable
}

// LanguageInfo describes one supported language
type LanguageInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// languageDef is the static description of a language variant
type languageDef struct {
	kind       LanguageKind
	name       string
	extensions []string
	language   func() unsafe.Pointer
	units      *UnitTable
}

// treeSitterGrammar parses with pooled tree-sitter parsers.
// Each language has its own pool to prevent contention.
type treeSitterGrammar struct {
	def  *languageDef
	lang *tree_sitter.Language
	pool sync.Pool
}

func newTreeSitterGrammar(def *languageDef) *treeSitterGrammar {
	g := &treeSitterGrammar{def: def}
	g.lang = tree_sitter.NewLanguage(def.language())
	g.pool.New = func() any {
		p := tree_sitter.NewParser()
		if err := p.SetLanguage(g.lang); err != nil {
			debug.LogExtract("cannot load %s grammar: %v", def.name, err)
			p.Close()
			return nil
		}
		return p
	}
	return g
}

func (g *treeSitterGrammar) Kind() LanguageKind { return g.def.kind }
func (g *treeSitterGrammar) Name() string       { return g.def.name }
func (g *treeSitterGrammar) Available() bool    { return true }
func (g *treeSitterGrammar) Units() *UnitTable  { return g.def.units }

// Parse parses content. Panics inside the grammar are recovered and returned as errors.
func (g *treeSitterGrammar) Parse(content []byte) (tree *tree_sitter.Tree, err error) {
	p, _ := g.pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("%s parser unavailable", g.def.name)
	}

	defer func() {
		if r := recover(); r != nil {
			// a parser that panicked is not returned to the pool
			tree = nil
			err = fmt.Errorf("tree-sitter panic: %v", r)
			return
		}
		g.pool.Put(p)
	}()

	// Tree-sitter may mutate the input buffer via CGO; parse a copy so
	// callers can keep sharing content between workers.
	buf := make([]byte, len(content))
	copy(buf, content)

	tree = p.Parse(buf, nil)
	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", g.def.name)
	}
	return tree, nil
}

// noGrammar is the variant for unsupported file types
type noGrammar struct{}

func (noGrammar) Kind() LanguageKind { return LanguageNone }
func (noGrammar) Name() string       { return "none" }
func (noGrammar) Available() bool    { return false }
func (noGrammar) Units() *UnitTable  { return emptyUnits }
func (noGrammar) Parse([]byte) (*tree_sitter.Tree, error) {
	return nil, ErrNoGrammar
}

// Registry maps file extensions to grammars. It is immutable after
// construction and shared by every extraction worker.
type Registry struct {
	byKind map[LanguageKind]Grammar
	byExt  map[string]LanguageKind
	defs   []*languageDef
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry with every built-in language
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry builds a registry with every built-in language. Grammars for
// the given kinds are left out, which routes their files to line heuristics.
func NewRegistry(disabled ...LanguageKind) *Registry {
	off := make(map[LanguageKind]bool, len(disabled))
	for _, k := range disabled {
		off[k] = true
	}

	r := &Registry{
		byKind: make(map[LanguageKind]Grammar),
		byExt:  make(map[string]LanguageKind),
	}
	for _, def := range builtinDefs {
		if off[def.kind] {
			continue
		}
		r.defs = append(r.defs, def)
		r.byKind[def.kind] = newTreeSitterGrammar(def)
		for _, ext := range def.extensions {
			r.byExt[ext] = def.kind
		}
	}
	return r
}

// KindForPath infers the language of path from its extension
func (r *Registry) KindForPath(path string) LanguageKind {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return LanguageNone
	}
	return r.byExt[ext]
}

// ForPath returns the grammar for path, or the no-grammar variant
func (r *Registry) ForPath(path string) Grammar {
	return r.ForKind(r.KindForPath(path))
}

// ForKind returns the grammar for kind, or the no-grammar variant
func (r *Registry) ForKind(kind LanguageKind) Grammar {
	if g, ok := r.byKind[kind]; ok {
		return g
	}
	return noGrammar{}
}

// Languages describes the supported languages in a stable order
func (r *Registry) Languages() []LanguageInfo {
	out := make([]LanguageInfo, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, LanguageInfo{
			Name:       def.name,
			Extensions: append([]string(nil), def.extensions...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// String returns the language name
func (k LanguageKind) String() string {
	for _, def := range builtinDefs {
		if def.kind == k {
			return def.name
		}
	}
	return "none"
}
