package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/types"
)

// ConfigFileName is looked up in the home directory and in the search root
const ConfigFileName = ".probe.kdl"

type Config struct {
	Version    int
	Project    Project
	Search     Search
	Ranking    Ranking
	Terms      Terms
	Index      Index
	Include    []string
	Exclude    []string
	Extensions []string // allow-list; empty means every text file
}

type Project struct {
	Root string
}

type Search struct {
	MatchMode              types.MatchMode
	MaxResults             int     // 0 = unlimited
	ContextLines           int     // line radius for the heuristic fallback
	WholeFileThreshold     float64 // covered-line ratio that turns a file into one block
	MaxFiles               int     // matched-file cap, 0 = unlimited
	Exact                  bool
	IncludeLeadingComments bool
}

type Ranking struct {
	K1            float64
	B             float64
	TFIDFWeight   float64
	BM25Weight    float64
	FilenameBoost float64
}

type Terms struct {
	Stopwords       []string // nil keeps the built-in list
	ExtraStopwords  []string
	MinStemLength   int
	StemExclusions  []string // nil keeps the built-in list
	DisableStemming bool
}

type Index struct {
	MaxFileSize          int64
	RespectGitignore     bool // Process .gitignore files for additional exclusions
	Workers              int  // 0 = auto-detect (NumCPU)
	DetectBuildArtifacts bool // add build output directories from Cargo.toml, package.json, ...
	DefaultExcludes      bool // start from the built-in exclusion list
	FollowSymlinks       bool
}

// Default returns the built-in configuration rooted at root
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Search: Search{
			MatchMode:              types.MatchAll,
			MaxResults:             types.DefaultMaxResults,
			ContextLines:           types.DefaultContextLines,
			WholeFileThreshold:     types.DefaultWholeFileThreshold,
			IncludeLeadingComments: true,
		},
		Ranking: Ranking{
			K1:            types.DefaultK1,
			B:             types.DefaultB,
			TFIDFWeight:   types.DefaultTFIDFWeight,
			BM25Weight:    types.DefaultBM25Weight,
			FilenameBoost: types.DefaultFilenameBoost,
		},
		Index: Index{
			MaxFileSize:          types.DefaultMaxFileSize,
			RespectGitignore:     true,
			DetectBuildArtifacts: true,
			DefaultExcludes:      true,
		},
		Include: []string{},
		Exclude: DefaultExclusions(),
	}
}

// Load builds the configuration for a search rooted at root: built-in
// defaults, then ~/.probe.kdl, then <root>/.probe.kdl. Later files override
// scalar settings; exclusion lists accumulate.
func Load(root string) (*Config, error) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	cfg := Default(absRoot)

	if homeDir, err := os.UserHomeDir(); err == nil && filepath.Clean(homeDir) != absRoot {
		loaded, err := LoadKDLInto(cfg, homeDir)
		if err != nil {
			return nil, err
		}
		if loaded {
			debug.Log("CONFIG", "loaded global config from %s", homeDir)
		}
	}

	loaded, err := LoadKDLInto(cfg, absRoot)
	if err != nil {
		return nil, err
	}
	if loaded {
		debug.Log("CONFIG", "loaded project config from %s", absRoot)
	}

	cfg.finalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize applies settings that depend on the merged configuration
func (c *Config) finalize() {
	if !c.Index.DefaultExcludes {
		c.Exclude = withoutDefaults(c.Exclude)
	}
	if c.Index.DetectBuildArtifacts {
		c.EnrichExclusionsWithBuildArtifacts()
	}
	c.Exclude = DeduplicatePatterns(c.Exclude)
	c.Include = DeduplicatePatterns(c.Include)
}

// Validate checks every setting against its allowed range
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

// EnrichExclusionsWithBuildArtifacts detects build output directories from language configs
// and adds them to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// DefaultExclusions returns the built-in exclusion globs
func DefaultExclusions() []string {
	return []string{
		// Version control metadata
		"**/.git/**",
		"**/.hg/**",
		"**/.svn/**",

		// Package managers & dependencies
		"**/node_modules/**",
		"**/bower_components/**",
		"**/jspm_packages/**",
		"**/.venv/**",
		"**/__pycache__/**",

		// Build artifacts & output
		"**/dist/**",
		"**/target/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/*.map",

		// Lock files
		"**/package-lock.json",
		"**/yarn.lock",
		"**/pnpm-lock.yaml",
		"**/Cargo.lock",
		"**/go.sum",
	}
}

func withoutDefaults(patterns []string) []string {
	defaults := make(map[string]bool)
	for _, p := range DefaultExclusions() {
		defaults[p] = true
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !defaults[p] {
			out = append(out, p)
		}
	}
	return out
}
