package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	probeerrors "github.com/standardbeagle/probe/internal/errors"
)

// maxConfigFileSize bounds index.max_file_size
const maxConfigFileSize = 1024 * 1024 * 1024

// Validator checks configuration values
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a ConfigError naming the first invalid field
func (v *Validator) Validate(cfg *Config) error {
	if cfg == nil {
		return probeerrors.NewConfigError("config", "nil", errors.New("configuration is nil"))
	}
	if err := v.ValidateSearch(&cfg.Search); err != nil {
		return err
	}
	if err := v.ValidateRanking(&cfg.Ranking); err != nil {
		return err
	}
	if err := v.validateTerms(&cfg.Terms); err != nil {
		return err
	}
	if err := v.validateIndex(&cfg.Index); err != nil {
		return err
	}
	if err := v.validateGlobs("include", cfg.Include); err != nil {
		return err
	}
	if err := v.validateGlobs("exclude", cfg.Exclude); err != nil {
		return err
	}
	for _, ext := range cfg.Extensions {
		if strings.TrimLeft(strings.TrimSpace(ext), ".") == "" {
			return probeerrors.NewConfigError("extensions", ext, errors.New("extension cannot be empty"))
		}
	}
	return nil
}

// ValidateSearch checks the search section
func (v *Validator) ValidateSearch(s *Search) error {
	if s.MaxResults < 0 {
		return fieldError("search.max_results", s.MaxResults, "must not be negative")
	}
	if s.ContextLines < 0 || s.ContextLines > 1000 {
		return fieldError("search.context_lines", s.ContextLines, "must be between 0 and 1000")
	}
	if s.WholeFileThreshold <= 0 || s.WholeFileThreshold > 1 {
		return fieldError("search.whole_file_threshold", s.WholeFileThreshold, "must be in (0, 1]")
	}
	if s.MaxFiles < 0 {
		return fieldError("search.max_files", s.MaxFiles, "must not be negative")
	}
	return nil
}

// ValidateRanking checks the ranking section
func (v *Validator) ValidateRanking(r *Ranking) error {
	if r.K1 < 0 {
		return fieldError("ranking.k1", r.K1, "must not be negative")
	}
	if r.B < 0 || r.B > 1 {
		return fieldError("ranking.b", r.B, "must be between 0 and 1")
	}
	if r.TFIDFWeight < 0 {
		return fieldError("ranking.tfidf_weight", r.TFIDFWeight, "must not be negative")
	}
	if r.BM25Weight < 0 {
		return fieldError("ranking.bm25_weight", r.BM25Weight, "must not be negative")
	}
	if r.TFIDFWeight == 0 && r.BM25Weight == 0 {
		return fieldError("ranking", "0", "tfidf_weight and bm25_weight cannot both be zero")
	}
	if r.FilenameBoost < 0 {
		return fieldError("ranking.filename_boost", r.FilenameBoost, "must not be negative")
	}
	return nil
}

func (v *Validator) validateTerms(t *Terms) error {
	if t.MinStemLength < 0 {
		return fieldError("terms.min_stem_length", t.MinStemLength, "must not be negative")
	}
	return nil
}

func (v *Validator) validateIndex(idx *Index) error {
	if idx.MaxFileSize <= 0 {
		return fieldError("index.max_file_size", idx.MaxFileSize, "must be positive")
	}
	if idx.MaxFileSize > maxConfigFileSize {
		return fieldError("index.max_file_size", idx.MaxFileSize, "should not exceed 1GB")
	}
	if idx.Workers < 0 {
		return fieldError("index.workers", idx.Workers, "must not be negative")
	}
	return nil
}

func (v *Validator) validateGlobs(field string, patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return probeerrors.NewConfigError(field, p, errors.New("invalid glob pattern"))
		}
	}
	return nil
}

func fieldError(field string, value any, msg string) error {
	return probeerrors.NewConfigError(field, fmt.Sprint(value), errors.New(msg))
}
