package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/types"
)

// LoadKDLInto applies dir/.probe.kdl on top of cfg. It reports whether a
// file was found. A missing file is not an error.
func LoadKDLInto(cfg *Config, dir string) (bool, error) {
	kdlPath := filepath.Join(dir, ConfigFileName)

	content, err := os.ReadFile(kdlPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", kdlPath, err)
	}

	if err := applyKDL(cfg, string(content)); err != nil {
		return false, fmt.Errorf("%s: %w", kdlPath, err)
	}
	return true, nil
}

// ParseKDL parses content on top of the defaults for root
func ParseKDL(root, content string) (*Config, error) {
	cfg := Default(root)
	if err := applyKDL(cfg, content); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyKDL walks the document and overrides the settings it names
func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "search":
			if err := applySearch(cfg, n); err != nil {
				return err
			}
		case "ranking":
			applyRanking(cfg, n)
		case "terms":
			applyTerms(cfg, n)
		case "index":
			applyIndex(cfg, n)
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		case "extensions":
			cfg.Extensions = append(cfg.Extensions, collectStringArgs(n)...)
		default:
			debug.Log("CONFIG", "ignoring unknown node %q", nodeName(n))
		}
	}
	return nil
}

func applySearch(cfg *Config, n *document.Node) error {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "match_mode":
			if s, ok := firstStringArg(cn); ok {
				mode, err := types.ParseMatchMode(s)
				if err != nil {
					return err
				}
				cfg.Search.MatchMode = mode
			}
		case "max_results":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxResults = v
			}
		case "context_lines":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.ContextLines = v
			}
		case "whole_file_threshold":
			if v, ok := firstFloatArg(cn); ok {
				cfg.Search.WholeFileThreshold = v
			}
		case "max_files":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxFiles = v
			}
		case "exact":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.Exact = b
			}
		case "include_leading_comments":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.IncludeLeadingComments = b
			}
		}
	}
	return nil
}

func applyRanking(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		v, ok := firstFloatArg(cn)
		if !ok {
			continue
		}
		switch nodeName(cn) {
		case "k1":
			cfg.Ranking.K1 = v
		case "b":
			cfg.Ranking.B = v
		case "tfidf_weight":
			cfg.Ranking.TFIDFWeight = v
		case "bm25_weight":
			cfg.Ranking.BM25Weight = v
		case "filename_boost":
			cfg.Ranking.FilenameBoost = v
		}
	}
}

func applyTerms(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "stopwords":
			cfg.Terms.Stopwords = collectStringArgs(cn)
		case "extra_stopwords":
			cfg.Terms.ExtraStopwords = append(cfg.Terms.ExtraStopwords, collectStringArgs(cn)...)
		case "min_stem_length":
			if v, ok := firstIntArg(cn); ok {
				cfg.Terms.MinStemLength = v
			}
		case "stem_exclusions":
			cfg.Terms.StemExclusions = collectStringArgs(cn)
		case "stemming":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Terms.DisableStemming = !b
			}
		}
	}
}

func applyIndex(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Index.MaxFileSize = sz
				} else {
					debug.Log("CONFIG", "invalid max_file_size %q: %v", s, err)
				}
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.RespectGitignore = b
			}
		case "workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.Workers = v
			}
		case "detect_build_artifacts":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.DetectBuildArtifacts = b
			}
		case "default_excludes":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.DefaultExcludes = b
			}
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.FollowSymlinks = b
			}
		}
	}
}

// Helper functions over the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		debug.Log("CONFIG", "invalid float value for '%s', expected number but got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}

// collectStringArgs reads inline arguments (exclude "a" "b") or, when there
// are none, the children of a block (exclude { "a"; "b" }).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// In KDL block format, strings are child nodes where the node name is the string value
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
