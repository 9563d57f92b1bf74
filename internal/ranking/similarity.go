package ranking

import (
	"path/filepath"
	"strings"

	"github.com/hbollon/go-edlib"
)

// jaroWinkler returns the Jaro-Winkler similarity of a and b in [0, 1]
func jaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}

// filenameStem returns the lowercased base name without its extensions
func filenameStem(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// filenameSimilarity scales a filename hit by how much of the name the term
// accounts for: 0.5 for a bare mention up to 1.0 for the whole stem.
func filenameSimilarity(term, path string) float64 {
	return 0.5 + 0.5*jaroWinkler(strings.ToLower(term), filenameStem(path))
}
