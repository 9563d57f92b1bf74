// Package pathutil converts between the absolute paths used inside a search
// and the root-relative, slash-separated paths shown to callers.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/probe/internal/types"
)

// ToRelative converts an absolute path to one relative to rootDir.
// Falls back to the original path if conversion fails, the path is already
// relative, or it lies outside the root.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go"
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return filepath.ToSlash(absPath)
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Different volumes on Windows
		return absPath
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}
	return filepath.ToSlash(relPath)
}

// ToAbsolute joins a root-relative path onto rootDir. Absolute paths are
// returned cleaned.
func ToAbsolute(relPath, rootDir string) string {
	if relPath == "" {
		return rootDir
	}
	p := filepath.FromSlash(relPath)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(rootDir, p)
}

// Rebase returns a copy of results whose root-relative paths are re-expressed
// relative to dir. An empty dir yields absolute paths. The input slice is not
// modified.
func Rebase(results []types.RankedResult, root, dir string) []types.RankedResult {
	if len(results) == 0 {
		return results
	}

	converted := make([]types.RankedResult, len(results))
	copy(converted, results)
	for i := range converted {
		abs := ToAbsolute(converted[i].Path, root)
		if dir == "" {
			converted[i].Path = abs
		} else {
			converted[i].Path = ToRelative(abs, dir)
		}
	}
	return converted
}
