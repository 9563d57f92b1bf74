package config

import (
	"bufio"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/probe/internal/debug"
)

// GitignoreParser matches slash-separated paths, relative to the search
// root, against the rules of every .gitignore loaded so far. Rules from a
// nested .gitignore apply only below its directory. The last matching rule
// wins, so a later "!pattern" re-includes.
type GitignoreParser struct {
	mu       sync.RWMutex
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string // original line without modifiers
	Base      string // directory of the .gitignore, "" for the root
	Negate    bool
	Directory bool // trailing slash: matches directories only
	Anchored  bool // leading or inner slash: relative to Base

	glob string
}

func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads rootPath/.gitignore. A missing file is not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	return gp.LoadDir(rootPath, "")
}

// LoadDir loads rootPath/relDir/.gitignore with rules scoped to relDir
func (gp *GitignoreParser) LoadDir(rootPath, relDir string) error {
	file, err := os.Open(filepath.Join(rootPath, filepath.FromSlash(relDir), ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	n, err := gp.read(file, relDir)
	if n > 0 {
		debug.Log("GITIGNORE", "loaded %d rules from %s/.gitignore", n, relDir)
	}
	return err
}

func (gp *GitignoreParser) read(r io.Reader, base string) (int, error) {
	var parsed []GitignorePattern
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if p, ok := parseGitignoreLine(scanner.Text(), base); ok {
			parsed = append(parsed, p)
		}
	}

	gp.mu.Lock()
	gp.patterns = append(gp.patterns, parsed...)
	gp.mu.Unlock()
	return len(parsed), scanner.Err()
}

// AddPattern adds one root-level rule
func (gp *GitignoreParser) AddPattern(line string) {
	if p, ok := parseGitignoreLine(line, ""); ok {
		gp.mu.Lock()
		gp.patterns = append(gp.patterns, p)
		gp.mu.Unlock()
	}
}

// Len returns the number of loaded rules
func (gp *GitignoreParser) Len() int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	return len(gp.patterns)
}

func parseGitignoreLine(line, base string) (GitignorePattern, bool) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasSuffix(line, `\ `) {
		line = strings.TrimRight(line, " \t")
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return GitignorePattern{}, false
	}

	p := GitignorePattern{Base: strings.Trim(base, "/")}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\!`) || strings.HasPrefix(line, `\#`) {
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Anchored = true
		line = strings.TrimLeft(line, "/")
	}
	if strings.Contains(line, "/") {
		p.Anchored = true
	}
	if line == "" {
		return GitignorePattern{}, false
	}

	p.Pattern = line
	if p.Anchored || strings.HasPrefix(line, "**/") {
		p.glob = line
	} else {
		p.glob = "**/" + line
	}
	if !doublestar.ValidatePattern(p.glob) {
		debug.Log("GITIGNORE", "skipping invalid pattern %q", line)
		return GitignorePattern{}, false
	}
	return p, true
}

// ShouldIgnore reports whether relPath is ignored. isDir tells whether the
// path names a directory.
func (gp *GitignoreParser) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = strings.TrimPrefix(path.Clean(filepath.ToSlash(relPath)), "./")
	if relPath == "." || relPath == "" {
		return false
	}

	gp.mu.RLock()
	defer gp.mu.RUnlock()

	ignored := false
	for i := range gp.patterns {
		p := &gp.patterns[i]
		if p.matches(relPath, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (p *GitignorePattern) matches(relPath string, isDir bool) bool {
	rel := relPath
	if p.Base != "" {
		if !strings.HasPrefix(relPath, p.Base+"/") {
			return false
		}
		rel = relPath[len(p.Base)+1:]
	}

	if ok, _ := doublestar.Match(p.glob, rel); ok {
		return isDir || !p.Directory
	}
	// Anything below a matched directory is ignored with it
	ok, _ := doublestar.Match(p.glob+"/**", rel)
	return ok
}
