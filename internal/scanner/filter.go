package scanner

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/probe/internal/config"
)

// pathFilter decides which root-relative, slash-separated paths are scanned
type pathFilter struct {
	exclude    []string
	include    []string
	extensions map[string]bool
	gitignore  *config.GitignoreParser
}

func newPathFilter(include, exclude, extensions []string, gitignore *config.GitignoreParser) *pathFilter {
	f := &pathFilter{
		exclude:   exclude,
		include:   include,
		gitignore: gitignore,
	}
	if len(extensions) > 0 {
		f.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			f.extensions[ext] = true
		}
	}
	return f
}

// skipDir reports whether a directory and everything below it is pruned
func (f *pathFilter) skipDir(rel string) bool {
	if f.excluded(rel) || f.excluded(rel+"/") {
		return true
	}
	return f.gitignore != nil && f.gitignore.ShouldIgnore(rel, true)
}

// skipFile applies exclude, gitignore, include and extension rules in that order
func (f *pathFilter) skipFile(rel string) bool {
	if f.excluded(rel) {
		return true
	}
	if f.gitignore != nil && f.gitignore.ShouldIgnore(rel, false) {
		return true
	}
	if !f.included(rel) {
		return true
	}
	return !f.extensionAllowed(rel)
}

func (f *pathFilter) excluded(rel string) bool {
	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (f *pathFilter) included(rel string) bool {
	if len(f.include) == 0 {
		return true
	}
	for _, p := range f.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (f *pathFilter) extensionAllowed(rel string) bool {
	if f.extensions == nil {
		return true
	}
	return f.extensions[strings.ToLower(path.Ext(rel))]
}
