package config

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/probe/internal/debug"
)

// BuildArtifactDetector reads project manifests under a root and reports the
// build output directories they declare, as exclusion globs.
type BuildArtifactDetector struct {
	root string
}

func NewBuildArtifactDetector(root string) *BuildArtifactDetector {
	return &BuildArtifactDetector{root: root}
}

type packageManifest struct {
	Scripts map[string]string `json:"scripts"`
	Build   struct {
		OutDir string `json:"outDir"`
	} `json:"build"`
}

type tsconfigManifest struct {
	CompilerOptions struct {
		OutDir string `json:"outDir"`
	} `json:"compilerOptions"`
}

type cargoManifest struct {
	Build struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
	Profile map[string]struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"profile"`
}

type pyprojectManifest struct {
	Tool struct {
		Poetry struct {
			Build struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"build"`
		} `toml:"poetry"`
		Setuptools struct {
			BuildDir string `toml:"build-dir"`
		} `toml:"setuptools"`
	} `toml:"tool"`
}

var (
	outDirFlag = regexp.MustCompile(`-{1,2}outDir[ =]["']?([^\s"']+)`)
	viteOutDir = regexp.MustCompile(`outDir\s*:\s*["']([^"']+)["']`)
)

// DetectOutputDirectories returns a glob per declared output directory
func (d *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, d.javaScriptOutputs()...)
	dirs = append(dirs, d.cargoOutputs()...)
	dirs = append(dirs, d.pyprojectOutputs()...)

	var patterns []string
	for _, dir := range dirs {
		if p := dirGlob(dir); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) > 0 {
		debug.Log("CONFIG", "detected build output directories: %v", patterns)
	}
	return DeduplicatePatterns(patterns)
}

func (d *BuildArtifactDetector) read(name string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(d.root, name))
	return data, err == nil
}

func (d *BuildArtifactDetector) javaScriptOutputs() []string {
	var dirs []string

	if data, ok := d.read("package.json"); ok {
		var pkg packageManifest
		if err := json.Unmarshal(data, &pkg); err == nil {
			for _, script := range pkg.Scripts {
				for _, m := range outDirFlag.FindAllStringSubmatch(script, -1) {
					dirs = append(dirs, m[1])
				}
			}
			dirs = append(dirs, pkg.Build.OutDir)
		} else {
			debug.Log("CONFIG", "package.json: %v", err)
		}
	}

	if data, ok := d.read("tsconfig.json"); ok {
		var ts tsconfigManifest
		if err := json.Unmarshal(data, &ts); err == nil {
			dirs = append(dirs, ts.CompilerOptions.OutDir)
		}
	}

	for _, name := range []string{"vite.config.js", "vite.config.ts", "vite.config.mjs"} {
		if data, ok := d.read(name); ok {
			if m := viteOutDir.FindSubmatch(data); m != nil {
				dirs = append(dirs, string(m[1]))
			}
		}
	}
	return dirs
}

func (d *BuildArtifactDetector) cargoOutputs() []string {
	data, ok := d.read("Cargo.toml")
	if !ok {
		return nil
	}
	var cargo cargoManifest
	if err := toml.Unmarshal(data, &cargo); err != nil {
		debug.Log("CONFIG", "Cargo.toml: %v", err)
		return nil
	}
	dirs := []string{cargo.Build.TargetDir}
	for _, profile := range cargo.Profile {
		dirs = append(dirs, profile.TargetDir)
	}
	return dirs
}

func (d *BuildArtifactDetector) pyprojectOutputs() []string {
	data, ok := d.read("pyproject.toml")
	if !ok {
		return nil
	}
	var py pyprojectManifest
	if err := toml.Unmarshal(data, &py); err != nil {
		debug.Log("CONFIG", "pyproject.toml: %v", err)
		return nil
	}
	return []string{py.Tool.Poetry.Build.TargetDir, py.Tool.Setuptools.BuildDir}
}

// dirGlob turns a relative output directory into "**/<dir>/**". Empty,
// absolute and parent-relative directories are dropped.
func dirGlob(dir string) string {
	dir = strings.TrimSpace(filepath.ToSlash(dir))
	if dir == "" || strings.HasPrefix(dir, "/") {
		return ""
	}
	dir = path.Clean(dir)
	if dir == "." || dir == ".." || strings.HasPrefix(dir, "../") {
		return ""
	}
	return "**/" + dir + "/**"
}

// DeduplicatePatterns removes duplicates, keeping first occurrences in order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
