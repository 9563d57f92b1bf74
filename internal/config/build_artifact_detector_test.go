package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArtifactDetector(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{
  "scripts": {"build": "tsc --outDir lib && vite build", "bundle": "esbuild --outDir=bundle"},
  "build": {"outDir": "release"}
}`)
	writeFile(t, root, "tsconfig.json", `{"compilerOptions": {"outDir": "./lib"}}`)
	writeFile(t, root, "vite.config.ts", `export default { build: { outDir: 'public/assets' } }`)
	writeFile(t, root, "Cargo.toml", "[package]\nname = \"x\"\n\n[build]\ntarget-dir = \"cargo-out\"\n")
	writeFile(t, root, "pyproject.toml", "[tool.setuptools]\nbuild-dir = \"pybuild\"\n")

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()

	assert.ElementsMatch(t, []string{
		"**/lib/**",
		"**/bundle/**",
		"**/release/**",
		"**/public/assets/**",
		"**/cargo-out/**",
		"**/pybuild/**",
	}, got)
}

func TestBuildArtifactDetector_NothingDeclared(t *testing.T) {
	assert.Empty(t, NewBuildArtifactDetector(t.TempDir()).DetectOutputDirectories())
}

func TestDirGlob(t *testing.T) {
	assert.Equal(t, "**/out/**", dirGlob("./out/"))
	assert.Empty(t, dirGlob(""))
	assert.Empty(t, dirGlob("/abs/out"))
	assert.Empty(t, dirGlob("../shared"))
	assert.Empty(t, dirGlob("."))
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, DeduplicatePatterns(nil))
}
