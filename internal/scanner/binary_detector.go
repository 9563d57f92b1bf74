// Binary file detection for early rejection of non-text files
package scanner

import (
	"bytes"
	"path/filepath"
	"strings"
)

// BinaryDetector rejects files that are not searchable text
type BinaryDetector struct {
	binaryExtensions map[string]bool
}

// NewBinaryDetector creates a detector with the known binary extensions
func NewBinaryDetector() *BinaryDetector {
	exts := []string{
		// Fonts
		".woff", ".woff2", ".ttf", ".otf", ".eot",
		// Images
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp", ".tiff", ".tif",
		// Archives
		".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar", ".jar", ".war", ".ear",
		// Executables and objects
		".exe", ".dll", ".so", ".dylib", ".a", ".o", ".obj", ".bin", ".wasm",
		// Media
		".mp3", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".wav", ".flac", ".ogg",
		// Office documents
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		// Databases
		".db", ".sqlite", ".sqlite3",
		// Bytecode and serialized objects
		".pyc", ".pyo", ".class", ".pickle", ".pkl",
	}

	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return &BinaryDetector{binaryExtensions: m}
}

// IsBinaryByExtension checks the extension without any I/O
func (bd *BinaryDetector) IsBinaryByExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return bd.binaryExtensions[ext]
}

var magicNumbers = [][]byte{
	{0x1F, 0x8B},             // gzip
	{0x50, 0x4B, 0x03, 0x04}, // zip
	{0x50, 0x4B, 0x05, 0x06}, // empty zip
	{0x89, 0x50, 0x4E, 0x47}, // png
	{0xFF, 0xD8, 0xFF},       // jpeg
	{0x47, 0x49, 0x46, 0x38}, // gif
	{0x25, 0x50, 0x44, 0x46}, // pdf
	{0x7F, 0x45, 0x4C, 0x46}, // elf
	{0x4D, 0x5A},             // dos/windows executable
	{0xCA, 0xFE, 0xBA, 0xBE}, // mach-o fat binary, java class
	{0xCF, 0xFA, 0xED, 0xFE}, // mach-o 64
	{0x00, 0x61, 0x73, 0x6D}, // wasm
	{0x77, 0x4F, 0x46, 0x46}, // woff
	{0x77, 0x4F, 0x46, 0x32}, // woff2
}

// IsBinaryContent sniffs a sample taken from the start of a file
func (bd *BinaryDetector) IsBinaryContent(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}

	for _, magic := range magicNumbers {
		if bytes.HasPrefix(sample, magic) {
			return true
		}
	}

	nullBytes := 0
	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		// Bytes >= 0x80 may be UTF-8 and are not counted
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' && b != 0x1B {
			nonPrintable++
		}
	}

	// More than 1% NUL bytes, or more than 30% control characters
	if nullBytes > 0 && nullBytes >= len(sample)/100 {
		return true
	}
	return nonPrintable > len(sample)*30/100
}
