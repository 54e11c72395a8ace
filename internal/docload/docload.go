// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docload reads source documents into plain text for the
// pipeline. Each supported format has a Reader; the reader for a file
// is resolved once from its extension, so there is no runtime dispatch
// by name. Formats needing external tooling (PDF, office documents)
// are out of scope here.
package docload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/okazmin/vaultpipe/pkg/types"
)

// Reader extracts text content from one document format.
type Reader interface {
	Read(path string) (string, error)
}

// textReader loads the file verbatim; good enough for every
// line-oriented text format.
type textReader struct{}

func (textReader) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// jsonReader validates the document as JSON and pretty-prints it so
// downstream text processing sees a stable layout.
type jsonReader struct{}

func (jsonReader) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// formatReader pairs a format name with its reader.
type formatReader struct {
	format string
	reader Reader
}

// readersByExt maps a lowercase file extension to its format and
// reader, resolved statically.
var readersByExt = map[string]formatReader{
	".md":   {"markdown", textReader{}},
	".txt":  {"plaintext", textReader{}},
	".json": {"json", jsonReader{}},
	".rst":  {"rst", textReader{}},
	".tex":  {"latex", textReader{}},
}

// SupportedExtensions returns the recognized file extensions in
// lexical order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(readersByExt))
	for ext := range readersByExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Load reads the document at path. An unrecognized extension is an
// error; the caller decides whether to skip or abort.
func Load(path string) (types.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fr, ok := readersByExt[ext]
	if !ok {
		return types.Document{}, fmt.Errorf("unsupported document format %q (supported: %s)",
			ext, strings.Join(SupportedExtensions(), ", "))
	}

	content, err := fr.reader.Read(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("loading %s: %w", path, err)
	}

	return types.Document{
		Content:  content,
		FileName: filepath.Base(path),
		Path:     path,
		Format:   fr.format,
	}, nil
}

// Metadata summarizes a loaded document.
type Metadata struct {
	Title        string
	WordCount    int
	CharCount    int
	HeadingCount int
}

// ExtractMetadata derives summary metadata from a document: the first
// top-level heading within the opening lines becomes the title, with
// the file name as fallback.
func ExtractMetadata(doc types.Document) Metadata {
	lines := strings.Split(doc.Content, "\n")

	meta := Metadata{
		Title:     doc.FileName,
		WordCount: len(strings.Fields(doc.Content)),
		CharCount: len([]rune(doc.Content)),
	}

	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			meta.HeadingCount++
		}
		if i < 20 && meta.Title == doc.FileName && strings.HasPrefix(line, "# ") {
			meta.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}

	return meta
}
