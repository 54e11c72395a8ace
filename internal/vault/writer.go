// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vault writes generated notes into the vault directory as
// Markdown files with YAML frontmatter.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/okazmin/vaultpipe/pkg/types"
)

// Writer persists notes under a single vault directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating vault directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the vault directory.
func (w *Writer) Dir() string {
	return w.dir
}

// NotePath returns the absolute path a note file would be written to.
func (w *Writer) NotePath(filename string) string {
	return filepath.Join(w.dir, filename)
}

// WriteNote serializes the frontmatter as a YAML block followed by the
// body and writes the note atomically. The returned path is the final
// location of the file.
func (w *Writer) WriteNote(filename string, fm types.Frontmatter, body string) (string, error) {
	content, err := Render(fm, body)
	if err != nil {
		return "", err
	}

	path := w.NotePath(filename)
	if err := writeAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("writing note %s: %w", filename, err)
	}
	return path, nil
}

// ReadNote loads a note's raw contents.
func (w *Writer) ReadNote(filename string) (string, error) {
	data, err := os.ReadFile(w.NotePath(filename))
	if err != nil {
		return "", fmt.Errorf("reading note %s: %w", filename, err)
	}
	return string(data), nil
}

// Render produces the full note text: a frontmatter block delimited by
// --- lines, a blank line, then the body.
func Render(fm types.Frontmatter, body string) (string, error) {
	yamlBytes, err := yaml.Marshal(map[string]any(fm))
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(yamlBytes)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

// writeAtomic writes data to path through a temp file and rename so a
// crash never leaves a half-written note.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".note-*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
