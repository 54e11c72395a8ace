// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across vaultpipe stages.
package types

import "strings"

// Frontmatter is the structured metadata block extracted from a note.
// Values are scalars or string sequences; keys the parser does not
// recognize are preserved as-is.
type Frontmatter map[string]any

// GetString returns the value for key as a string, or "" when the key
// is absent or holds a non-string value.
func (f Frontmatter) GetString(key string) string {
	if v, ok := f[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// StringList returns the value for key normalized to a string slice.
// A scalar string is split on commas, matching the loose formats the
// generative output produces for list-valued keys.
func (f Frontmatter) StringList(key string) []string {
	v, ok := f[key]
	if !ok {
		return nil
	}

	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// FileRecord is one indexed note. The knowledge index owns every
// record exclusively; callers receive copies, never aliases.
type FileRecord struct {
	// Title is the human-readable note title from its frontmatter.
	Title string `json:"title"`

	// Tags are the frontmatter tags carried by the note.
	Tags []string `json:"tags"`

	// Topics are section topics extracted from the note body.
	Topics []string `json:"topics"`

	// Created and Updated are calendar dates in YYYY-MM-DD form.
	Created string `json:"created"`
	Updated string `json:"updated"`

	// SizeChars is the note body length in characters.
	SizeChars int `json:"size_chars"`

	// Parent optionally references another filename. It is not
	// validated for existence.
	Parent *string `json:"parent"`

	// Related lists filenames of related notes, ordered by relevance.
	Related []string `json:"related"`
}

// Document is a loaded source document as supplied by the document
// loader. The pipeline only consumes Content; the rest is provenance.
type Document struct {
	// Content is the full extracted text.
	Content string

	// FileName is the base name of the source file.
	FileName string

	// Path is the source path the document was loaded from.
	Path string

	// Format names the detected document format (e.g. "markdown").
	Format string
}
