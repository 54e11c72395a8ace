// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slug derives stable, URL-safe note filenames from free text.
package slug

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// invalidRunes matches everything outside letters, digits,
	// underscore, whitespace, and hyphen. Unicode-aware so Cyrillic
	// titles survive sanitization.
	invalidRunes = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separators   = regexp.MustCompile(`[\s-]+`)
)

// Sanitize normalizes free text into a slug: lowercase, punctuation
// removed, runs of whitespace and hyphens collapsed to a single
// hyphen, leading and trailing hyphens trimmed. Idempotent: applying
// Sanitize to its own output returns it unchanged.
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = invalidRunes.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Derive builds a filename slug from a note's main topic and title.
// The topic anchors the slug; up to two distinctive title words
// (longer than three runes, not already contained in the topic) are
// appended hyphen-joined. With an empty topic the title alone is
// used, and with both empty the caller-supplied fallback is returned.
func Derive(mainTopic, title, fallback string) string {
	topicSlug := Sanitize(mainTopic)
	if topicSlug == "" {
		if titleSlug := Sanitize(title); titleSlug != "" {
			return titleSlug
		}
		return fallback
	}

	titleSlug := Sanitize(title)
	if titleSlug == "" || titleSlug == topicSlug {
		return topicSlug
	}

	lowerTopic := strings.ToLower(mainTopic)
	var parts []string
	for _, word := range strings.Fields(title) {
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if strings.Contains(lowerTopic, strings.ToLower(word)) {
			continue
		}
		if clean := Sanitize(word); clean != "" {
			parts = append(parts, clean)
		}
		if len(parts) == 2 {
			break
		}
	}

	if len(parts) == 0 {
		return topicSlug
	}
	return topicSlug + "-" + strings.Join(parts, "-")
}
