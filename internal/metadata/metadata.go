// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata extracts a frontmatter mapping and body text from
// raw generative output. Model output varies wildly in shape, so
// parsing is an ordered chain of total attempts: a strict delimited
// block (YAML, then a permissive line parser when the YAML is
// malformed), an inline key scanner, and finally fixed defaults.
// Parse never fails; it always returns a usable pair.
package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/okazmin/vaultpipe/pkg/types"
)

// strictBlockRe matches a canonical frontmatter document:
// ---\n<block>\n---\n<body>.
var strictBlockRe = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)$`)

// DefaultFrontmatter is the last-resort mapping used when no metadata
// can be recognized anywhere in the input.
func DefaultFrontmatter() types.Frontmatter {
	return types.Frontmatter{
		"title":      "Untitled",
		"tags":       []string{},
		"main_topic": "general",
	}
}

// Parse splits raw generative output into frontmatter and body.
// The input is first stripped of an enclosing code fence. A strict
// delimited block is preferred; failing that, recognized keys are
// scanned line by line; failing that, defaults apply and the whole
// input becomes the body.
func Parse(raw string) (types.Frontmatter, string) {
	text := stripFence(raw)

	if m := strictBlockRe.FindStringSubmatch(text); m != nil {
		block, body := m[1], m[2]
		if fm, ok := parseYAMLBlock(block); ok {
			return fm, body
		}
		return parseBlockFallback(block), body
	}

	return scanInline(text)
}

// stripFence removes an enclosing code fence, with or without a
// language tag, as models often wrap whole documents in one.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = strings.TrimSpace(text[i+1:])
		} else {
			text = ""
		}
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
	}
	return text
}

// parseYAMLBlock parses a delimited block as a YAML mapping.
func parseYAMLBlock(block string) (types.Frontmatter, bool) {
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, false
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return types.Frontmatter(fm), true
}

// parseBlockFallback recovers key: value pairs from a delimited block
// the YAML parser rejected. All keys are preserved verbatim; values
// go through the shared coercion rules.
func parseBlockFallback(block string) types.Frontmatter {
	fm := types.Frontmatter{}
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fm[key] = coerceValue(strings.TrimSpace(value))
	}
	return fm
}

// coerceValue applies the value rules: surrounding quotes stripped,
// [...] split into a string list, booleans and integers recognized.
func coerceValue(value string) any {
	value = strings.Trim(value, `"'`)

	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return splitList(value)
	}

	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	if value != "" && isDigits(value) {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}

	return value
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitList turns a bracketed value into a string list, trimming
// whitespace and quotes from each item.
func splitList(value string) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	if strings.TrimSpace(inner) == "" {
		return []string{}
	}
	parts := strings.Split(inner, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if item := strings.Trim(strings.TrimSpace(p), `"'`); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// recognizedKeys are the only keys the inline scanner consumes.
var recognizedKeys = map[string]bool{
	"title":      true,
	"main_topic": true,
	"date":       true,
	"summary":    true,
	"tags":       true,
}

// scanInline recovers metadata from text that never had a delimited
// block: recognized key: value lines are consumed until the first
// heading or the first colon line that is not a key: value pair.
// Everything after the last consumed metadata line is the body. When
// nothing is recognized, defaults apply and the body is the whole input.
func scanInline(text string) (types.Frontmatter, string) {
	fm := types.Frontmatter{}
	lines := strings.Split(text, "\n")
	contentStart := 0

scan:
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "#"):
			break scan

		case strings.Contains(line, ":"):
			key, value, _ := strings.Cut(line, ":")
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				break scan
			}
			if !recognizedKeys[key] {
				continue
			}

			value = strings.TrimSpace(value)
			if key == "tags" {
				if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
					fm["tags"] = splitList(value)
				} else {
					fm["tags"] = []string{strings.Trim(value, `"'`)}
				}
			} else {
				fm[key] = strings.Trim(value, `"'`)
			}
			contentStart = i + 1
		}
	}

	if len(fm) == 0 {
		return DefaultFrontmatter(), text
	}

	body := strings.TrimSpace(strings.Join(lines[contentStart:], "\n"))
	return fm, body
}
