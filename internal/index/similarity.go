// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"slices"
	"strings"
)

// Relevance weights for the two attribute sets. Tags are curated by
// the generative frontmatter and carry more signal than the topics
// scraped from section headings.
const (
	tagWeight   = 0.6
	topicWeight = 0.4
)

// Match is one similarity-ranked result.
type Match struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// FindRelated ranks every other record against filename by weighted
// Jaccard similarity over tags and topics, keeps scores at or above
// minRelevance, and returns at most maxResults matches in descending
// score order. Equal scores break ties by ascending filename so the
// ranking is deterministic. The subject itself is never included;
// an unknown filename yields no matches.
func (ix *Index) FindRelated(filename string, maxResults int, minRelevance float64) []Match {
	current, ok := ix.files[filename]
	if !ok {
		return nil
	}

	currentTags := toSet(current.Tags)
	currentTopics := toSet(current.Topics)

	var matches []Match
	for other, rec := range ix.files {
		if other == filename {
			continue
		}

		score := tagWeight*jaccard(currentTags, toSet(rec.Tags)) +
			topicWeight*jaccard(currentTopics, toSet(rec.Topics))

		if score >= minRelevance {
			matches = append(matches, Match{Filename: other, Score: score})
		}
	}

	slices.SortFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Filename, b.Filename)
		}
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// jaccard is |A∩B| / |A∪B|, defined as 0 when both sets are empty.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for key := range a {
		if b[key] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
