// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains the persistent knowledge graph over the
// note vault: one record per note, inverted tag and topic indices, a
// directed backlink graph, and similarity-based relatedness queries.
// The whole structure lives in memory and is flushed as a single JSON
// snapshot; a single process owns it for the duration of a note's
// processing.
package index

import (
	"slices"
	"time"

	"github.com/okazmin/vaultpipe/pkg/types"
)

// now is the clock used for record and snapshot timestamps. Tests
// override it to get stable output.
var now = time.Now

// Stats are the aggregate counters kept in the snapshot. They are
// derived from the records and recomputed after every mutation that
// changes record count or related-link lengths.
type Stats struct {
	TotalFiles int `json:"total_files"`
	TotalLinks int `json:"total_links"`
}

// Summary extends Stats with the inverted-index cardinalities.
type Summary struct {
	Stats
	UniqueTags   int `json:"unique_tags"`
	UniqueTopics int `json:"unique_topics"`
}

// Index is the in-memory knowledge graph. All access goes through its
// methods; records are copied in and out, never aliased.
type Index struct {
	path        string
	version     int
	lastUpdated string
	stats       Stats
	files       map[string]*types.FileRecord
	tags        map[string][]string
	topics      map[string][]string
	backlinks   map[string][]string
}

// Add inserts or overwrites the record for filename. Resubmitting a
// filename is last-write-wins: the record is replaced and the inverted
// indices are reconciled so they keep mirroring the record's tags and
// topics exactly, without duplicate filename entries.
func (ix *Index) Add(filename, title string, tags, topics []string, parent *string, related []string) {
	today := now().Format("2006-01-02")

	created := today
	if prev, ok := ix.files[filename]; ok {
		created = prev.Created
	}

	ix.files[filename] = &types.FileRecord{
		Title:   title,
		Tags:    cloneList(tags),
		Topics:  cloneList(topics),
		Created: created,
		Updated: today,
		Parent:  parent,
		Related: cloneList(related),
	}

	reconcile(ix.tags, filename, tags)
	reconcile(ix.topics, filename, topics)
	ix.recomputeStats()
}

// reconcile updates one inverted index for filename: it is appended
// (once) under every key in keys and removed from keys it no longer
// carries.
func reconcile(inverted map[string][]string, filename string, keys []string) {
	keep := make(map[string]bool, len(keys))
	for _, key := range keys {
		keep[key] = true
		if !slices.Contains(inverted[key], filename) {
			inverted[key] = append(inverted[key], filename)
		}
	}

	for key, names := range inverted {
		if keep[key] {
			continue
		}
		if i := slices.Index(names, filename); i >= 0 {
			names = slices.Delete(names, i, i+1)
			if len(names) == 0 {
				delete(inverted, key)
			} else {
				inverted[key] = names
			}
		}
	}
}

// FindByTag returns the filenames carrying tag, in insertion order.
func (ix *Index) FindByTag(tag string) []string {
	return slices.Clone(ix.tags[tag])
}

// FindByTopic returns the filenames indexed under topic, in insertion order.
func (ix *Index) FindByTopic(topic string) []string {
	return slices.Clone(ix.topics[topic])
}

// GetFileInfo returns a copy of the record for filename.
func (ix *Index) GetFileInfo(filename string) (types.FileRecord, bool) {
	rec, ok := ix.files[filename]
	if !ok {
		return types.FileRecord{}, false
	}
	return cloneRecord(rec), true
}

// UpdateRelatedLinks overwrites the related list for an existing
// record. Unknown filenames are a no-op.
func (ix *Index) UpdateRelatedLinks(filename string, related []string) {
	rec, ok := ix.files[filename]
	if !ok {
		return
	}
	rec.Related = cloneList(related)
	ix.recomputeStats()
}

// UpdateBacklink records that source links to target. Idempotent:
// repeated calls leave a single entry.
func (ix *Index) UpdateBacklink(source, target string) {
	if !slices.Contains(ix.backlinks[target], source) {
		ix.backlinks[target] = append(ix.backlinks[target], source)
	}
}

// GetBacklinks returns the filenames that link to filename.
func (ix *Index) GetBacklinks(filename string) []string {
	return slices.Clone(ix.backlinks[filename])
}

// Filenames returns every indexed filename in lexical order.
func (ix *Index) Filenames() []string {
	names := make([]string, 0, len(ix.files))
	for name := range ix.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Topics returns every topic known to the index in lexical order.
func (ix *Index) Topics() []string {
	topics := make([]string, 0, len(ix.topics))
	for topic := range ix.topics {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

// Orphans returns the filenames with no incoming backlinks and no
// outgoing related links, in lexical order.
func (ix *Index) Orphans() []string {
	var orphans []string
	for _, name := range ix.Filenames() {
		if len(ix.backlinks[name]) == 0 && len(ix.files[name].Related) == 0 {
			orphans = append(orphans, name)
		}
	}
	return orphans
}

// Summarize returns the aggregate stats plus unique tag and topic counts.
func (ix *Index) Summarize() Summary {
	return Summary{
		Stats:        ix.stats,
		UniqueTags:   len(ix.tags),
		UniqueTopics: len(ix.topics),
	}
}

func (ix *Index) recomputeStats() {
	ix.stats.TotalFiles = len(ix.files)
	ix.stats.TotalLinks = 0
	for _, rec := range ix.files {
		ix.stats.TotalLinks += len(rec.Related)
	}
}

// cloneList copies items into a fresh, never-nil slice so record
// fields always serialize as JSON arrays.
func cloneList(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func cloneRecord(rec *types.FileRecord) types.FileRecord {
	out := *rec
	out.Tags = slices.Clone(rec.Tags)
	out.Topics = slices.Clone(rec.Topics)
	out.Related = slices.Clone(rec.Related)
	if rec.Parent != nil {
		parent := *rec.Parent
		out.Parent = &parent
	}
	return out
}
