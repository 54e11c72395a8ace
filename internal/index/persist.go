// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okazmin/vaultpipe/pkg/types"
)

const currentVersion = 1

// snapshot is the persisted form of the index: the complete in-memory
// state serialized as one JSON document.
type snapshot struct {
	Version     int                          `json:"version"`
	LastUpdated string                       `json:"last_updated"`
	Stats       Stats                        `json:"stats"`
	Files       map[string]*types.FileRecord `json:"files"`
	TopicsIndex map[string][]string          `json:"topics_index"`
	TagsIndex   map[string][]string          `json:"tags_index"`
	Backlinks   map[string][]string          `json:"backlinks"`
}

// Open loads the snapshot at path, or starts an empty index when none
// exists yet. Snapshots written before backlinks were tracked are
// healed with an empty backlink map. A snapshot that does not parse
// is a fatal error: silently discarding an existing graph is worse
// than failing loudly.
func Open(path string) (*Index, error) {
	ix := &Index{
		path:        path,
		version:     currentVersion,
		lastUpdated: now().UTC().Format(time.RFC3339),
		files:       map[string]*types.FileRecord{},
		tags:        map[string][]string{},
		topics:      map[string][]string{},
		backlinks:   map[string][]string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, fmt.Errorf("reading index snapshot %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing index snapshot %s: %w", path, err)
	}

	ix.version = snap.Version
	ix.lastUpdated = snap.LastUpdated
	ix.stats = snap.Stats
	if snap.Files != nil {
		ix.files = snap.Files
	}
	if snap.TagsIndex != nil {
		ix.tags = snap.TagsIndex
	}
	if snap.TopicsIndex != nil {
		ix.topics = snap.TopicsIndex
	}
	if snap.Backlinks != nil {
		ix.backlinks = snap.Backlinks
	}

	return ix, nil
}

// Path returns the snapshot location the index was opened with.
func (ix *Index) Path() string {
	return ix.path
}

// Save flushes the complete in-memory state to the snapshot path,
// updating the last-updated timestamp first. The write is atomic
// (temp file plus rename) so a crash mid-write leaves the previous
// snapshot intact.
func (ix *Index) Save() error {
	ix.lastUpdated = now().UTC().Format(time.RFC3339)

	snap := snapshot{
		Version:     ix.version,
		LastUpdated: ix.lastUpdated,
		Stats:       ix.stats,
		Files:       ix.files,
		TopicsIndex: ix.topics,
		TagsIndex:   ix.tags,
		Backlinks:   ix.backlinks,
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index snapshot: %w", err)
	}

	return writeAtomic(ix.path, data)
}

// writeAtomic writes data to path through a temp file in the same
// directory followed by a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
