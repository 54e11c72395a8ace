// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

// Graph is the visualization-friendly projection of the index.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// Node is one note in the exported graph. Group is the note's first
// tag, or "other" for untagged notes.
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
	Group string   `json:"group"`
}

// Edge is one related-link between two notes. Weight is uniform.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// ExportGraph projects the records and their related lists into
// node/edge form. Nodes and edges are emitted in lexical filename
// order so the export is deterministic.
func (ix *Index) ExportGraph() Graph {
	g := Graph{
		Nodes: []Node{},
		Edges: []Edge{},
		Stats: ix.stats,
	}

	for _, name := range ix.Filenames() {
		rec := ix.files[name]

		group := "other"
		if len(rec.Tags) > 0 {
			group = rec.Tags[0]
		}
		g.Nodes = append(g.Nodes, Node{
			ID:    name,
			Label: rec.Title,
			Tags:  cloneList(rec.Tags),
			Group: group,
		})

		for _, related := range rec.Related {
			g.Edges = append(g.Edges, Edge{Source: name, Target: related, Weight: 1})
		}
	}

	return g
}
