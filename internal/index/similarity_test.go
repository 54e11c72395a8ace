// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"math"
	"reflect"
	"testing"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"one empty", []string{"x"}, nil, 0},
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"partial overlap", []string{"x", "y", "z"}, []string{"y", "z", "w"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(toSet(tt.a), toSet(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("jaccard(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}

			// Symmetry holds for every pair.
			if rev := jaccard(toSet(tt.b), toSet(tt.a)); rev != got {
				t.Errorf("jaccard not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestFindRelatedScoring(t *testing.T) {
	ix := testIndex(t)
	ix.Add("subject.md", "Subject", []string{"math", "analysis"}, []string{"limits"}, nil, nil)
	ix.Add("twin.md", "Twin", []string{"math", "analysis"}, []string{"limits"}, nil, nil)
	ix.Add("half.md", "Half", []string{"math"}, []string{"series"}, nil, nil)
	ix.Add("stranger.md", "Stranger", []string{"biology"}, []string{"cells"}, nil, nil)

	matches := ix.FindRelated("subject.md", 5, 0.1)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %v", len(matches), matches)
	}

	// Identical tag and topic sets score the full 0.6 + 0.4.
	if matches[0].Filename != "twin.md" || math.Abs(matches[0].Score-1.0) > 1e-9 {
		t.Errorf("top match = %+v, want twin.md at 1.0", matches[0])
	}

	// Half shares one of two tags (jaccard 0.5) and no topics.
	if matches[1].Filename != "half.md" || math.Abs(matches[1].Score-0.3) > 1e-9 {
		t.Errorf("second match = %+v, want half.md at 0.3", matches[1])
	}
}

func TestFindRelatedExcludesSelfAndDisjoint(t *testing.T) {
	ix := testIndex(t)
	ix.Add("a.md", "A", []string{"x"}, []string{"p"}, nil, nil)
	ix.Add("b.md", "B", []string{"y"}, []string{"q"}, nil, nil)

	for _, m := range ix.FindRelated("a.md", 10, 0) {
		if m.Filename == "a.md" {
			t.Error("FindRelated returned the subject itself")
		}
	}

	// Disjoint tags and topics score zero and are excluded by any
	// positive floor.
	if got := ix.FindRelated("a.md", 10, 0.0001); len(got) != 0 {
		t.Errorf("disjoint pair returned %v, want none", got)
	}
}

func TestFindRelatedDeterministicTieBreak(t *testing.T) {
	ix := testIndex(t)
	ix.Add("subject.md", "Subject", []string{"x"}, nil, nil, nil)
	ix.Add("zeta.md", "Z", []string{"x"}, nil, nil, nil)
	ix.Add("alpha.md", "A", []string{"x"}, nil, nil, nil)
	ix.Add("mid.md", "M", []string{"x"}, nil, nil, nil)

	matches := ix.FindRelated("subject.md", 5, 0.1)

	var names []string
	for _, m := range matches {
		names = append(names, m.Filename)
	}
	if !reflect.DeepEqual(names, []string{"alpha.md", "mid.md", "zeta.md"}) {
		t.Errorf("tie-break order = %v, want lexical", names)
	}
}

func TestFindRelatedTruncatesAndFilters(t *testing.T) {
	ix := testIndex(t)
	ix.Add("subject.md", "Subject", []string{"x"}, nil, nil, nil)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		ix.Add(name, name, []string{"x"}, nil, nil, nil)
	}

	if got := ix.FindRelated("subject.md", 2, 0.1); len(got) != 2 {
		t.Errorf("maxResults not honored: %v", got)
	}
	if got := ix.FindRelated("subject.md", 5, 0.99); len(got) != 0 {
		t.Errorf("minRelevance not honored: %v", got)
	}
	if got := ix.FindRelated("unknown.md", 5, 0); got != nil {
		t.Errorf("unknown filename returned %v, want nil", got)
	}
}
