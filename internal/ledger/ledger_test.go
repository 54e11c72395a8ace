// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"path/filepath"
	"testing"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLookupMissing(t *testing.T) {
	l := testLedger(t)

	_, ok, err := l.Lookup(context.Background(), "docs/absent.md")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Lookup found an entry that was never recorded")
	}
}

func TestRecordAndLookup(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	sum := Checksum("document body")
	if err := l.Record(ctx, "docs/a.md", sum, "note-a.md"); err != nil {
		t.Fatal(err)
	}

	e, ok, err := l.Lookup(ctx, "docs/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("entry not found after Record")
	}
	if e.Checksum != sum || e.OutputFile != "note-a.md" {
		t.Errorf("entry = %+v", e)
	}
	if e.ProcessedAt.IsZero() {
		t.Error("processed_at not set")
	}
}

func TestRecordUpserts(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	if err := l.Record(ctx, "docs/a.md", Checksum("v1"), "old.md"); err != nil {
		t.Fatal(err)
	}
	if err := l.Record(ctx, "docs/a.md", Checksum("v2"), "new.md"); err != nil {
		t.Fatal(err)
	}

	entries, err := l.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 after upsert", len(entries))
	}
	if entries[0].OutputFile != "new.md" || entries[0].Checksum != Checksum("v2") {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestUnchanged(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	content := "stable content"
	if err := l.Record(ctx, "docs/a.md", Checksum(content), "note.md"); err != nil {
		t.Fatal(err)
	}

	if _, same, err := l.Unchanged(ctx, "docs/a.md", Checksum(content)); err != nil {
		t.Fatal(err)
	} else if !same {
		t.Error("identical content reported as changed")
	}

	if _, same, err := l.Unchanged(ctx, "docs/a.md", Checksum("edited content")); err != nil {
		t.Fatal(err)
	} else if same {
		t.Error("edited content reported as unchanged")
	}

	if _, same, err := l.Unchanged(ctx, "docs/never-seen.md", Checksum(content)); err != nil {
		t.Fatal(err)
	} else if same {
		t.Error("unseen path reported as unchanged")
	}
}

func TestEntriesOrdered(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	for _, p := range []string{"docs/c.md", "docs/a.md", "docs/b.md"} {
		if err := l.Record(ctx, p, Checksum(p), p+".out"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := l.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"docs/a.md", "docs/b.md", "docs/c.md"}
	for i, w := range want {
		if entries[i].SourcePath != w {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].SourcePath, w)
		}
	}
}

func TestChecksumStable(t *testing.T) {
	if Checksum("x") != Checksum("x") {
		t.Error("checksum not deterministic")
	}
	if Checksum("x") == Checksum("y") {
		t.Error("distinct content collided")
	}
	if len(Checksum("")) != 64 {
		t.Errorf("checksum length = %d, want 64 hex chars", len(Checksum("")))
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Record(ctx, "docs/a.md", Checksum("v"), "a.md"); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()

	_, ok, err := l2.Lookup(ctx, "docs/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("entry lost across reopen")
	}
}
