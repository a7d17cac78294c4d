package db

import (
	"errors"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDatabaseReplaceSemantics(t *testing.T) {
	store := testStore(t)
	now := time.Now()

	for _, id := range []string{"d1", "d2", "d3", "d4", "d5"} {
		err := store.UpsertDatabase(&Database{ID: id, Title: "DB " + id, LastSynced: now})
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	// A refresh replaces the whole collection, not just overlapping rows.
	if err := store.DeleteDatabases(); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	for _, id := range []string{"d1", "d6", "d7"} {
		err := store.UpsertDatabase(&Database{ID: id, Title: "DB " + id, LastSynced: now})
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	got, err := store.ListDatabases()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("databases: got %d, want 3", len(got))
	}
}

func TestSearchDatabasesCaseInsensitive(t *testing.T) {
	store := testStore(t)
	now := time.Now()
	store.UpsertDatabase(&Database{ID: "d1", Title: "Projects", LastSynced: now})
	store.UpsertDatabase(&Database{ID: "d2", Title: "Meeting Notes", LastSynced: now})

	got, err := store.SearchDatabases("proj")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d1" {
		t.Fatalf("got %v, want d1 only", got)
	}
}

func TestPageRoundTrip(t *testing.T) {
	store := testStore(t)

	p := &Page{
		ID:          "p1",
		Title:       "My Page",
		Icon:        "🔥",
		DatabaseID:  "d1",
		HasChildren: true,
		ChildCount:  2,
		ObjectType:  "page",
		Valid:       true,
		LastSynced:  time.Now(),
	}
	if err := store.UpsertPage(p); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	got, err := store.GetPage("p1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Title != "My Page" || got.Icon != "🔥" || !got.HasChildren || got.ChildCount != 2 {
		t.Errorf("got %+v", got)
	}
	if !got.Valid {
		t.Error("expected valid page")
	}

	if _, err := store.GetPage("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestChildPages(t *testing.T) {
	store := testStore(t)
	now := time.Now()
	store.UpsertPage(&Page{ID: "parent", Title: "Parent", ObjectType: "page", LastSynced: now})
	store.UpsertPage(&Page{ID: "c1", Title: "Child A", ParentID: "parent", DepthLevel: 1, ObjectType: "page", LastSynced: now})
	store.UpsertPage(&Page{ID: "c2", Title: "Child B", ParentID: "parent", DepthLevel: 1, ObjectType: "page", LastSynced: now})
	store.UpsertPage(&Page{ID: "other", Title: "Other", ObjectType: "page", LastSynced: now})

	children, err := store.ChildPages("parent")
	if err != nil {
		t.Fatalf("Failed to list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children: got %d, want 2", len(children))
	}
}

func TestBlockReplaceSemantics(t *testing.T) {
	store := testStore(t)
	now := time.Now()

	for i, id := range []string{"b1", "b2", "b3", "b4", "b5"} {
		b := &Block{ID: RemoteBlockID(id), Type: "paragraph", Content: "old", Position: i, LastSynced: now}
		if err := store.InsertBlock("p1", b); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	if err := store.DeleteBlocks("p1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	for i, id := range []string{"b1", "b9"} {
		b := &Block{ID: RemoteBlockID(id), Type: "paragraph", Content: "new", Position: i, LastSynced: now}
		if err := store.InsertBlock("p1", b); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	got, err := store.BlocksByPage("p1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("blocks: got %d, want 2", len(got))
	}
	if got[0].Content != "new" {
		t.Errorf("content: got %q, want %q", got[0].Content, "new")
	}
	if got[0].ID.Remote() != "b1" || got[1].ID.Remote() != "b9" {
		t.Errorf("order: got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestBlockMetadataSurvivesRoundTrip(t *testing.T) {
	store := testStore(t)
	checked := true
	b := &Block{
		ID:       RemoteBlockID("b1"),
		Type:     "to_do",
		Content:  "Buy milk",
		Metadata: BlockMetadata{Checked: &checked},
		Position: 0,
	}
	if err := store.InsertBlock("p1", b); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	got, err := store.BlocksByPage("p1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("blocks: got %d, want 1", len(got))
	}
	if got[0].Metadata.Checked == nil || !*got[0].Metadata.Checked {
		t.Errorf("checked flag lost: %+v", got[0].Metadata)
	}
}

func TestCanvasNodesReplace(t *testing.T) {
	store := testStore(t)
	now := time.Now()

	nodes := []CanvasNode{
		{ID: "n1", PageID: "p1", Title: "A", X: 10, Y: 20, UpdatedAt: now},
		{ID: "n2", PageID: "p2", Title: "B", X: 30, Y: 40, UpdatedAt: now},
	}
	if err := store.ReplaceCanvasNodes(nodes); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	// A later layout fully supersedes the previous one.
	if err := store.ReplaceCanvasNodes(nodes[:1]); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	got, err := store.ListCanvasNodes()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("got %v, want n1 only", got)
	}
	if got[0].X != 10 || got[0].Y != 20 {
		t.Errorf("position: got (%v, %v)", got[0].X, got[0].Y)
	}
}

func TestMetadata(t *testing.T) {
	store := testStore(t)

	if err := store.SetMetadata("k", "v1"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := store.SetMetadata("k", "v2"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	got, err := store.GetMetadata("k")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got != "v2" {
		t.Errorf("got %q, want %q", got, "v2")
	}
}
