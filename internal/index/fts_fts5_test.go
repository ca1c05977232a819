//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM items_fts`).Scan(&count); err != nil {
		t.Fatalf("items_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := CanvasRow{Path: "fts.canvas", Checksum: "f1", UpdatedAt: time.Now()}
	if err := db.UpsertCanvas(row, []ItemRow{{ID: "n1", Kind: "text", Text: "Pinned items carry powerful context forward."}}); err != nil {
		t.Fatalf("UpsertCanvas: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.canvas" || results[0].ID != "n1" {
		t.Errorf("hit = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCanvas(CanvasRow{Path: "gone.canvas", Checksum: "g", UpdatedAt: time.Now()},
		[]ItemRow{{ID: "a", Kind: "text", Text: "vanishing content"}})
	_ = db.DeleteCanvas("gone.canvas")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.canvas" {
			t.Error("deleted canvas still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertCanvas(CanvasRow{Path: "evo.canvas", Checksum: "1", UpdatedAt: now}, []ItemRow{{ID: "a", Kind: "text", Text: "original text"}})
	_ = db.UpsertCanvas(CanvasRow{Path: "evo.canvas", Checksum: "2", UpdatedAt: now}, []ItemRow{{ID: "a", Kind: "text", Text: "replacement text"}})

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 {
		t.Errorf("FTS not updated: %+v", results)
	}
}
