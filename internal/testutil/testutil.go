// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/index"
	"github.com/starford/dailycanvas/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dailycanvas-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// WriteCanvas writes a canvas at path holding one text node per id.
func WriteCanvas(t *testing.T, store storage.Provider, path string, ids ...string) {
	t.Helper()
	d := &canvas.Data{}
	for _, id := range ids {
		d.Nodes = append(d.Nodes, canvas.Node{ID: id, Type: canvas.KindText, Text: "text " + id, Width: 250, Height: 60})
	}
	raw, err := canvas.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(path, raw); err != nil {
		t.Fatal(err)
	}
}
