package workspace

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/storage"
)

func testWorkspace(t *testing.T) (*Workspace, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	n := 0
	ws := New(store, logger, WithIDGenerator(func() string {
		n++
		return "gen" + string(rune('0'+n))
	}))
	return ws, store
}

func writeCanvas(t *testing.T, store storage.Provider, path string, ids ...string) {
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

func itemIDs(items []*Item) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestOpenFileLoadsItems(t *testing.T) {
	ws, store := testWorkspace(t)
	writeCanvas(t, store, "daily-canvas/2024-01-02.canvas", "n1", "n2")

	layouts := 0
	ws.OnLayoutChange(func() { layouts++ })

	c, err := ws.OpenFile("daily-canvas/2024-01-02.canvas")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if ws.ActiveCanvas() != c {
		t.Fatal("opened canvas is not active")
	}
	if c.Key() != "2024-01-02" {
		t.Errorf("Key = %q", c.Key())
	}
	if diff := cmp.Diff([]string{"n1", "n2"}, itemIDs(c.Items())); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
	for _, it := range c.Items() {
		if !it.Initialized() || it.El == nil || it.El.Parent() != c.El {
			t.Errorf("item %s not initialized into canvas element", it.ID)
		}
		if it.Canvas() != c {
			t.Errorf("item %s canvas back-reference missing", it.ID)
		}
	}
	if layouts != 1 {
		t.Errorf("layout changes = %d, want 1", layouts)
	}
}

func TestOpenMissingFile(t *testing.T) {
	ws, _ := testWorkspace(t)
	_, err := ws.OpenFile("daily-canvas/nope.canvas")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := ws.OpenFile("notes/readme.md"); err == nil {
		t.Error("expected error opening a non-canvas file")
	}
}

func TestDeleteSelectionDestroysAndSaves(t *testing.T) {
	ws, store := testWorkspace(t)
	writeCanvas(t, store, "c.canvas", "a", "b", "c")
	c, _ := ws.OpenFile("c.canvas")

	if err := c.Select("c", "a"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, itemIDs(c.Selection())); diff != "" {
		t.Errorf("selection order (-want +got):\n%s", diff)
	}
	a := c.Item("a")
	if err := c.DeleteSelection(); err != nil {
		t.Fatalf("DeleteSelection: %v", err)
	}
	if a.Initialized() || a.El != nil {
		t.Error("deleted item still initialized")
	}
	if len(c.Selection()) != 0 {
		t.Error("selection not cleared")
	}

	raw, _ := store.Read("c.canvas")
	d, _ := canvas.Parse(raw)
	if len(d.Nodes) != 1 || d.Nodes[0].ID != "b" {
		t.Errorf("saved nodes = %+v", d.Nodes)
	}
}

func TestSelectUnknownID(t *testing.T) {
	ws, store := testWorkspace(t)
	writeCanvas(t, store, "c.canvas", "a")
	c, _ := ws.OpenFile("c.canvas")
	_ = c.Select("a")
	if err := c.Select("a", "zzz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if len(c.Selection()) != 1 {
		t.Error("failed select must keep previous selection")
	}
}

func TestCreateFileNodePersists(t *testing.T) {
	ws, store := testWorkspace(t)
	writeCanvas(t, store, "c.canvas")
	c, _ := ws.OpenFile("c.canvas")

	it, err := c.CreateFileNode(FileNodeOptions{
		File:     "journal/2024-01-02.md",
		Geometry: Geometry{Width: 500, Height: 500},
		Save:     true,
	})
	if err != nil {
		t.Fatalf("CreateFileNode: %v", err)
	}
	if it.Kind != canvas.KindFile || it.ID != "gen1" {
		t.Errorf("item = %+v", it)
	}
	if content := it.El.Find("canvas-node-content"); content == nil || content.Text() != "journal/2024-01-02.md" {
		t.Error("file variant did not render its content")
	}
	raw, _ := store.Read("c.canvas")
	d, _ := canvas.Parse(raw)
	if len(d.Nodes) != 1 || d.Nodes[0].File != "journal/2024-01-02.md" {
		t.Errorf("saved nodes = %+v", d.Nodes)
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	ws, store := testWorkspace(t)
	writeCanvas(t, store, "c.canvas", "a")
	c, _ := ws.OpenFile("c.canvas")
	err := c.AddItem(ws.NewItem(canvas.Node{ID: "a", Type: canvas.KindText}))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v", err)
	}
}

func TestLeavesAndClose(t *testing.T) {
	ws, store := testWorkspace(t)
	writeCanvas(t, store, "one.canvas", "a")
	writeCanvas(t, store, "two.canvas", "b")

	one, _ := ws.OpenFile("one.canvas")
	first := ws.ActiveLeaf()
	two, _ := ws.OpenInNewLeaf("two.canvas")

	if len(ws.Canvases()) != 2 || ws.ActiveCanvas() != two {
		t.Fatalf("canvases = %d", len(ws.Canvases()))
	}

	ws.CloseLeaf(ws.ActiveLeaf())
	if ws.ActiveLeaf() != first || ws.ActiveCanvas() != one {
		t.Error("focus did not move to remaining leaf")
	}
	if !two.Closed() || two.Item("b").Initialized() {
		t.Error("closed canvas items should be destroyed")
	}

	// Reopening in the same leaf replaces the shown canvas.
	again, _ := ws.OpenFile("two.canvas")
	if !one.Closed() || ws.ActiveCanvas() != again {
		t.Error("OpenFile should replace the focused leaf's canvas")
	}
}

func TestNodeIDShape(t *testing.T) {
	id := NodeID()
	if len(id) != 16 {
		t.Errorf("len(NodeID) = %d", len(id))
	}
	if id == NodeID() {
		t.Error("NodeID repeated")
	}
}

func TestLoopSerializesWork(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	counter := 0
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			_ = l.Do(context.Background(), func() error { counter++; return nil })
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	var got int
	_ = l.Do(context.Background(), func() error { got = counter; return nil })
	if got != 10 {
		t.Errorf("counter = %d", got)
	}

	boom := errors.New("boom")
	if err := l.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		err := l.Do(context.Background(), func() error { return nil })
		if errors.Is(err, ErrLoopStopped) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("loop did not stop")
		default:
		}
	}
}
