package intercept

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/header"
	"github.com/starford/dailycanvas/internal/pinstore"
	"github.com/starford/dailycanvas/internal/storage"
	"github.com/starford/dailycanvas/internal/workspace"
)

type memBlob struct{ raw []byte }

func (b *memBlob) Load() ([]byte, error) { return b.raw, nil }
func (b *memBlob) Save(raw []byte) error { b.raw = raw; return nil }

type env struct {
	ws    *workspace.Workspace
	store *storage.FS
	bus   *eventbus.Bus
	pins  *pinstore.Store
	mgr   *Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := eventbus.New()
	pins, err := pinstore.Open(&memBlob{}, bus, "")
	if err != nil {
		t.Fatal(err)
	}
	ws := workspace.New(fs, logger)
	return &env{ws: ws, store: fs, bus: bus, pins: pins, mgr: New(ws, bus, pins, logger)}
}

func (e *env) writeCanvas(t *testing.T, path string, ids ...string) {
	t.Helper()
	d := &canvas.Data{}
	for _, id := range ids {
		d.Nodes = append(d.Nodes, canvas.Node{ID: id, Type: canvas.KindText, Text: id})
	}
	raw, _ := canvas.Marshal(d)
	if err := e.store.Write(path, raw); err != nil {
		t.Fatal(err)
	}
}

func headerOf(t *testing.T, it *workspace.Item) *header.Header {
	t.Helper()
	h, ok := it.Attachment().(*header.Header)
	if !ok {
		t.Fatalf("item %s has no header", it.ID)
	}
	return h
}

func TestNotReadyWithoutTargets(t *testing.T) {
	e := newEnv(t)
	if err := e.mgr.TryPatchCanvasSurface(); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("canvas: err = %v", err)
	}
	if err := e.mgr.TryPatchItemSurface(); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("item: err = %v", err)
	}
	if e.mgr.CanvasPatched() || e.mgr.ItemPatched() {
		t.Error("nothing should be patched")
	}
}

func TestStartDefersUntilTargetsExist(t *testing.T) {
	e := newEnv(t)
	e.writeCanvas(t, "daily-canvas/2024-01-02.canvas", "n1", "n2")
	_ = e.pins.SetCurrentKey("2024-01-02")

	e.mgr.Start()
	if e.mgr.CanvasPatched() || e.mgr.ItemPatched() {
		t.Fatal("patched before any canvas was open")
	}

	c, err := e.ws.OpenFile("daily-canvas/2024-01-02.canvas")
	if err != nil {
		t.Fatal(err)
	}
	if !e.mgr.CanvasPatched() || !e.mgr.ItemPatched() {
		t.Fatalf("canvas=%v item=%v after open", e.mgr.CanvasPatched(), e.mgr.ItemPatched())
	}
	for _, it := range c.Items() {
		if !headerOf(t, it).Visible() {
			t.Errorf("header of %s hidden on latest canvas", it.ID)
		}
	}
	if e.bus.Len() != 2 {
		t.Errorf("bus subscriptions = %d, want 2 headers and no retry listener", e.bus.Len())
	}
}

func TestItemAddedPublishedOncePerAdd(t *testing.T) {
	e := newEnv(t)
	e.writeCanvas(t, "c.canvas", "n1")
	c, _ := e.ws.OpenFile("c.canvas")

	for i := 0; i < 3; i++ {
		if err := e.mgr.TryPatchCanvasSurface(); err != nil {
			t.Fatalf("canvas patch %d: %v", i, err)
		}
		if err := e.mgr.TryPatchItemSurface(); err != nil {
			t.Fatalf("item patch %d: %v", i, err)
		}
	}
	if !c.Surface().Patched(workspace.MethodAddItem, TokenItemAdded) {
		t.Error("addItem token missing")
	}

	added := 0
	e.bus.Subscribe(eventbus.ItemAdded, func(ev eventbus.Event) {
		if _, ok := ev.Payload.(*workspace.Item); !ok {
			t.Errorf("payload = %T", ev.Payload)
		}
		added++
	})

	it, err := c.CreateTextNode("hello", workspace.Geometry{Width: 100, Height: 50})
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("ItemAdded published %d times", added)
	}
	toggles := 0
	for _, el := range it.El.Children() {
		if el.Class == header.ToggleClass {
			toggles++
		}
	}
	if toggles != 1 {
		t.Errorf("toggles on new item = %d, want 1", toggles)
	}
}

func TestRetrofitCoversEveryOpenCanvas(t *testing.T) {
	e := newEnv(t)
	e.writeCanvas(t, "a.canvas", "a1", "a2")
	e.writeCanvas(t, "b.canvas", "b1")
	a, _ := e.ws.OpenFile("a.canvas")
	b, _ := e.ws.OpenInNewLeaf("b.canvas")

	if err := e.mgr.TryPatchItemSurface(); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*workspace.Canvas{a, b} {
		for _, it := range c.Items() {
			headerOf(t, it)
		}
	}
}

func TestDeleteSelectionUnpinsBeforeDeletion(t *testing.T) {
	e := newEnv(t)
	e.writeCanvas(t, "daily-canvas/2024-01-02.canvas", "n1", "n2", "n3")
	_ = e.pins.SetCurrentKey("2024-01-02")
	e.mgr.Start()
	c, _ := e.ws.OpenFile("daily-canvas/2024-01-02.canvas")
	_ = e.pins.Pin("n1")
	_ = e.pins.Pin("n3")

	var seen []string
	e.bus.Subscribe(eventbus.SelectionDeleting, func(ev eventbus.Event) {
		for _, it := range ev.Payload.([]*workspace.Item) {
			// Still resolvable in the live canvas at this point.
			if c.Item(it.ID) == nil {
				t.Errorf("%s already removed before hook", it.ID)
			}
			seen = append(seen, it.ID)
		}
	})

	_ = c.Select("n1", "n2")
	if err := c.DeleteSelection(); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 2 {
		t.Errorf("selection seen = %v", seen)
	}
	if e.pins.IsPinned("n1") {
		t.Error("deleted pinned item still pinned")
	}
	if !e.pins.IsPinned("n3") {
		t.Error("unselected pin lost")
	}
}

func TestDestroyReleasesHeader(t *testing.T) {
	e := newEnv(t)
	e.writeCanvas(t, "c.canvas", "n1", "n2")
	e.mgr.Start()
	c, _ := e.ws.OpenFile("c.canvas")
	n1 := c.Item("n1")
	headerOf(t, n1)

	destroyed := 0
	e.bus.Subscribe(eventbus.ItemDestroyed, func(eventbus.Event) { destroyed++ })
	before := e.bus.Len()

	e.ws.CloseLeaf(e.ws.ActiveLeaf())

	if n1.Attachment() != nil {
		t.Error("header not released on destroy")
	}
	if destroyed != 2 {
		t.Errorf("ItemDestroyed = %d, want 2", destroyed)
	}
	if e.bus.Len() != before-2 {
		t.Errorf("header subscriptions leaked: %d -> %d", before, e.bus.Len())
	}
}
