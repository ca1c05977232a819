// Package workspace is the host document-canvas application: open canvases
// arranged in leaves (panes), their items, the selection, and a layout-change
// signal. Canvas and item behavior is dispatched through shared behavior
// surfaces so it can be augmented without touching instances.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/storage"
	"github.com/starford/dailycanvas/internal/surface"
)

const layoutChange eventbus.Topic = "layout-change"

// Leaf is a pane that shows at most one canvas.
type Leaf struct {
	ID     int
	canvas *Canvas
}

// Canvas returns the canvas shown in the leaf, or nil.
func (l *Leaf) Canvas() *Canvas { return l.canvas }

// Workspace holds the open leaves and the shared behavior surfaces.
type Workspace struct {
	store  storage.Provider
	logger *slog.Logger
	events *eventbus.Bus
	newID  func() string

	canvasSurface *surface.Surface[*Canvas]
	itemVariants  map[string]*surface.Surface[*Item]

	leaves []*Leaf
	active *Leaf
	nextID int
}

// Option customizes a Workspace.
type Option func(*Workspace)

// WithIDGenerator overrides item id generation.
func WithIDGenerator(gen func() string) Option {
	return func(w *Workspace) { w.newID = gen }
}

// New creates an empty workspace over store.
func New(store storage.Provider, logger *slog.Logger, opts ...Option) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	_, variants := newItemSurfaces()
	w := &Workspace{
		store:         store,
		logger:        logger,
		events:        eventbus.New(),
		newID:         NodeID,
		canvasSurface: newCanvasSurface(),
		itemVariants:  variants,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NodeID returns a fresh 16-hex-character item identifier, the shape the
// host uses for canvas nodes.
func NodeID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Store returns the vault provider backing the workspace.
func (w *Workspace) Store() storage.Provider { return w.store }

// OnLayoutChange registers fn to run whenever leaves open, close or switch
// canvases. The returned func unregisters it.
func (w *Workspace) OnLayoutChange(fn func()) func() {
	return w.events.Subscribe(layoutChange, func(eventbus.Event) { fn() })
}

func (w *Workspace) layoutChanged() {
	w.events.Publish(eventbus.Event{Topic: layoutChange})
}

// NewItem builds an uninitialized item from its serialized form. Unknown
// kinds fall back to the text variant.
func (w *Workspace) NewItem(n canvas.Node) *Item {
	s, ok := w.itemVariants[n.Type]
	if !ok {
		s = w.itemVariants[canvas.KindText]
	}
	return &Item{
		ID:       n.ID,
		Kind:     n.Type,
		Geometry: Geometry{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height},
		Text:     n.Text,
		File:     n.File,
		Subpath:  n.Subpath,
		URL:      n.URL,
		Label:    n.Label,
		Color:    n.Color,

		Background:      n.Background,
		BackgroundStyle: n.BackgroundStyle,
		Extra:           n.Extra,
		surface:         s,
	}
}

// Leaves returns the open leaves.
func (w *Workspace) Leaves() []*Leaf {
	out := make([]*Leaf, len(w.leaves))
	copy(out, w.leaves)
	return out
}

// ActiveLeaf returns the focused leaf, or nil.
func (w *Workspace) ActiveLeaf() *Leaf { return w.active }

// SetActiveLeaf focuses l.
func (w *Workspace) SetActiveLeaf(l *Leaf) {
	if w.active == l {
		return
	}
	w.active = l
	w.layoutChanged()
}

// ActiveCanvas returns the canvas in the focused leaf, or nil.
func (w *Workspace) ActiveCanvas() *Canvas {
	if w.active == nil {
		return nil
	}
	return w.active.canvas
}

// Canvases returns every open canvas.
func (w *Workspace) Canvases() []*Canvas {
	var out []*Canvas
	for _, l := range w.leaves {
		if l.canvas != nil {
			out = append(out, l.canvas)
		}
	}
	return out
}

// GetLeaf returns the focused leaf, creating one when none exists.
func (w *Workspace) GetLeaf() *Leaf {
	if w.active != nil {
		return w.active
	}
	return w.newLeaf()
}

func (w *Workspace) newLeaf() *Leaf {
	w.nextID++
	l := &Leaf{ID: w.nextID}
	w.leaves = append(w.leaves, l)
	w.active = l
	return l
}

// OpenFile opens path in the focused leaf, replacing what it showed.
func (w *Workspace) OpenFile(path string) (*Canvas, error) {
	return w.open(w.GetLeaf(), path)
}

// OpenInNewLeaf opens path in a new leaf and focuses it.
func (w *Workspace) OpenInNewLeaf(path string) (*Canvas, error) {
	return w.open(w.newLeaf(), path)
}

// CloseLeaf closes l and the canvas it shows.
func (w *Workspace) CloseLeaf(l *Leaf) {
	for i, cur := range w.leaves {
		if cur == l {
			w.leaves = append(w.leaves[:i:i], w.leaves[i+1:]...)
			break
		}
	}
	if l.canvas != nil {
		w.closeCanvas(l.canvas)
		l.canvas = nil
	}
	if w.active == l {
		w.active = nil
		if n := len(w.leaves); n > 0 {
			w.active = w.leaves[n-1]
		}
	}
	w.layoutChanged()
}

func (w *Workspace) open(l *Leaf, path string) (*Canvas, error) {
	if !strings.HasSuffix(path, canvas.Ext) {
		return nil, fmt.Errorf("workspace: open %s: not a canvas file", path)
	}
	raw, err := w.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("workspace: open %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	data, err := canvas.Parse(raw)
	if err != nil {
		return nil, err
	}

	if l.canvas != nil {
		w.closeCanvas(l.canvas)
	}
	c := &Canvas{
		Path:      path,
		El:        NewElement("div", "canvas"),
		ws:        w,
		surface:   w.canvasSurface,
		items:     map[string]*Item{},
		selection: map[string]struct{}{},
		edges:     data.Edges,
	}
	l.canvas = c
	w.active = l
	w.layoutChanged()

	// The view exists before its content loads.
	c.loading = true
	defer func() { c.loading = false }()
	for _, n := range data.Nodes {
		if err := c.AddItem(w.NewItem(n)); err != nil {
			w.logger.Warn("workspace: load item failed",
				slog.String("path", path),
				slog.String("id", n.ID),
				slog.String("error", err.Error()))
		}
	}
	w.logger.Debug("workspace: opened", slog.String("path", path), slog.Int("items", len(c.order)))
	return c, nil
}

func (w *Workspace) closeCanvas(c *Canvas) {
	c.closed = true
	for _, it := range c.Items() {
		if err := it.Destroy(); err != nil {
			w.logger.Warn("workspace: destroy item failed",
				slog.String("id", it.ID),
				slog.String("error", err.Error()))
		}
	}
}
