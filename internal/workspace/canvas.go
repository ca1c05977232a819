package workspace

import (
	"encoding/json"
	"fmt"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/surface"
)

// Mutator method names on the canvas surface.
const (
	MethodAddItem         = "addItem"
	MethodDeleteSelection = "deleteSelection"
)

// Canvas is an open canvas resource. Its mutators dispatch through the
// canvas behavior surface shared by every canvas in the workspace.
type Canvas struct {
	// Path is the vault path of the backing file.
	Path string
	// El is the canvas root element that item elements attach to.
	El *Element

	ws        *Workspace
	surface   *surface.Surface[*Canvas]
	items     map[string]*Item
	order     []string
	selection map[string]struct{}
	edges     []json.RawMessage
	loading   bool
	closed    bool
}

// FileNodeOptions configures CreateFileNode.
type FileNodeOptions struct {
	File     string
	Geometry Geometry
	Save     bool
}

// Key returns the rotation key encoded in the canvas file name.
func (c *Canvas) Key() string { return canvas.KeyFromPath(c.Path) }

// Surface returns the behavior surface this canvas dispatches through.
func (c *Canvas) Surface() *surface.Surface[*Canvas] { return c.surface }

// Closed reports whether the canvas has been closed.
func (c *Canvas) Closed() bool { return c.closed }

// Items returns the canvas items in insertion order.
func (c *Canvas) Items() []*Item {
	out := make([]*Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Item returns the item with id, or nil.
func (c *Canvas) Item(id string) *Item { return c.items[id] }

// Selection returns the selected items in canvas order.
func (c *Canvas) Selection() []*Item {
	var out []*Item
	for _, id := range c.order {
		if _, ok := c.selection[id]; ok {
			out = append(out, c.items[id])
		}
	}
	return out
}

// Select replaces the selection with ids. Unknown ids are rejected and
// leave the selection untouched.
func (c *Canvas) Select(ids ...string) error {
	for _, id := range ids {
		if _, ok := c.items[id]; !ok {
			return fmt.Errorf("workspace: select %q: %w", id, apperr.ErrNotFound)
		}
	}
	c.selection = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		c.selection[id] = struct{}{}
	}
	return nil
}

// AddItem adds it to the canvas.
func (c *Canvas) AddItem(it *Item) error {
	_, err := c.surface.Call(c, MethodAddItem, it)
	return err
}

// DeleteSelection destroys and removes every selected item.
func (c *Canvas) DeleteSelection() error {
	_, err := c.surface.Call(c, MethodDeleteSelection)
	return err
}

// CreateFileNode adds a file item referencing opts.File.
func (c *Canvas) CreateFileNode(opts FileNodeOptions) (*Item, error) {
	it := c.ws.NewItem(canvas.Node{
		ID:     c.ws.newID(),
		Type:   canvas.KindFile,
		File:   opts.File,
		X:      opts.Geometry.X,
		Y:      opts.Geometry.Y,
		Width:  opts.Geometry.Width,
		Height: opts.Geometry.Height,
	})
	if err := c.AddItem(it); err != nil {
		return nil, err
	}
	if opts.Save {
		if err := c.Save(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// CreateTextNode adds a text item.
func (c *Canvas) CreateTextNode(text string, g Geometry) (*Item, error) {
	it := c.ws.NewItem(canvas.Node{
		ID: c.ws.newID(), Type: canvas.KindText, Text: text,
		X: g.X, Y: g.Y, Width: g.Width, Height: g.Height,
	})
	if err := c.AddItem(it); err != nil {
		return nil, err
	}
	return it, nil
}

// Data returns the serializable content of the canvas.
func (c *Canvas) Data() *canvas.Data {
	d := &canvas.Data{Nodes: make([]canvas.Node, 0, len(c.order)), Edges: c.edges}
	for _, it := range c.Items() {
		d.Nodes = append(d.Nodes, it.Node())
	}
	return d
}

// Save writes the canvas back to its file.
func (c *Canvas) Save() error {
	raw, err := canvas.Marshal(c.Data())
	if err != nil {
		return err
	}
	if err := c.ws.store.Write(c.Path, raw); err != nil {
		return fmt.Errorf("workspace: save %s: %w", c.Path, err)
	}
	return nil
}

func (c *Canvas) requestSave() error {
	if c.loading || c.closed {
		return nil
	}
	return c.Save()
}

func newCanvasSurface() *surface.Surface[*Canvas] {
	s := surface.New[*Canvas]("canvas", nil)

	s.Define(MethodAddItem, func(c *Canvas, args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("workspace: addItem: want 1 arg, got %d", len(args))
		}
		it, ok := args[0].(*Item)
		if !ok || it == nil {
			return nil, fmt.Errorf("workspace: addItem: argument is %T", args[0])
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("workspace: addItem %q: %w", it.ID, apperr.ErrAlreadyExists)
		}
		it.canvas = c
		c.items[it.ID] = it
		c.order = append(c.order, it.ID)
		if err := it.Initialize(); err != nil {
			return nil, err
		}
		return it, c.requestSave()
	})

	s.Define(MethodDeleteSelection, func(c *Canvas, _ ...any) (any, error) {
		selected := c.Selection()
		for _, it := range selected {
			c.remove(it.ID)
			if err := it.Destroy(); err != nil {
				return nil, err
			}
		}
		c.selection = map[string]struct{}{}
		return nil, c.requestSave()
	})

	return s
}

func (c *Canvas) remove(id string) {
	delete(c.items, id)
	for i, cur := range c.order {
		if cur == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}
