package workspace

import (
	"encoding/json"

	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/surface"
)

// Lifecycle method names on the item surfaces.
const (
	MethodInitialize = "initialize"
	MethodDestroy    = "destroy"
	MethodUnload     = "unload"
)

// Geometry is an item's position and size on the canvas.
type Geometry struct {
	X, Y, Width, Height float64
}

// Attachment is something an item carries for its lifetime and releases
// when destroyed (the pin header, for instance).
type Attachment interface {
	Detach()
}

// Item is a live canvas item. Its lifecycle methods dispatch through the
// behavior surface of its kind.
type Item struct {
	ID       string
	Kind     string
	Geometry Geometry
	Text     string
	File     string
	Subpath  string
	URL      string
	Label    string
	Color    string

	Background      string
	BackgroundStyle string
	// Extra holds serialized keys the workspace does not interpret.
	Extra map[string]json.RawMessage

	// El is the item's rendered container; nil until initialized.
	El *Element

	surface     *surface.Surface[*Item]
	canvas      *Canvas
	initialized bool
	attachment  Attachment
}

// Initialize runs the item's initialize behavior.
func (i *Item) Initialize() error {
	_, err := i.surface.Call(i, MethodInitialize)
	return err
}

// Destroy runs the item's destroy behavior.
func (i *Item) Destroy() error {
	_, err := i.surface.Call(i, MethodDestroy)
	return err
}

// Surface returns the behavior surface this item dispatches through.
func (i *Item) Surface() *surface.Surface[*Item] { return i.surface }

// Canvas returns the canvas the item belongs to, or nil before it is added.
func (i *Item) Canvas() *Canvas { return i.canvas }

// Initialized reports whether initialize has run and destroy has not.
func (i *Item) Initialized() bool { return i.initialized }

// Attachment returns the item's attachment, if any.
func (i *Item) Attachment() Attachment { return i.attachment }

// SetAttachment replaces the item's attachment.
func (i *Item) SetAttachment(a Attachment) { i.attachment = a }

// Node converts the item to its serialized form.
func (i *Item) Node() canvas.Node {
	return canvas.Node{
		ID:      i.ID,
		Type:    i.Kind,
		X:       i.Geometry.X,
		Y:       i.Geometry.Y,
		Width:   i.Geometry.Width,
		Height:  i.Geometry.Height,
		Color:   i.Color,
		Text:    i.Text,
		File:    i.File,
		Subpath: i.Subpath,
		URL:     i.URL,
		Label:   i.Label,

		Background:      i.Background,
		BackgroundStyle: i.BackgroundStyle,
		Extra:           i.Extra,
	}
}

// newItemSurfaces builds the item behavior chain:
//
//	component (unload) <- node (initialize, destroy) <- text|file|link|group
//
// Variants override initialize to render their content after the shared
// node behavior.
func newItemSurfaces() (node *surface.Surface[*Item], variants map[string]*surface.Surface[*Item]) {
	component := surface.New[*Item]("component", nil)
	component.Define(MethodUnload, func(i *Item, _ ...any) (any, error) {
		if i.El != nil {
			i.El.Remove()
		}
		return nil, nil
	})

	node = surface.New[*Item]("node", component)
	node.Define(MethodInitialize, func(i *Item, _ ...any) (any, error) {
		i.El = NewElement("div", "canvas-node")
		i.El.SetAttr("data-id", i.ID)
		if i.canvas != nil && i.canvas.El != nil {
			i.canvas.El.Append(i.El)
		}
		i.initialized = true
		return nil, nil
	})
	node.Define(MethodDestroy, func(i *Item, _ ...any) (any, error) {
		if _, err := node.Call(i, MethodUnload); err != nil {
			return nil, err
		}
		i.El = nil
		i.initialized = false
		return nil, nil
	})

	content := func(kind string, body func(*Item) string) *surface.Surface[*Item] {
		s := surface.New[*Item](kind, node)
		s.Define(MethodInitialize, func(i *Item, args ...any) (any, error) {
			if _, err := s.CallSuper(i, MethodInitialize, args...); err != nil {
				return nil, err
			}
			i.El.CreateChild("div", "canvas-node-content").SetText(body(i))
			return nil, nil
		})
		return s
	}

	variants = map[string]*surface.Surface[*Item]{
		canvas.KindText: content(canvas.KindText, func(i *Item) string { return i.Text }),
		canvas.KindFile: content(canvas.KindFile, func(i *Item) string { return i.File }),
		canvas.KindLink: content(canvas.KindLink, func(i *Item) string { return i.URL }),
		// Groups inherit initialize from node.
		canvas.KindGroup: surface.New[*Item](canvas.KindGroup, node),
	}
	return node, variants
}
