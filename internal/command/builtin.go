package command

import (
	"context"
	"time"

	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/rotation"
	"github.com/starford/dailycanvas/internal/workspace"
)

// Command ids.
const (
	OpenToday      = "open-today"
	PinSelection   = "pin-selection"
	UnpinSelection = "unpin-selection"
	AddLinkedNote  = "add-linked-note"
)

// Host exposes the active canvas.
type Host interface {
	ActiveCanvas() *workspace.Canvas
}

// Pins is the pin-set surface the selection commands mutate.
type Pins interface {
	IsLatestRotation(key string) bool
	PinAll(ids []string) error
	UnpinAll(ids []string) error
}

// Rotator opens today's canvas.
type Rotator interface {
	OpenToday(ctx context.Context) (rotation.Outcome, error)
}

// Deps wires the built-in commands.
type Deps struct {
	Host      Host
	Pins      Pins
	Scheduler Rotator
	Notes     rotation.LinkedNote
}

// Selection is the result of the pin and unpin commands.
type Selection struct {
	Canvas string   `json:"canvas"`
	IDs    []string `json:"ids"`
}

// RegisterBuiltins registers the four operator commands on r.
func RegisterBuiltins(r *Registry, d Deps) error {
	cmds := []Command{
		{
			ID:   OpenToday,
			Name: "Open today's canvas",
			Run: func(ctx context.Context) (any, error) {
				return d.Scheduler.OpenToday(ctx)
			},
		},
		{
			ID:    PinSelection,
			Name:  "Pin selected items",
			Check: func() bool { return selectionApplies(d) },
			Run: func(context.Context) (any, error) {
				return applySelection(d, d.Pins.PinAll)
			},
		},
		{
			ID:    UnpinSelection,
			Name:  "Unpin selected items",
			Check: func() bool { return selectionApplies(d) },
			Run: func(context.Context) (any, error) {
				return applySelection(d, d.Pins.UnpinAll)
			},
		},
		{
			ID:   AddLinkedNote,
			Name: "Add daily note to canvas",
			Check: func() bool {
				c := d.Host.ActiveCanvas()
				if c == nil || d.Notes == nil {
					return false
				}
				_, err := time.Parse(canvas.KeyLayout, c.Key())
				return err == nil
			},
			Run: func(context.Context) (any, error) {
				c := d.Host.ActiveCanvas()
				if err := d.Notes.Inject(c); err != nil {
					return nil, err
				}
				return c.Path, nil
			},
		},
	}
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// selectionApplies holds when a canvas is active, it is the latest
// rotation, and something is selected.
func selectionApplies(d Deps) bool {
	c := d.Host.ActiveCanvas()
	if c == nil || !d.Pins.IsLatestRotation(c.Key()) {
		return false
	}
	return len(c.Selection()) > 0
}

func applySelection(d Deps, apply func([]string) error) (Selection, error) {
	c := d.Host.ActiveCanvas()
	sel := Selection{Canvas: c.Path, IDs: []string{}}
	for _, it := range c.Selection() {
		sel.IDs = append(sel.IDs, it.ID)
	}
	if err := apply(sel.IDs); err != nil {
		return Selection{}, err
	}
	return sel, nil
}
