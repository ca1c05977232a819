// Package header renders the pin toggle that sits on top of every live
// canvas item and keeps it in sync with the pin store.
package header

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/workspace"
)

// ToggleClass is the class of the toggle element inside an item.
const ToggleClass = "pin-toggle"

// Pins is the pin state a header reads and toggles.
type Pins interface {
	IsPinned(id string) bool
	IsLatestRotation(key string) bool
	Toggle(id string) error
}

// Header is the pin toggle bound to one item for the item's lifetime. It
// references the item but never owns it: the item's destroy behavior
// detaches the header, not the other way round.
type Header struct {
	item   *workspace.Item
	pins   Pins
	logger *slog.Logger

	el          *workspace.Element
	unsubscribe func()
}

// Attach renders a toggle into item's element and subscribes it to
// SettingsChanged. The item must be initialized and carry no header yet.
func Attach(item *workspace.Item, pins Pins, bus *eventbus.Bus, logger *slog.Logger) (*Header, error) {
	if item.El == nil {
		return nil, fmt.Errorf("header: item %s has no element: %w", item.ID, apperr.ErrInvariant)
	}
	if item.Attachment() != nil {
		return nil, fmt.Errorf("header: item %s: %w", item.ID, apperr.ErrAlreadyExists)
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Header{item: item, pins: pins, logger: logger}
	h.el = item.El.CreateChild("button", ToggleClass)
	h.el.OnClick(h.press)
	h.unsubscribe = bus.Subscribe(eventbus.SettingsChanged, func(eventbus.Event) { h.Refresh() })
	item.SetAttachment(h)
	h.Refresh()
	return h, nil
}

// Item returns the item the header is bound to.
func (h *Header) Item() *workspace.Item { return h.item }

// Element returns the toggle element.
func (h *Header) Element() *workspace.Element { return h.el }

// Visible reports whether the toggle is shown: only items of the latest
// rotation can be pinned.
func (h *Header) Visible() bool { return !h.el.Hidden() }

// Pressed reports whether the toggle shows the item as pinned.
func (h *Header) Pressed() bool { return h.el.Attr("aria-pressed") == "true" }

// Refresh recomputes visibility and pressed state from the pin store.
func (h *Header) Refresh() {
	c := h.item.Canvas()
	visible := c != nil && h.pins.IsLatestRotation(c.Key())
	pinned := h.pins.IsPinned(h.item.ID)

	h.el.SetHidden(!visible)
	h.el.SetAttr("aria-pressed", strconv.FormatBool(pinned))
	h.el.SetAttr("aria-label", label(pinned))
	h.el.SetText(Badge(pinned))
}

// press toggles the pin. Rendered state converges through SettingsChanged.
func (h *Header) press() {
	if err := h.pins.Toggle(h.item.ID); err != nil {
		h.logger.Error("header: toggle pin failed",
			slog.String("id", h.item.ID),
			slog.String("error", err.Error()))
	}
}

// Detach removes the toggle and stops listening for changes.
func (h *Header) Detach() {
	if h.unsubscribe == nil {
		return
	}
	h.unsubscribe()
	h.unsubscribe = nil
	h.el.Remove()
	if h.item.Attachment() == h {
		h.item.SetAttachment(nil)
	}
}

func label(pinned bool) string {
	if pinned {
		return "Unpin"
	}
	return "Pin"
}
