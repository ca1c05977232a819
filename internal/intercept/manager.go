// Package intercept makes canvas and item lifecycle observable by augmenting
// the host's shared behavior surfaces at runtime. Each augmentation is
// applied at most once per process; attempts made before a target object
// exists are retried from one-shot listeners instead of polling.
package intercept

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/header"
	"github.com/starford/dailycanvas/internal/surface"
	"github.com/starford/dailycanvas/internal/workspace"
)

// Patch tokens, one per (surface, method) augmentation.
const (
	TokenItemAdded     = "dailycanvas/item-added"
	TokenUnpinOnDelete = "dailycanvas/unpin-on-delete"
	TokenAttachHeader  = "dailycanvas/attach-header"
	TokenReleaseHeader = "dailycanvas/release-header"
)

// Host is the part of the workspace the manager needs.
type Host interface {
	ActiveCanvas() *workspace.Canvas
	Canvases() []*workspace.Canvas
	OnLayoutChange(fn func()) func()
}

// Pins is the pin state the manager reads and clears.
type Pins interface {
	header.Pins
	Unpin(id string) error
}

// Manager owns the canvas and item surface patches.
type Manager struct {
	host   Host
	bus    *eventbus.Bus
	pins   Pins
	logger *slog.Logger

	canvasPatched atomic.Bool
	itemPatched   atomic.Bool
}

// New creates a manager. Nothing is patched until Start or a Try call.
func New(host Host, bus *eventbus.Bus, pins Pins, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{host: host, bus: bus, pins: pins, logger: logger}
}

// CanvasPatched reports whether the canvas surface has been augmented.
func (m *Manager) CanvasPatched() bool { return m.canvasPatched.Load() }

// ItemPatched reports whether the item surface has been augmented.
func (m *Manager) ItemPatched() bool { return m.itemPatched.Load() }

// Start attempts both patches once. A patch whose target does not exist
// yet is retried when the host reports a layout change (canvas) or when the
// first item is added (item); the listener removes itself on success.
func (m *Manager) Start() {
	m.attempt("canvas", m.TryPatchCanvasSurface, m.host.OnLayoutChange)
	m.attempt("item", m.TryPatchItemSurface, func(retry func()) func() {
		return m.bus.Subscribe(eventbus.ItemAdded, func(eventbus.Event) { retry() })
	})
}

func (m *Manager) attempt(name string, op func() error, register func(func()) func()) {
	err := op()
	if err == nil {
		return
	}
	if !errors.Is(err, apperr.ErrNotReady) {
		m.inert(name, err)
		return
	}
	m.logger.Debug("intercept: target not ready, deferring", slog.String("surface", name))

	var unsubscribe func()
	done := false
	unsubscribe = register(func() {
		if done {
			return
		}
		err := op()
		if errors.Is(err, apperr.ErrNotReady) {
			return
		}
		done = true
		unsubscribe()
		if err != nil {
			m.inert(name, err)
		}
	})
}

func (m *Manager) inert(name string, err error) {
	m.logger.Error("intercept: patch failed, feature inert for this session",
		slog.String("surface", name),
		slog.String("error", err.Error()))
}

// TryPatchCanvasSurface augments the surface shared by every canvas:
// addItem publishes ItemAdded after it runs, and deleteSelection unpins
// every selected item before it runs, while the ids still resolve against
// the live selection.
func (m *Manager) TryPatchCanvasSurface() error {
	c := m.anyCanvas()
	if c == nil {
		return apperr.ErrNotReady
	}
	s := c.Surface()

	if _, err := surface.Wrap(s, workspace.MethodAddItem, TokenItemAdded, surface.Hooks[*workspace.Canvas]{
		After: func(_ *workspace.Canvas, args []any, _ any) {
			it, _ := args[0].(*workspace.Item)
			m.bus.Publish(eventbus.Event{Topic: eventbus.ItemAdded, Payload: it})
		},
	}); err != nil {
		return fmt.Errorf("intercept: canvas surface: %w", err)
	}

	if _, err := surface.Wrap(s, workspace.MethodDeleteSelection, TokenUnpinOnDelete, surface.Hooks[*workspace.Canvas]{
		Before: func(c *workspace.Canvas, _ []any) {
			selected := c.Selection()
			m.bus.Publish(eventbus.Event{Topic: eventbus.SelectionDeleting, Payload: selected})
			for _, it := range selected {
				if err := m.pins.Unpin(it.ID); err != nil {
					m.logger.Error("intercept: unpin on delete failed",
						slog.String("id", it.ID),
						slog.String("error", err.Error()))
				}
			}
		},
	}); err != nil {
		return fmt.Errorf("intercept: canvas surface: %w", err)
	}

	if m.canvasPatched.CompareAndSwap(false, true) {
		m.logger.Info("intercept: canvas surface patched", slog.String("surface", s.Name()))
	}
	return nil
}

// TryPatchItemSurface augments the highest item surface that defines
// initialize, so that every item variant, including ones added later, is
// covered: initialize attaches a pin header and destroy releases it.
// Items that were initialized before the patch get headers immediately.
func (m *Manager) TryPatchItemSurface() error {
	it := m.anyItem()
	if it == nil {
		return apperr.ErrNotReady
	}
	s := it.Surface().Highest(workspace.MethodInitialize)
	if s == nil || !s.Defines(workspace.MethodDestroy) {
		return fmt.Errorf("intercept: item surface of %s: %w", it.ID, apperr.ErrUnrecognizedSurface)
	}

	applied, err := surface.Wrap(s, workspace.MethodInitialize, TokenAttachHeader, surface.Hooks[*workspace.Item]{
		After: func(it *workspace.Item, _ []any, _ any) { m.attachHeader(it) },
	})
	if err != nil {
		return fmt.Errorf("intercept: item surface: %w", err)
	}
	if _, err := surface.Wrap(s, workspace.MethodDestroy, TokenReleaseHeader, surface.Hooks[*workspace.Item]{
		After: func(it *workspace.Item, _ []any, _ any) {
			m.releaseHeader(it)
			m.bus.Publish(eventbus.Event{Topic: eventbus.ItemDestroyed, Payload: it})
		},
	}); err != nil {
		return fmt.Errorf("intercept: item surface: %w", err)
	}

	if applied {
		m.retrofit()
	}
	if m.itemPatched.CompareAndSwap(false, true) {
		m.logger.Info("intercept: item surface patched", slog.String("surface", s.Name()))
	}
	return nil
}

// retrofit attaches headers to items that ran initialize before the patch.
func (m *Manager) retrofit() {
	for _, c := range m.host.Canvases() {
		for _, it := range c.Items() {
			if it.Initialized() {
				m.attachHeader(it)
			}
		}
	}
}

func (m *Manager) attachHeader(it *workspace.Item) {
	if it.Attachment() != nil {
		m.logger.Debug("intercept: item already has a header", slog.String("id", it.ID))
		return
	}
	if _, err := header.Attach(it, m.pins, m.bus, m.logger); err != nil {
		m.logger.Error("intercept: attach header failed",
			slog.String("id", it.ID),
			slog.String("error", err.Error()))
	}
}

func (m *Manager) releaseHeader(it *workspace.Item) {
	if a := it.Attachment(); a != nil {
		a.Detach()
		it.SetAttachment(nil)
	}
}

func (m *Manager) anyCanvas() *workspace.Canvas {
	if c := m.host.ActiveCanvas(); c != nil {
		return c
	}
	if all := m.host.Canvases(); len(all) > 0 {
		return all[0]
	}
	return nil
}

func (m *Manager) anyItem() *workspace.Item {
	for _, c := range m.host.Canvases() {
		if items := c.Items(); len(items) > 0 {
			return items[0]
		}
	}
	return nil
}
