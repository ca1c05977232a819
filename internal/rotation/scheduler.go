// Package rotation resolves or creates the daily canvas and carries the
// pinned items of the previous rotation forward into a newly created one.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/storage"
	"github.com/starford/dailycanvas/internal/workspace"
)

// State is a step of one OpenToday invocation.
type State string

const (
	StateResolving State = "resolving"
	StateExisting  State = "existing"
	StateCreating  State = "creating"
	StateReady     State = "ready"
)

// Host is the part of the workspace the scheduler drives.
type Host interface {
	Store() storage.Provider
	OpenFile(path string) (*workspace.Canvas, error)
	ActiveCanvas() *workspace.Canvas
}

// Pins is the rotation record and pin set the scheduler reads and advances.
type Pins interface {
	Folder() string
	CurrentKey() (string, bool)
	SetCurrentKey(key string) error
	IsPinned(id string) bool
}

// LinkedNote injects the linked note into a freshly created canvas.
type LinkedNote interface {
	Inject(c *workspace.Canvas) error
}

// Outcome describes what OpenToday did.
type Outcome struct {
	Key     string   `json:"key"`
	Path    string   `json:"path"`
	Created bool     `json:"created"`
	Carried []string `json:"carried"`
}

// Scheduler runs the daily rotation.
type Scheduler struct {
	host   Host
	pins   Pins
	notes  LinkedNote
	bus    *eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source used to compute today's key.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler. notes and bus may be nil.
func New(host Host, pins Pins, notes LinkedNote, bus *eventbus.Bus, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{host: host, pins: pins, notes: notes, bus: bus, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentDateKey returns today's rotation key.
func (s *Scheduler) CurrentDateKey() string {
	return s.now().Format(canvas.KeyLayout)
}

// OpenToday opens today's canvas, creating it with the pinned carryover
// when it does not exist yet.
func (s *Scheduler) OpenToday(ctx context.Context) (Outcome, error) {
	return s.Open(ctx, s.CurrentDateKey())
}

// Open runs the rotation for key. Carryover happens only when the canvas
// is created; opening an existing canvas never touches its content or the
// rotation record.
func (s *Scheduler) Open(ctx context.Context, key string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Key: key, Path: canvas.PathFor(s.pins.Folder(), key), Carried: []string{}}
	s.step(StateResolving, out)

	if s.host.Store().Exists(out.Path) {
		s.step(StateExisting, out)
	} else {
		s.step(StateCreating, out)
		carried, err := s.create(out.Path, key)
		if err != nil {
			return out, err
		}
		out.Created = true
		out.Carried = carried
	}

	if _, err := s.host.OpenFile(out.Path); err != nil {
		return out, fmt.Errorf("rotation: open %s: %w", out.Path, err)
	}
	s.step(StateReady, out)

	if !out.Created {
		return out, nil
	}
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Topic: eventbus.RotationCreated, Payload: out})
	}
	if s.notes == nil {
		return out, nil
	}
	active := s.host.ActiveCanvas()
	if active == nil {
		return out, fmt.Errorf("rotation: active canvas missing after open: %w", apperr.ErrInvariant)
	}
	if err := s.notes.Inject(active); err != nil {
		return out, fmt.Errorf("rotation: inject linked note: %w", err)
	}
	return out, nil
}

func (s *Scheduler) create(path, key string) ([]string, error) {
	data := &canvas.Data{}
	if prev, ok := s.pins.CurrentKey(); ok {
		prior, err := s.readPrior(canvas.PathFor(s.pins.Folder(), prev))
		if err != nil {
			return nil, err
		}
		data = canvas.Carryover(prior, s.pins.IsPinned)
	}

	raw, err := canvas.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.host.Store().Create(path, raw); err != nil {
		return nil, fmt.Errorf("rotation: create %s: %w", path, err)
	}
	if err := s.pins.SetCurrentKey(key); err != nil {
		return nil, fmt.Errorf("rotation: record %s: %w", key, err)
	}

	carried := make([]string, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		carried = append(carried, n.ID)
	}
	s.logger.Info("rotation: created",
		slog.String("key", key),
		slog.String("path", path),
		slog.Int("carried", len(carried)))
	return carried, nil
}

// readPrior loads the previous rotation's canvas. A missing file is an
// empty carryover.
func (s *Scheduler) readPrior(path string) (*canvas.Data, error) {
	raw, err := s.host.Store().Read(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("rotation: previous canvas not found, nothing to carry over", slog.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rotation: read previous %s: %w", path, err)
	}
	return canvas.Parse(raw)
}

func (s *Scheduler) step(st State, out Outcome) {
	s.logger.Debug("rotation: "+string(st), slog.String("key", out.Key), slog.String("path", out.Path))
}
