// Package canvasservice is the thread-safe facade the API, MCP server, and
// CLI share. Everything touching the workspace runs on the UI loop.
package canvasservice

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/command"
	"github.com/starford/dailycanvas/internal/index"
	"github.com/starford/dailycanvas/internal/models"
	"github.com/starford/dailycanvas/internal/pinstore"
	"github.com/starford/dailycanvas/internal/workspace"
)

// ItemDetail is one item of the active canvas.
type ItemDetail struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Text     string  `json:"text,omitempty"`
	File     string  `json:"file,omitempty"`
	URL      string  `json:"url,omitempty"`
	Label    string  `json:"label,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Pinned   bool    `json:"pinned"`
	Selected bool    `json:"selected"`
}

// CanvasDetail is the active canvas as clients see it.
type CanvasDetail struct {
	Path   string       `json:"path"`
	Key    string       `json:"key"`
	Latest bool         `json:"latest"`
	Items  []ItemDetail `json:"items"`
	Edges  int          `json:"edges"`
}

// CommandInfo describes one command and whether it applies right now.
type CommandInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Service coordinates the workspace, commands, pins, and index.
type Service struct {
	loop *workspace.Loop
	ws   *workspace.Workspace
	reg  *command.Registry
	pins *pinstore.Store
	db   index.CanvasIndex
}

// NewService creates a service. db may be nil, in which case search and
// rotation history return empty results.
func NewService(loop *workspace.Loop, ws *workspace.Workspace, reg *command.Registry, pins *pinstore.Store, db index.CanvasIndex) *Service {
	return &Service{loop: loop, ws: ws, reg: reg, pins: pins, db: db}
}

// ActiveCanvas returns the canvas shown in the focused leaf.
func (s *Service) ActiveCanvas(ctx context.Context) (*CanvasDetail, error) {
	var out *CanvasDetail
	err := s.loop.Do(ctx, func() error {
		c := s.ws.ActiveCanvas()
		if c == nil {
			return fmt.Errorf("active canvas: %w", apperr.ErrNotFound)
		}
		out = s.buildCanvasDetail(c)
		return nil
	})
	return out, err
}

// Select replaces the active canvas's selection.
func (s *Service) Select(ctx context.Context, ids []string) (*CanvasDetail, error) {
	var out *CanvasDetail
	err := s.loop.Do(ctx, func() error {
		c := s.ws.ActiveCanvas()
		if c == nil {
			return fmt.Errorf("active canvas: %w", apperr.ErrNotFound)
		}
		if err := c.Select(ids...); err != nil {
			return err
		}
		out = s.buildCanvasDetail(c)
		return nil
	})
	return out, err
}

// Execute runs a command on the loop.
func (s *Service) Execute(ctx context.Context, id string) (any, error) {
	var res any
	err := s.loop.Do(ctx, func() error {
		var err error
		res, err = s.reg.Execute(ctx, id)
		return err
	})
	return res, err
}

// Commands lists every command with its current availability.
func (s *Service) Commands(ctx context.Context) ([]CommandInfo, error) {
	var out []CommandInfo
	err := s.loop.Do(ctx, func() error {
		for _, c := range s.reg.List() {
			out = append(out, CommandInfo{ID: c.ID, Name: c.Name, Available: s.reg.Available(c.ID)})
		}
		return nil
	})
	return out, err
}

// Settings returns the persisted settings.
func (s *Service) Settings(_ context.Context) pinstore.Settings {
	st := s.pins.Snapshot()
	sort.Strings(st.PinnedItemIDs)
	return st
}

// Search delegates full-text item search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(query, limit)
}

// Rotations returns daily canvas history, newest first.
func (s *Service) Rotations(_ context.Context, limit int) ([]models.Rotation, error) {
	if s.db == nil {
		return []models.Rotation{}, nil
	}
	return s.db.Rotations(limit)
}

func (s *Service) buildCanvasDetail(c *workspace.Canvas) *CanvasDetail {
	selected := map[string]bool{}
	for _, it := range c.Selection() {
		selected[it.ID] = true
	}
	d := c.Data()
	out := &CanvasDetail{
		Path:   c.Path,
		Key:    c.Key(),
		Latest: s.pins.IsLatestRotation(c.Key()),
		Items:  make([]ItemDetail, 0, len(d.Nodes)),
		Edges:  len(d.Edges),
	}
	for _, n := range d.Nodes {
		out.Items = append(out.Items, ItemDetail{
			ID:       n.ID,
			Kind:     n.Type,
			Text:     n.Text,
			File:     n.File,
			URL:      n.URL,
			Label:    n.Label,
			X:        n.X,
			Y:        n.Y,
			Width:    n.Width,
			Height:   n.Height,
			Pinned:   s.pins.IsPinned(n.ID),
			Selected: selected[n.ID],
		})
	}
	return out
}
