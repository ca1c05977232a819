// Package command holds the operator commands and their availability checks.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/starford/dailycanvas/internal/apperr"
)

// Command is one operator action. Check reports whether Run applies right
// now; a command that does not apply is refused, not failed.
type Command struct {
	ID    string
	Name  string
	Check func() bool
	Run   func(ctx context.Context) (any, error)
}

// Registry holds the registered commands by id.
type Registry struct {
	mu     sync.RWMutex
	cmds   map[string]Command
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{cmds: map[string]Command{}, logger: logger}
}

// Register adds cmd. Ids are unique.
func (r *Registry) Register(cmd Command) error {
	if cmd.ID == "" || cmd.Run == nil {
		return fmt.Errorf("command: id and run are required: %w", apperr.ErrInvariant)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cmds[cmd.ID]; ok {
		return fmt.Errorf("command %s: %w", cmd.ID, apperr.ErrAlreadyExists)
	}
	r.cmds[cmd.ID] = cmd
	return nil
}

// Get returns the command registered under id.
func (r *Registry) Get(id string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[id]
	return cmd, ok
}

// List returns every command sorted by id.
func (r *Registry) List() []Command {
	r.mu.RLock()
	out := make([]Command, 0, len(r.cmds))
	for _, c := range r.cmds {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Available reports whether the command applies right now.
func (r *Registry) Available(id string) bool {
	cmd, ok := r.Get(id)
	return ok && (cmd.Check == nil || cmd.Check())
}

// Execute runs the command after checking it applies. A refused command
// returns apperr.ErrInapplicable and has no effect.
func (r *Registry) Execute(ctx context.Context, id string) (any, error) {
	cmd, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("command %s: %w", id, apperr.ErrNotFound)
	}
	if cmd.Check != nil && !cmd.Check() {
		r.logger.Debug("command: not applicable", slog.String("id", id))
		return nil, fmt.Errorf("command %s: %w", id, apperr.ErrInapplicable)
	}
	res, err := cmd.Run(ctx)
	if err != nil {
		r.logger.Error("command: failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}
	r.logger.Info("command: executed", slog.String("id", id))
	return res, nil
}
