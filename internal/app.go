package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/dailycanvas/internal/canvasservice"
	"github.com/starford/dailycanvas/internal/command"
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/index"
	"github.com/starford/dailycanvas/internal/intercept"
	"github.com/starford/dailycanvas/internal/journal"
	"github.com/starford/dailycanvas/internal/pinstore"
	"github.com/starford/dailycanvas/internal/rotation"
	"github.com/starford/dailycanvas/internal/storage"
	"github.com/starford/dailycanvas/internal/workspace"
)

// components is the wired object graph shared by every entry point.
type components struct {
	cfg    *Config
	logger *slog.Logger

	store     *storage.FS
	bus       *eventbus.Bus
	pins      *pinstore.Store
	ws        *workspace.Workspace
	intercept *intercept.Manager
	scheduler *rotation.Scheduler
	registry  *command.Registry
	loop      *workspace.Loop
	db        *index.DB
	svc       *canvasservice.Service
}

func (a *application) setup() (*components, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("daily_folder", cfg.Daily.Folder),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	bus := eventbus.New()

	pins, err := pinstore.Open(pinstore.VaultBlob{Store: store, Path: cfg.Vault.SettingsPath}, bus, cfg.Daily.Folder)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	ws := workspace.New(store, logger)

	mgr := intercept.New(ws, bus, pins, logger)
	mgr.Start()

	notes := journal.New(store, cfg.Daily.JournalFolder, cfg.Daily.NoteWidth, cfg.Daily.NoteHeight, logger)

	var schedOpts []rotation.Option
	if a.clock != nil {
		schedOpts = append(schedOpts, rotation.WithClock(a.clock))
	}
	sched := rotation.New(ws, pins, notes, bus, logger, schedOpts...)

	reg := command.NewRegistry(logger)
	if err := command.RegisterBuiltins(reg, command.Deps{
		Host:      ws,
		Pins:      pins,
		Scheduler: sched,
		Notes:     notes,
	}); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	loop := workspace.NewLoop()

	return &components{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		bus:       bus,
		pins:      pins,
		ws:        ws,
		intercept: mgr,
		scheduler: sched,
		registry:  reg,
		loop:      loop,
		db:        db,
		svc:       canvasservice.NewService(loop, ws, reg, pins, db),
	}, nil
}

// openToday runs the startup rotation on the loop. Failure is logged, not
// fatal: the operator can retry through the open-today command.
func (c *components) openToday(ctx context.Context) {
	res, err := c.svc.Execute(ctx, command.OpenToday)
	if err != nil {
		c.logger.Error("startup rotation failed", slog.String("error", err.Error()))
		return
	}
	if out, ok := res.(rotation.Outcome); ok {
		c.logger.Info("daily canvas ready",
			slog.String("key", out.Key),
			slog.String("path", out.Path),
			slog.Bool("created", out.Created),
			slog.Int("carried", len(out.Carried)))
	}
}

// reindex feeds a watcher change back to the UI loop so bus subscribers see
// it on the same goroutine as every other event.
func (c *components) reindex(ctx context.Context, ch index.Change) {
	err := c.loop.Do(ctx, func() error {
		c.bus.Publish(eventbus.Event{Topic: eventbus.ResourceChanged, Payload: ch})
		return nil
	})
	if err != nil && ctx.Err() == nil {
		c.logger.Warn("resource change dropped",
			slog.String("path", ch.Path),
			slog.String("error", err.Error()))
	}
}

func (c *components) close() {
	if err := c.db.Close(); err != nil {
		c.logger.Warn("close index", slog.String("error", err.Error()))
	}
}
