package internal

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvasservice"
	"github.com/starford/dailycanvas/internal/command"
	"github.com/starford/dailycanvas/internal/rotation"
	"github.com/starford/dailycanvas/internal/storage"
	"github.com/starford/dailycanvas/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	return cfg
}

func day(d int) Option {
	return WithClock(func() time.Time { return time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC) })
}

func exec(t *testing.T, cfg *Config, d int, fn func(ctx context.Context, svc *canvasservice.Service) error) {
	t.Helper()
	err := Exec(context.Background(), fn, WithConfig(cfg), WithLogOutput(io.Discard), day(d))
	if err != nil {
		t.Fatalf("Exec day %d: %v", d, err)
	}
}

func TestExec_RequiresConfig(t *testing.T) {
	err := Exec(context.Background(), func(context.Context, *canvasservice.Service) error { return nil })
	if err == nil {
		t.Fatal("expected error without config")
	}
}

func TestExec_PinnedItemsCarryToNextDay(t *testing.T) {
	cfg := testConfig(t)

	// First run creates an empty canvas and records the rotation.
	exec(t, cfg, 1, func(ctx context.Context, svc *canvasservice.Service) error {
		c, err := svc.ActiveCanvas(ctx)
		if err != nil {
			return err
		}
		if c.Key != "2024-01-01" || !c.Latest {
			t.Errorf("active = %+v", c)
		}
		return nil
	})

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.WriteCanvas(t, store, "daily-canvas/2024-01-01.canvas", "a", "b", "c")

	// Same day: the existing canvas is reopened and b gets pinned.
	exec(t, cfg, 1, func(ctx context.Context, svc *canvasservice.Service) error {
		if _, err := svc.Select(ctx, []string{"b"}); err != nil {
			return err
		}
		_, err := svc.Execute(ctx, command.PinSelection)
		return err
	})

	exec(t, cfg, 2, func(ctx context.Context, svc *canvasservice.Service) error {
		c, err := svc.ActiveCanvas(ctx)
		if err != nil {
			return err
		}
		if c.Key != "2024-01-02" {
			t.Errorf("key = %q", c.Key)
		}
		var ids []string
		for _, it := range c.Items {
			if it.Kind == "text" {
				ids = append(ids, it.ID)
			}
		}
		if diff := cmp.Diff([]string{"b"}, ids); diff != "" {
			t.Errorf("carried text items mismatch (-want +got):\n%s", diff)
		}
		if got := svc.Settings(ctx).PinnedItemIDs; !cmp.Equal(got, []string{"b"}) {
			t.Errorf("pins = %v", got)
		}
		return nil
	})

	if !store.Exists("journal/2024-01-02.md") {
		t.Error("linked note for the new day was not written")
	}
}

func TestExec_OpenTodayIsIdempotentWithinADay(t *testing.T) {
	cfg := testConfig(t)
	exec(t, cfg, 5, func(ctx context.Context, svc *canvasservice.Service) error {
		res, err := svc.Execute(ctx, command.OpenToday)
		if err != nil {
			return err
		}
		out, ok := res.(rotation.Outcome)
		if !ok {
			t.Fatalf("result type %T", res)
		}
		if out.Created {
			t.Error("second open on the same day should not create")
		}
		return nil
	})
}

func TestExec_PinWithoutSelectionIsInapplicable(t *testing.T) {
	cfg := testConfig(t)
	exec(t, cfg, 5, func(ctx context.Context, svc *canvasservice.Service) error {
		_, err := svc.Execute(ctx, command.PinSelection)
		if !errors.Is(err, apperr.ErrInapplicable) {
			t.Errorf("err = %v, want inapplicable", err)
		}
		return nil
	})
}
