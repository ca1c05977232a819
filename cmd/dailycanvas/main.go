package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dailycanvas/internal"
	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvasservice"
	"github.com/starford/dailycanvas/internal/command"
	renderer "github.com/starford/dailycanvas/internal/render"
	pkgconfig "github.com/starford/dailycanvas/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

// oneShot runs fn against a fresh application. Logs go to stderr so stdout
// carries only the command's output.
func oneShot(fn func(ctx context.Context, svc *canvasservice.Service) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		opts = append(opts, internal.WithLogOutput(os.Stderr))
		return internal.Exec(ctx, fn, opts...)
	}
}

func show(ctx context.Context, svc *canvasservice.Service) error {
	return render(ctx, svc, os.Stdout)
}

func render(ctx context.Context, svc *canvasservice.Service, w io.Writer) error {
	c, err := svc.ActiveCanvas(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, renderer.Canvas(c))
	fmt.Fprintln(w, renderer.Settings(svc.Settings(ctx)))
	return nil
}

// applyToSelection selects ids on today's canvas and runs the command. A
// refused command is reported, not returned as an error.
func applyToSelection(ctx context.Context, svc *canvasservice.Service, id string, ids []string, w io.Writer) error {
	if _, err := svc.Select(ctx, ids); err != nil {
		return err
	}
	if _, err := svc.Execute(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrInapplicable) {
			fmt.Fprintln(w, "not applicable")
			return nil
		}
		return err
	}
	return render(ctx, svc, w)
}

func selectionCommand(id string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ids := splitIDs(cmd.Args().Slice())
		if len(ids) == 0 {
			return errors.New("at least one item id is required")
		}
		return oneShot(func(ctx context.Context, svc *canvasservice.Service) error {
			return applyToSelection(ctx, svc, id, ids, os.Stdout)
		})(ctx, cmd)
	}
}

// splitIDs accepts both "a b" and "a,b".
func splitIDs(args []string) []string {
	var out []string
	for _, a := range args {
		for _, id := range strings.Split(a, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func main() {
	cmd := &cli.Command{
		Name:    "dailycanvas",
		Usage:   "Daily canvas rotation with pinned-item carryover",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Override the vault path from the config file",
				Sources: cli.EnvVars("DAILYCANVAS_VAULT"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, vault watcher, and daily rotation",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:  "open-today",
				Usage: "Open (creating if needed) today's canvas",
				Action: oneShot(func(ctx context.Context, svc *canvasservice.Service) error {
					return show(ctx, svc)
				}),
			},
			{
				Name:      "pin",
				Usage:     "Pin items of today's canvas",
				ArgsUsage: "<id>...",
				Action:    selectionCommand(command.PinSelection),
			},
			{
				Name:      "unpin",
				Usage:     "Unpin items of today's canvas",
				ArgsUsage: "<id>...",
				Action:    selectionCommand(command.UnpinSelection),
			},
			{
				Name:   "show",
				Usage:  "Render today's canvas and the pin settings",
				Action: oneShot(show),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
