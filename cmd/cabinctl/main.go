package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/cabin-escape/internal/config"
	"github.com/jwebster45206/cabin-escape/internal/logger"
	"github.com/jwebster45206/cabin-escape/internal/storage"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
	pkgstorage "github.com/jwebster45206/cabin-escape/pkg/storage"
	"github.com/urfave/cli/v3"
)

// solution is the shortest intent sequence from a fresh game to the exit.
var solution = []string{
	"new", "left", "left", "use",
	"right", "right", "right", "equip:key", "use",
	"right", "use",
	"left", "left", "equip:knife", "use",
	"left", "equip:coin", "use",
	"right", "right", "right", "right", "equip:axe", "use",
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "cabinctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "cabinctl",
		Usage: "inspect and drive the Cabin Escape save slot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backend",
				Usage: "storage backend (redis, sqlite, file, memory); overrides STORAGE_BACKEND",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the raw view as JSON",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log engine activity to stderr",
			},
		},
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the saved game",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withEngine(ctx, cmd, func(e *engine.Engine, _ *engine.ManualScheduler) error {
						return printView(cmd, e.View())
					})
				},
			},
			{
				Name:  "reset",
				Usage: "erase the save slot",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withEngine(ctx, cmd, func(e *engine.Engine, _ *engine.ManualScheduler) error {
						e.Reset(ctx)
						_, err := fmt.Fprintln(cmd.Root().Writer, "Save slot cleared.")
						return err
					})
				},
			},
			{
				Name:      "play",
				Usage:     "apply intents to the saved game",
				ArgsUsage: "<intent>... (left, right, home, new, continue, reset, equip:<item>, unequip, use, use:<rule>)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					intents := cmd.Args().Slice()
					if len(intents) == 0 {
						return fmt.Errorf("play needs at least one intent")
					}
					return withEngine(ctx, cmd, func(e *engine.Engine, s *engine.ManualScheduler) error {
						v, err := play(ctx, e, s, intents)
						if err != nil {
							return err
						}
						return printView(cmd, v)
					})
				},
			},
			{
				Name:  "solve",
				Usage: "play the whole game from a fresh start",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withEngine(ctx, cmd, func(e *engine.Engine, s *engine.ManualScheduler) error {
						e.Reset(ctx)
						v, err := play(ctx, e, s, solution)
						if err != nil {
							return err
						}
						return printView(cmd, v)
					})
				},
			},
		},
	}
}

// withEngine opens the configured backend and runs fn against an engine
// whose escape timer is resolved manually.
func withEngine(ctx context.Context, cmd *cli.Command, fn func(*engine.Engine, *engine.ManualScheduler) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if backend := cmd.String("backend"); backend != "" {
		cfg.StorageBackend = strings.ToLower(backend)
	}

	log := logger.Discard()
	if cmd.Bool("verbose") {
		cfg.LogLevel = slog.LevelDebug
		log = logger.New(cfg, os.Stderr)
	}

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	return run(ctx, store, log, fn)
}

func run(ctx context.Context, store pkgstorage.Storage, log *slog.Logger, fn func(*engine.Engine, *engine.ManualScheduler) error) error {
	sched := engine.NewManualScheduler()
	e := engine.New(store, log, engine.WithScheduler(sched))
	e.Start(ctx)
	defer e.Close()
	return fn(e, sched)
}

// play dispatches each intent in order. A pending escape is resolved before
// the next intent so scripted runs behave like a patient player.
func play(ctx context.Context, e *engine.Engine, s *engine.ManualScheduler, intents []string) (engine.View, error) {
	var v engine.View
	for _, raw := range intents {
		in, err := engine.ParseIntent(raw)
		if err != nil {
			return v, err
		}
		if v, err = e.Dispatch(ctx, in); err != nil {
			return v, err
		}
		if e.EscapePending() {
			s.Advance(engine.DefaultEscapeDelay)
		}
	}
	return e.View(), nil
}

func printView(cmd *cli.Command, v engine.View) error {
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", v.Title, v.Description)
	fmt.Fprintf(&b, "%s\n", v.State.DescribeInventory())
	if v.State.Equipped != state.ItemNone {
		fmt.Fprintf(&b, "Equipped: %s\n", v.State.Equipped.Label())
	}
	flags := v.State.Flags.List()
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = string(f)
	}
	fmt.Fprintf(&b, "Progress: %d/%d %s\n", len(flags), len(state.Flags), strings.Join(names, ", "))
	fmt.Fprintf(&b, "Hint: %s\n", v.Hint)
	_, err := io.WriteString(w, b.String())
	return err
}
