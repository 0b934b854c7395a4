package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"food-order-backend/internal/config"
	"food-order-backend/internal/lint"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	code := 0
	app := &cli.App{
		Name:  "lint",
		Usage: "run the style checker; exits 1 on any finding",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: cfg.Lint.Dir, Usage: "project directory"},
			&cli.StringFlag{Name: "bin", Value: cfg.Lint.BinDir, Usage: "tools directory prepended to PATH"},
			&cli.StringFlag{Name: "command", Value: cfg.Lint.Command, Usage: "checker command line"},
		},
		Action: func(c *cli.Context) error {
			checker, err := lint.Run(c.Context, lint.Options{
				Dir:     c.String("dir"),
				BinDir:  c.String("bin"),
				Command: c.String("command"),
				Stdout:  os.Stdout,
				Stderr:  os.Stderr,
			})
			if err != nil {
				slog.Error("Checker did not run", "error", err)
			}
			code = lint.ExitCode(checker)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Lint failed", "error", err)
		os.Exit(1)
	}
	os.Exit(code)
}
