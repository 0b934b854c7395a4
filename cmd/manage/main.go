package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"food-order-backend/internal/auth"
	"food-order-backend/internal/config"
	"food-order-backend/internal/storage/postgres"
)

const defaultMigrationsDir = "internal/storage/postgres/migrations"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "manage",
		Usage: "administrative tasks for the food order backend",
		Commands: []*cli.Command{
			makeMigrations(),
			migrate(),
			createSuperuser(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func makeMigrations() *cli.Command {
	return &cli.Command{
		Name:      "makemigrations",
		Usage:     "create an empty migration file",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: defaultMigrationsDir, Usage: "migrations directory"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: manage makemigrations <name>", 2)
			}
			path, err := postgres.GenerateMigration(c.String("dir"), c.Args().First(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, path)
			return nil
		},
	}
}

func migrate() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "read migrations from this directory instead of the embedded set"},
		},
		Action: func(c *cli.Context) error {
			db, err := connect(c.Context)
			if err != nil {
				return err
			}
			defer db.Close()

			var fsys fs.FS = postgres.Migrations()
			if dir := c.String("dir"); dir != "" {
				fsys = os.DirFS(dir)
			}

			applied, err := db.Migrate(c.Context, fsys)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(c.App.Writer, "No migrations to apply.")
			}
			for _, name := range applied {
				fmt.Fprintf(c.App.Writer, "Applied %s\n", name)
			}
			return nil
		},
	}
}

func createSuperuser() *cli.Command {
	return &cli.Command{
		Name:  "createsuperuser",
		Usage: "create a staff account that can log in and update orders",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"SUPERUSER_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			db, err := connect(c.Context)
			if err != nil {
				return err
			}
			defer db.Close()

			// Only the user store is needed here; no tokens are issued.
			svc := auth.NewService(db, nil, nil)
			user, err := svc.CreateSuperuser(c.Context, c.String("username"), c.String("email"), c.String("password"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Superuser %q created (id %d).\n", user.Username, user.ID)
			return nil
		},
	}
}

func connect(ctx context.Context) (*postgres.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return postgres.Connect(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
}
