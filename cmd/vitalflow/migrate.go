package main

import (
	"fmt"

	"vitalflow/internal/db"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Manage database schema migrations",
	Subcommands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all pending migrations",
			Action: withMigrationRunner(func(r *db.MigrationRunner) error {
				return r.Up()
			}),
		},
		{
			Name:  "down",
			Usage: "Roll back every migration",
			Action: withMigrationRunner(func(r *db.MigrationRunner) error {
				return r.Down()
			}),
		},
		{
			Name:  "version",
			Usage: "Print the current schema version",
			Action: withMigrationRunner(func(r *db.MigrationRunner) error {
				version, dirty, err := r.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version=%d dirty=%t\n", version, dirty)
				return nil
			}),
		},
	},
}

func withMigrationRunner(fn func(*db.MigrationRunner) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		runner, err := db.NewMigrationRunner(cfg.DatabaseURL, newLogger(cfg))
		if err != nil {
			return err
		}
		defer func() {
			if err := runner.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close migration runner")
			}
		}()

		return fn(runner)
	}
}
