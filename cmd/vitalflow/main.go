package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "vitalflow",
		Usage: "Blood donation coordination API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-prefix",
				Aliases: []string{"p"},
				Usage:   "Environment variable prefix",
				Value:   "",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before reading the environment",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			err := godotenv.Load(c.String("env-file"))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			reportCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
