package main

import (
	"context"
	"fmt"

	"vitalflow/internal/db"
	"vitalflow/internal/ledger"
	"vitalflow/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var reportCommand = &cli.Command{
	Name:  "report",
	Usage: "Print available component quantities for a blood bank",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "bank",
			Aliases:  []string{"b"},
			Usage:    "Blood bank id",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := newLogger(cfg)
		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		bankID := c.String("bank")
		if _, err := store.NewBloodBankRepository(pool).BloodBank(ctx, bankID); err != nil {
			return fmt.Errorf("failed to fetch blood bank %s: %w", bankID, err)
		}

		service := ledger.NewService(
			store.NewDonationRepository(pool),
			store.NewDonorRepository(pool),
			store.NewCampRepository(pool),
			logger,
		)

		available, err := service.AvailableQuantity(ctx, bankID)
		if err != nil {
			return err
		}

		_, err = pp.Println(available)
		return err
	},
}
