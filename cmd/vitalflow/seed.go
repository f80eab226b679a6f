package main

import (
	"context"
	"fmt"

	"vitalflow/internal/db"
	"vitalflow/internal/seed"
	"vitalflow/internal/store"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with development fixtures",
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

		logger.Info("Connected to database")

		return seed.Run(ctx, seed.Repositories{
			Donors:     store.NewDonorRepository(pool),
			BloodBanks: store.NewBloodBankRepository(pool),
			Camps:      store.NewCampRepository(pool),
			Donations:  store.NewDonationRepository(pool),
		}, logger)
	},
}
