// Package seed loads a small, fixed data set for local development.
//
// Rows use fixed IDs; rows that already exist are left untouched, so the
// command can be re-run safely. New IDs come from `vitalflow nanoid`.
package seed

import (
	"context"
	"errors"
	"fmt"

	"vitalflow/internal/auth"
	"vitalflow/internal/store"
	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
)

type Repositories struct {
	Donors     *store.DonorRepository
	BloodBanks *store.BloodBankRepository
	Camps      *store.CampRepository
	Donations  *store.DonationRepository
}

func Run(ctx context.Context, repos Repositories, logger *logrus.Logger) error {
	hash, err := auth.HashPassword(FixturePassword)
	if err != nil {
		return err
	}

	created := 0
	for _, bank := range fixtureBloodBanks() {
		_, err := repos.BloodBanks.BloodBank(ctx, bank.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrBloodBankNotFound) {
			return fmt.Errorf("failed to fetch blood bank %s: %w", bank.ID, err)
		}
		bank.PasswordHash = hash
		if err := repos.BloodBanks.Create(ctx, bank); err != nil {
			return fmt.Errorf("failed to create blood bank %s: %w", bank.ID, err)
		}
		created++
	}
	logger.WithField("created", created).Info("blood banks seeded")

	created = 0
	for _, camp := range fixtureCamps() {
		_, err := repos.Camps.Camp(ctx, camp.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrCampNotFound) {
			return fmt.Errorf("failed to fetch camp %s: %w", camp.ID, err)
		}
		camp.PasswordHash = hash
		if err := repos.Camps.Create(ctx, camp); err != nil {
			return fmt.Errorf("failed to create camp %s: %w", camp.ID, err)
		}
		created++
	}
	logger.WithField("created", created).Info("donation camps seeded")

	created = 0
	for _, donor := range fixtureDonors() {
		_, err := repos.Donors.Donor(ctx, donor.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrDonorNotFound) {
			return fmt.Errorf("failed to fetch donor %s: %w", donor.ID, err)
		}
		if err := repos.Donors.Create(ctx, donor); err != nil {
			return fmt.Errorf("failed to create donor %s: %w", donor.ID, err)
		}
		created++
	}
	logger.WithField("created", created).Info("donors seeded")

	donations, err := fixtureDonations()
	if err != nil {
		return fmt.Errorf("failed to build donation fixtures: %w", err)
	}

	created = 0
	for _, donation := range donations {
		_, err := repos.Donations.Donation(ctx, donation.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrDonationNotFound) {
			return fmt.Errorf("failed to fetch donation %s: %w", donation.ID, err)
		}
		if err := repos.Donations.Create(ctx, donation); err != nil {
			return fmt.Errorf("failed to create donation %s: %w", donation.ID, err)
		}
		created++
	}
	logger.WithField("created", created).Info("donations seeded")

	return nil
}
