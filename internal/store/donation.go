package store

import (
	"context"
	"fmt"
	"time"

	"vitalflow/internal/utils"
	"vitalflow/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const donationTableName = "vitalflow.donations"

var donationColumns = utils.StructTagValues(types.Donation{})

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	query, args, err := psql().
		Select(donationColumns...).
		From(donationTableName).
		Where(sq.Eq{"id": donationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation query: %w", err)
	}

	var donation types.Donation
	err = pgxscan.Get(ctx, r.pool, &donation, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to fetch donation: %w", err)
	}

	return &donation, nil
}

func (r *DonationRepository) DonationsByDonor(ctx context.Context, donorID string) ([]*types.Donation, error) {
	return r.donationsWhere(ctx, sq.Eq{"donor_id": donorID})
}

func (r *DonationRepository) DonationsByBank(ctx context.Context, bankID string) ([]*types.Donation, error) {
	return r.donationsWhere(ctx, sq.Eq{"blood_bank_id": bankID})
}

func (r *DonationRepository) DonationsByCamp(ctx context.Context, campID string) ([]*types.Donation, error) {
	return r.donationsWhere(ctx, sq.Eq{"camp_id": campID})
}

func (r *DonationRepository) donationsWhere(ctx context.Context, pred sq.Eq) ([]*types.Donation, error) {
	query, args, err := psql().
		Select(donationColumns...).
		From(donationTableName).
		Where(pred).
		OrderBy("donation_time desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, r.pool, &donations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}

	return donations, nil
}

func (r *DonationRepository) Create(ctx context.Context, donation *types.Donation) error {
	now := time.Now()
	donation.CreatedAt = now
	donation.UpdatedAt = now
	donation.Revision = 1
	if donation.DonationTime.IsZero() {
		donation.DonationTime = now
	}
	normalizeDonationLists(donation)

	query, args, err := psql().
		Insert(donationTableName).
		SetMap(utils.StructToMap(donation)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create donation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}

	return nil
}

// SaveRevision writes the mutable parts of donation only if the stored row is
// still at revision expected. On success donation.Revision is advanced.
func (r *DonationRepository) SaveRevision(ctx context.Context, donation *types.Donation, expected int) error {
	donation.UpdatedAt = time.Now()
	normalizeDonationLists(donation)

	query, args, err := saveRevisionQuery(donation, expected)
	if err != nil {
		return fmt.Errorf("failed to generate save donation query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save donation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRevisionConflict
	}

	donation.Revision = expected + 1
	return nil
}

func saveRevisionQuery(donation *types.Donation, expected int) (string, []any, error) {
	return psql().
		Update(donationTableName).
		Set("extracted_components", donation.ExtractedComponents).
		Set("recipients", donation.Recipients).
		Set("updated_at", donation.UpdatedAt).
		Set("revision", sq.Expr("revision + 1")).
		Where(sq.Eq{"id": donation.ID, "revision": expected}).
		ToSql()
}

// jsonb columns are NOT NULL; nil slices would encode as JSON null.
func normalizeDonationLists(donation *types.Donation) {
	if donation.ExtractedComponents == nil {
		donation.ExtractedComponents = []types.ExtractedComponent{}
	}
	if donation.Recipients == nil {
		donation.Recipients = []types.Recipient{}
	}
}
