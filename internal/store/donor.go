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

const donorTableName = "vitalflow.donors"

var donorColumns = utils.StructTagValues(types.Donor{})

type DonorRepository struct {
	pool *pgxpool.Pool
}

func NewDonorRepository(pool *pgxpool.Pool) *DonorRepository {
	return &DonorRepository{pool: pool}
}

func (r *DonorRepository) Donor(ctx context.Context, donorID string) (*types.Donor, error) {
	return r.donorWhere(ctx, sq.Eq{"id": donorID})
}

func (r *DonorRepository) DonorByPhone(ctx context.Context, phone string) (*types.Donor, error) {
	return r.donorWhere(ctx, sq.Eq{"phone": phone})
}

func (r *DonorRepository) DonorByEmail(ctx context.Context, email string) (*types.Donor, error) {
	return r.donorWhere(ctx, sq.Eq{"email": email})
}

func (r *DonorRepository) donorWhere(ctx context.Context, pred sq.Eq) (*types.Donor, error) {
	query, args, err := psql().
		Select(donorColumns...).
		From(donorTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor query: %w", err)
	}

	var donor types.Donor
	err = pgxscan.Get(ctx, r.pool, &donor, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonorNotFound
		}
		return nil, fmt.Errorf("failed to fetch donor: %w", err)
	}

	return &donor, nil
}

func (r *DonorRepository) DonorsByIDs(ctx context.Context, donorIDs []string) ([]*types.Donor, error) {
	if len(donorIDs) == 0 {
		return []*types.Donor{}, nil
	}

	query, args, err := psql().
		Select(donorColumns...).
		From(donorTableName).
		Where(sq.Eq{"id": donorIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donors-by-ids query: %w", err)
	}

	var donors []*types.Donor
	err = pgxscan.Select(ctx, r.pool, &donors, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donors by ids: %w", err)
	}

	return donors, nil
}

func (r *DonorRepository) Create(ctx context.Context, donor *types.Donor) error {
	now := time.Now()
	donor.CreatedAt = now
	donor.UpdatedAt = now
	donor.Age = types.AgeOn(donor.DOB, now)

	query, args, err := psql().
		Insert(donorTableName).
		SetMap(utils.StructToMap(donor)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create donor query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", uniqueOr(err))
	}

	return nil
}
