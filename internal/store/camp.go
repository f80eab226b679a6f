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

const campTableName = "vitalflow.donation_camps"

var campColumns = utils.StructTagValues(types.DonationCamp{})

type CampRepository struct {
	pool *pgxpool.Pool
}

func NewCampRepository(pool *pgxpool.Pool) *CampRepository {
	return &CampRepository{pool: pool}
}

func (r *CampRepository) Camp(ctx context.Context, campID string) (*types.DonationCamp, error) {
	return r.campWhere(ctx, sq.Eq{"id": campID})
}

func (r *CampRepository) CampByEmail(ctx context.Context, email string) (*types.DonationCamp, error) {
	return r.campWhere(ctx, sq.Eq{"organizer_email": email})
}

func (r *CampRepository) campWhere(ctx context.Context, pred sq.Eq) (*types.DonationCamp, error) {
	query, args, err := psql().
		Select(campColumns...).
		From(campTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate camp query: %w", err)
	}

	var camp types.DonationCamp
	err = pgxscan.Get(ctx, r.pool, &camp, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrCampNotFound
		}
		return nil, fmt.Errorf("failed to fetch camp: %w", err)
	}

	return &camp, nil
}

func (r *CampRepository) CampsByBank(ctx context.Context, bankID string, filter types.CampFilter) ([]*types.DonationCamp, error) {
	query, args, err := campsByBankQuery(bankID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to generate camps query: %w", err)
	}

	var camps = make([]*types.DonationCamp, 0)
	err = pgxscan.Select(ctx, r.pool, &camps, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch camps: %w", err)
	}

	return camps, nil
}

func campsByBankQuery(bankID string, filter types.CampFilter) (string, []any, error) {
	b := psql().
		Select(campColumns...).
		From(campTableName).
		Where(sq.Eq{"blood_bank_id": bankID}).
		OrderBy("camp_date desc")

	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	if filter.OrganizationType != "" {
		b = b.Where(sq.Eq{"organization_type": filter.OrganizationType})
	}
	if filter.Date != "" {
		b = b.Where(sq.Expr("camp_date::date = ?::date", filter.Date))
	}
	if filter.State != "" {
		b = b.Where(sq.Expr("address->>'state' = ?", filter.State))
	}
	if filter.City != "" {
		b = b.Where(sq.Expr("address->>'city' = ?", filter.City))
	}

	return b.ToSql()
}

func (r *CampRepository) Create(ctx context.Context, camp *types.DonationCamp) error {
	now := time.Now()
	camp.CreatedAt = now
	camp.UpdatedAt = now
	if camp.Status == "" {
		camp.Status = types.ApprovalStatusPending
	}

	query, args, err := psql().
		Insert(campTableName).
		SetMap(utils.StructToMap(camp)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create camp query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create camp: %w", uniqueOr(err))
	}

	return nil
}

// UpdateStatus changes a camp's status. Only the owning blood bank may do so;
// a camp owned by another bank reports ErrCampNotFound.
func (r *CampRepository) UpdateStatus(ctx context.Context, bankID, campID string, status types.ApprovalStatus) error {
	query, args, err := psql().
		Update(campTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": campID, "blood_bank_id": bankID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update camp status query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update camp status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrCampNotFound
	}

	return nil
}
