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

const bloodBankTableName = "vitalflow.blood_banks"

var bloodBankColumns = utils.StructTagValues(types.BloodBank{})

type BloodBankRepository struct {
	pool *pgxpool.Pool
}

func NewBloodBankRepository(pool *pgxpool.Pool) *BloodBankRepository {
	return &BloodBankRepository{pool: pool}
}

func (r *BloodBankRepository) BloodBank(ctx context.Context, bankID string) (*types.BloodBank, error) {
	return r.bankWhere(ctx, sq.Eq{"id": bankID})
}

func (r *BloodBankRepository) BloodBankByEmail(ctx context.Context, email string) (*types.BloodBank, error) {
	return r.bankWhere(ctx, sq.Eq{"email": email})
}

func (r *BloodBankRepository) bankWhere(ctx context.Context, pred sq.Eq) (*types.BloodBank, error) {
	query, args, err := psql().
		Select(bloodBankColumns...).
		From(bloodBankTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate blood bank query: %w", err)
	}

	var bank types.BloodBank
	err = pgxscan.Get(ctx, r.pool, &bank, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrBloodBankNotFound
		}
		return nil, fmt.Errorf("failed to fetch blood bank: %w", err)
	}

	return &bank, nil
}

func (r *BloodBankRepository) BloodBanks(ctx context.Context, filter types.BloodBankFilter) ([]*types.BloodBank, error) {
	query, args, err := bloodBanksQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to generate blood banks query: %w", err)
	}

	var banks = make([]*types.BloodBank, 0)
	err = pgxscan.Select(ctx, r.pool, &banks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blood banks: %w", err)
	}

	return banks, nil
}

func bloodBanksQuery(filter types.BloodBankFilter) (string, []any, error) {
	b := psql().
		Select(bloodBankColumns...).
		From(bloodBankTableName).
		OrderBy("name asc")

	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Name != "" {
		b = b.Where(sq.ILike{"name": "%" + filter.Name + "%"})
	}
	if filter.Pincode != 0 {
		b = b.Where(sq.Expr("(address->>'pincode')::int = ?", filter.Pincode))
	}

	return b.ToSql()
}

func (r *BloodBankRepository) Create(ctx context.Context, bank *types.BloodBank) error {
	now := time.Now()
	bank.CreatedAt = now
	bank.UpdatedAt = now
	if bank.Status == "" {
		bank.Status = types.ApprovalStatusPending
	}

	query, args, err := psql().
		Insert(bloodBankTableName).
		SetMap(utils.StructToMap(bank)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create blood bank query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create blood bank: %w", uniqueOr(err))
	}

	return nil
}

func (r *BloodBankRepository) UpdateStatus(ctx context.Context, bankID string, status types.ApprovalStatus) error {
	return r.update(ctx, bankID, map[string]any{"status": status})
}

func (r *BloodBankRepository) SetLicenseDocument(ctx context.Context, bankID, key string) error {
	return r.update(ctx, bankID, map[string]any{"license_document_key": key})
}

func (r *BloodBankRepository) update(ctx context.Context, bankID string, fields map[string]any) error {
	fields["updated_at"] = time.Now()

	query, args, err := psql().
		Update(bloodBankTableName).
		SetMap(fields).
		Where(sq.Eq{"id": bankID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update blood bank query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update blood bank: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrBloodBankNotFound
	}

	return nil
}
