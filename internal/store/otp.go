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

const otpTableName = "vitalflow.otps"

var otpColumns = utils.StructTagValues(types.OTP{})

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

func destinationColumn(channel types.OTPChannel) string {
	if channel == types.OTPChannelEmail {
		return "email"
	}
	return "phone"
}

func (r *OTPRepository) Create(ctx context.Context, otp *types.OTP) error {
	now := time.Now()
	otp.CreatedAt = now
	otp.UpdatedAt = now

	query, args, err := psql().
		Insert(otpTableName).
		SetMap(utils.StructToMap(otp)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create otp query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}

	return nil
}

// Pending returns the newest unexpired pending OTP for a destination and type.
func (r *OTPRepository) Pending(ctx context.Context, channel types.OTPChannel, destination string, otpType types.OTPType, now time.Time) (*types.OTP, error) {
	query, args, err := pendingOTPQuery(channel, destination, otpType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pending otp query: %w", err)
	}

	var otp types.OTP
	err = pgxscan.Get(ctx, r.pool, &otp, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to fetch otp: %w", err)
	}

	return &otp, nil
}

func pendingOTPQuery(channel types.OTPChannel, destination string, otpType types.OTPType, now time.Time) (string, []any, error) {
	return psql().
		Select(otpColumns...).
		From(otpTableName).
		Where(sq.Eq{
			destinationColumn(channel): destination,
			"type":                     otpType,
			"status":                   types.OTPStatusPending,
		}).
		Where(sq.Gt{"expiry": now}).
		OrderBy("created_at desc").
		Limit(1).
		ToSql()
}

func (r *OTPRepository) MarkVerified(ctx context.Context, otpID string) error {
	query, args, err := psql().
		Update(otpTableName).
		Set("status", types.OTPStatusVerified).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": otpID, "status": types.OTPStatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate verify otp query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to verify otp: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrOTPNotFound
	}

	return nil
}

func (r *OTPRepository) VerifiedExists(ctx context.Context, channel types.OTPChannel, destination string) (bool, error) {
	query, args, err := psql().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(otpTableName).
		Where(sq.Eq{
			destinationColumn(channel): destination,
			"status":                   types.OTPStatusVerified,
		}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate verified otp query: %w", err)
	}

	var exists bool
	err = r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check verified otp: %w", err)
	}

	return exists, nil
}

// RecordFailedAttempt bumps the mismatch counter of a pending OTP and returns
// the new count.
func (r *OTPRepository) RecordFailedAttempt(ctx context.Context, otpID string) (int, error) {
	query, args, err := failedAttemptQuery(otpID)
	if err != nil {
		return 0, fmt.Errorf("failed to generate otp attempt query: %w", err)
	}

	var attempts int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&attempts)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, types.ErrOTPNotFound
		}
		return 0, fmt.Errorf("failed to record otp attempt: %w", err)
	}

	return attempts, nil
}

func failedAttemptQuery(otpID string) (string, []any, error) {
	return psql().
		Update(otpTableName).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": otpID, "status": types.OTPStatusPending}).
		Suffix("RETURNING attempts").
		ToSql()
}

// DeleteExpired removes pending OTPs whose expiry has passed.
func (r *OTPRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query, args, err := psql().
		Delete(otpTableName).
		Where(sq.Eq{"status": types.OTPStatusPending}).
		Where(sq.LtOrEq{"expiry": now}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete expired otps query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete expired otps: %w", err)
	}

	return nil
}

func (r *OTPRepository) Delete(ctx context.Context, otpID string) error {
	query, args, err := psql().
		Delete(otpTableName).
		Where(sq.Eq{"id": otpID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete otp query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}

	return nil
}
