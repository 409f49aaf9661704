package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type QuotaRepository struct {
	db *sqlx.DB
}

func NewQuotaRepository(db *sqlx.DB) *QuotaRepository {
	return &QuotaRepository{
		db: db,
	}
}

// GetUsage returns the number of links created by the user in the given day
// and month. Missing counter rows read as zero.
func (r *QuotaRepository) GetUsage(ctx context.Context, userID int64, day, yearMonth string) (int64, int64, error) {
	const op = "database.postgres.QuotaRepository.GetUsage"

	usage := struct {
		Daily   int64 `db:"daily"`
		Monthly int64 `db:"monthly"`
	}{}

	query := `SELECT
		COALESCE((SELECT count FROM quota_daily WHERE user_id = $1 AND day = $2), 0) AS daily,
		COALESCE((SELECT count FROM quota_monthly WHERE user_id = $1 AND year_month = $3), 0) AS monthly`

	if err := r.db.GetContext(ctx, &usage, query, userID, day, yearMonth); err != nil {
		return 0, 0, fmt.Errorf("%s: failed to get quota usage: %w", op, err)
	}

	return usage.Daily, usage.Monthly, nil
}

// IncrementUsage bumps the daily and monthly counters for the user in a single
// transaction. The upserts are atomic at the row level, so concurrent creations
// never lose an increment; the check in QuotaLedger reads, this writes, and the
// two are deliberately not one statement because the link insert sits between them.
func (r *QuotaRepository) IncrementUsage(ctx context.Context, userID int64, day, yearMonth string) error {
	const op = "database.postgres.QuotaRepository.IncrementUsage"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	dailyQuery := `INSERT INTO quota_daily(user_id, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE SET count = quota_daily.count + 1`

	if _, err := tx.ExecContext(ctx, dailyQuery, userID, day); err != nil {
		return fmt.Errorf("%s: failed to increment daily counter: %w", op, err)
	}

	monthlyQuery := `INSERT INTO quota_monthly(user_id, year_month, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, year_month) DO UPDATE SET count = quota_monthly.count + 1`

	if _, err := tx.ExecContext(ctx, monthlyQuery, userID, yearMonth); err != nil {
		return fmt.Errorf("%s: failed to increment monthly counter: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
