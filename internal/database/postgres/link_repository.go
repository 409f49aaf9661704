package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/formlink/formlink/internal/database"
	"github.com/formlink/formlink/internal/models"
)

type linkRecord struct {
	ID          int64      `db:"id"`
	UserID      int64      `db:"user_id"`
	OriginalURL string     `db:"original_url"`
	ShortCode   string     `db:"short_code"`
	Label       string     `db:"label"`
	ExpiresAt   *time.Time `db:"expires_at"`
	IsActive    bool       `db:"is_active"`
	QRCodePath  string     `db:"qr_code_path"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r *linkRecord) ToShortLink() *models.ShortLink {
	return &models.ShortLink{
		ID:          r.ID,
		UserID:      r.UserID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		Label:       r.Label,
		ExpiresAt:   r.ExpiresAt,
		IsActive:    r.IsActive,
		QRCodePath:  r.QRCodePath,
		CreatedAt:   r.CreatedAt,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Create inserts a new link row. The unique constraint on short_code is the
// authoritative uniqueness check; a violation maps to database.ErrShortCodeExists
// so callers can retry generation.
func (r *LinkRepository) Create(ctx context.Context, link *models.ShortLink) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO short_links(user_id, original_url, short_code, label, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		link.UserID, link.OriginalURL, link.ShortCode, link.Label, link.ExpiresAt, link.IsActive)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, shortCode string) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.FindByCode"

	rec := new(linkRecord)
	query := `SELECT * FROM short_links WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) FindByID(ctx context.Context, id int64) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.FindByID"

	rec := new(linkRecord)
	query := `SELECT * FROM short_links WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

// IsCodeUnique reports whether no link row, active or inactive, holds the code.
func (r *LinkRepository) IsCodeUnique(ctx context.Context, shortCode string) (bool, error) {
	const op = "database.postgres.LinkRepository.IsCodeUnique"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM short_links WHERE short_code = $1)`

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, fmt.Errorf("%s: failed to check short code: %w", op, err)
	}

	return !exists, nil
}

// HasActiveLinkWithCode reports whether another currently active link holds the
// code. Used to guard the inactive-to-active toggle.
func (r *LinkRepository) HasActiveLinkWithCode(ctx context.Context, shortCode string, excludingID int64) (bool, error) {
	const op = "database.postgres.LinkRepository.HasActiveLinkWithCode"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM short_links
		WHERE short_code = $1 AND is_active = TRUE AND id <> $2)`

	if err := r.db.GetContext(ctx, &exists, query, shortCode, excludingID); err != nil {
		return false, fmt.Errorf("%s: failed to check active code: %w", op, err)
	}

	return exists, nil
}

// Update applies a partial update and returns the updated row.
func (r *LinkRepository) Update(ctx context.Context, id int64, upd database.LinkUpdate) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.Update"

	var (
		sets []string
		args []any
	)

	if upd.Label != nil {
		args = append(args, *upd.Label)
		sets = append(sets, fmt.Sprintf("label = $%d", len(args)))
	}
	if upd.IsActive != nil {
		args = append(args, *upd.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if upd.QRCodePath != nil {
		args = append(args, *upd.QRCodePath)
		sets = append(sets, fmt.Sprintf("qr_code_path = $%d", len(args)))
	}
	if upd.ClearExpiresAt {
		sets = append(sets, "expires_at = NULL")
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE short_links SET %s WHERE id = $%d RETURNING *`,
		strings.Join(sets, ", "), len(args))

	rec := new(linkRecord)
	if err := r.db.GetContext(ctx, rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

// Delete removes a link row. Click rows cascade at the schema level.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	const op = "database.postgres.LinkRepository.Delete"

	query := `DELETE FROM short_links WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}

// filterClauses translates a LinkFilter into WHERE clauses. The expired status
// is derived from expires_at and partitions consistently with active/inactive:
// active and inactive both exclude expired rows.
func filterClauses(userID int64, filter database.LinkFilter) ([]string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(label ILIKE $%d OR short_code ILIKE $%d OR original_url ILIKE $%d)", n, n, n))
	}

	switch filter.Status {
	case database.StatusExpired:
		clauses = append(clauses, "expires_at IS NOT NULL AND expires_at < NOW()")
	case database.StatusActive:
		clauses = append(clauses, "is_active = TRUE AND (expires_at IS NULL OR expires_at >= NOW())")
	case database.StatusInactive:
		clauses = append(clauses, "is_active = FALSE AND (expires_at IS NULL OR expires_at >= NOW())")
	}

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	return clauses, args
}

// SearchByUser returns a page of the user's links matching the filter,
// newest first.
func (r *LinkRepository) SearchByUser(ctx context.Context, userID int64, filter database.LinkFilter) ([]models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.SearchByUser"

	clauses, args := filterClauses(userID, filter)

	query := fmt.Sprintf(`SELECT * FROM short_links WHERE %s ORDER BY created_at DESC`,
		strings.Join(clauses, " AND "))

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var recs []linkRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to search link records: %w", op, err)
	}

	links := make([]models.ShortLink, 0, len(recs))
	for _, rec := range recs {
		links = append(links, *rec.ToShortLink())
	}

	return links, nil
}

// CountByUser returns the total number of links matching the filter,
// ignoring pagination.
func (r *LinkRepository) CountByUser(ctx context.Context, userID int64, filter database.LinkFilter) (int64, error) {
	const op = "database.postgres.LinkRepository.CountByUser"

	clauses, args := filterClauses(userID, filter)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM short_links WHERE %s`,
		strings.Join(clauses, " AND "))

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count link records: %w", op, err)
	}

	return count, nil
}
