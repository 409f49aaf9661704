package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/formlink/formlink/internal/models"
)

type clickRecord struct {
	ID          int64     `db:"id"`
	ShortLinkID int64     `db:"short_link_id"`
	IPAddress   string    `db:"ip_address"`
	UserAgent   string    `db:"user_agent"`
	DeviceType  string    `db:"device_type"`
	Country     *string   `db:"country"`
	Referrer    string    `db:"referrer"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *clickRecord) ToClick() *models.Click {
	return &models.Click{
		ID:          r.ID,
		ShortLinkID: r.ShortLinkID,
		IPAddress:   r.IPAddress,
		UserAgent:   r.UserAgent,
		DeviceType:  r.DeviceType,
		Country:     r.Country,
		Referrer:    r.Referrer,
		CreatedAt:   r.CreatedAt,
	}
}

type ClickRepository struct {
	db *sqlx.DB
}

func NewClickRepository(db *sqlx.DB) *ClickRepository {
	return &ClickRepository{
		db: db,
	}
}

// Create appends a click event. Clicks are append-only; there is no update path.
func (r *ClickRepository) Create(ctx context.Context, click *models.Click) (*models.Click, error) {
	const op = "database.postgres.ClickRepository.Create"

	rec := new(clickRecord)
	query := `INSERT INTO clicks(short_link_id, ip_address, user_agent, device_type, country, referrer)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		click.ShortLinkID, click.IPAddress, click.UserAgent, click.DeviceType, click.Country, click.Referrer)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create click record: %w", op, err)
	}

	return rec.ToClick(), nil
}

func (r *ClickRepository) CountByLink(ctx context.Context, shortLinkID int64) (int64, error) {
	const op = "database.postgres.ClickRepository.CountByLink"

	var count int64
	query := `SELECT COUNT(*) FROM clicks WHERE short_link_id = $1`

	if err := r.db.GetContext(ctx, &count, query, shortLinkID); err != nil {
		return 0, fmt.Errorf("%s: failed to count click records: %w", op, err)
	}

	return count, nil
}

// CountByLinkPerDevice returns the click breakdown by device type for a link.
func (r *ClickRepository) CountByLinkPerDevice(ctx context.Context, shortLinkID int64) (models.DeviceStats, error) {
	const op = "database.postgres.ClickRepository.CountByLinkPerDevice"

	rows := []struct {
		DeviceType string `db:"device_type"`
		Count      int64  `db:"count"`
	}{}

	query := `SELECT device_type, COUNT(*) AS count
		FROM clicks
		WHERE short_link_id = $1
		GROUP BY device_type`

	if err := r.db.SelectContext(ctx, &rows, query, shortLinkID); err != nil {
		return models.DeviceStats{}, fmt.Errorf("%s: failed to count click records: %w", op, err)
	}

	var stats models.DeviceStats
	for _, row := range rows {
		switch row.DeviceType {
		case models.DeviceDesktop:
			stats.Desktop = row.Count
		case models.DeviceMobile:
			stats.Mobile = row.Count
		case models.DeviceTablet:
			stats.Tablet = row.Count
		}
	}

	return stats, nil
}
