package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/formlink/formlink/internal/models"
)

var clickColumns = []string{"id", "short_link_id", "ip_address", "user_agent", "device_type", "country", "referrer", "created_at"}

func setupClickRepository(t testing.TB) (*ClickRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewClickRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestClickRepository_Create(t *testing.T) {
	newClick := &models.Click{
		ShortLinkID: 1,
		IPAddress:   "203.0.113.10",
		UserAgent:   "Mozilla/5.0",
		DeviceType:  models.DeviceDesktop,
	}

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		mock.ExpectQuery(`INSERT INTO clicks`).
			WithArgs(int64(1), "203.0.113.10", "Mozilla/5.0", models.DeviceDesktop, nil, "").
			WillReturnError(errUnknown)

		click, err := repo.Create(context.TODO(), newClick)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, click)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success without country", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		rows := sqlmock.NewRows(clickColumns).
			AddRow(1, 1, "203.0.113.10", "Mozilla/5.0", models.DeviceDesktop, nil, "", time.Time{})

		mock.ExpectQuery(`INSERT INTO clicks`).
			WithArgs(int64(1), "203.0.113.10", "Mozilla/5.0", models.DeviceDesktop, nil, "").
			WillReturnRows(rows)

		click, err := repo.Create(context.TODO(), newClick)

		assert.NoError(t, err)
		assert.NotNil(t, click)
		assert.Equal(t, int64(1), click.ID)
		assert.Nil(t, click.Country)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success with country", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		country := "DE"
		withCountry := *newClick
		withCountry.Country = &country

		rows := sqlmock.NewRows(clickColumns).
			AddRow(1, 1, "203.0.113.10", "Mozilla/5.0", models.DeviceDesktop, "DE", "", time.Time{})

		mock.ExpectQuery(`INSERT INTO clicks`).
			WithArgs(int64(1), "203.0.113.10", "Mozilla/5.0", models.DeviceDesktop, "DE", "").
			WillReturnRows(rows)

		click, err := repo.Create(context.TODO(), &withCountry)

		assert.NoError(t, err)
		assert.NotNil(t, click.Country)
		assert.Equal(t, "DE", *click.Country)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClickRepository_CountByLink(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(int64(1)).
			WillReturnError(errUnknown)

		count, err := repo.CountByLink(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountByLink(context.TODO(), 1)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClickRepository_CountByLinkPerDevice(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		mock.ExpectQuery(`SELECT device_type`).
			WithArgs(int64(1)).
			WillReturnError(errUnknown)

		stats, err := repo.CountByLinkPerDevice(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing device types read as zero", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		rows := sqlmock.NewRows([]string{"device_type", "count"}).
			AddRow(models.DeviceMobile, 3)

		mock.ExpectQuery(`SELECT device_type`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		stats, err := repo.CountByLinkPerDevice(context.TODO(), 1)

		assert.NoError(t, err)
		assert.Equal(t, models.DeviceStats{Mobile: 3}, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("full breakdown", func(t *testing.T) {
		repo, mock := setupClickRepository(t)

		rows := sqlmock.NewRows([]string{"device_type", "count"}).
			AddRow(models.DeviceDesktop, 6).
			AddRow(models.DeviceMobile, 3).
			AddRow(models.DeviceTablet, 1)

		mock.ExpectQuery(`SELECT device_type`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		stats, err := repo.CountByLinkPerDevice(context.TODO(), 1)

		assert.NoError(t, err)
		assert.Equal(t, models.DeviceStats{Desktop: 6, Mobile: 3, Tablet: 1}, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
