package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/formlink/formlink/internal/models"
)

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{
			name:      "desktop browser",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
			want:      models.DeviceDesktop,
		},
		{
			name:      "empty user agent",
			userAgent: "",
			want:      models.DeviceDesktop,
		},
		{
			name:      "android phone",
			userAgent: "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36",
			want:      models.DeviceMobile,
		},
		{
			name:      "iphone",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
			want:      models.DeviceMobile,
		},
		{
			name:      "blackberry",
			userAgent: "BlackBerry9700/5.0.0.862",
			want:      models.DeviceMobile,
		},
		{
			name:      "opera mini",
			userAgent: "Opera/9.80 (J2ME/MIDP; Opera Mini/9.80)",
			want:      models.DeviceMobile,
		},
		{
			// "ipad" sits in the mobile keyword set, which is checked
			// first, so the tablet branch never sees an iPad. This pins
			// the long-standing precedence rather than the intuition.
			name:      "ipad classifies as mobile, not tablet",
			userAgent: "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)",
			want:      models.DeviceMobile,
		},
		{
			name:      "android tablet without mobile token",
			userAgent: "Mozilla/5.0 (Linux; Android 14; SM-X910 Tablet) Safari/537.36",
			want:      models.DeviceTablet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDevice(tt.userAgent)

			assert.Equal(t, tt.want, got)
		})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClickRecorder_Record(t *testing.T) {
	reqCtx := models.RequestContext{
		IPAddress: "203.0.113.10",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		Referrer:  "https://example.com/newsletter",
	}

	t.Run("persists a classified click", func(t *testing.T) {
		repo := new(MockClickRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(click *models.Click) bool {
			return click.ShortLinkID == 1 &&
				click.IPAddress == reqCtx.IPAddress &&
				click.DeviceType == models.DeviceMobile &&
				click.Country == nil &&
				click.Referrer == reqCtx.Referrer
		})).
			Once().
			Return(&models.Click{ID: 1}, nil)

		rec := NewClickRecorder(repo, nil, discardLogger(), time.Second)
		rec.Record(context.Background(), 1, reqCtx)

		repo.AssertExpectations(t)
	})

	t.Run("swallows persistent storage failures", func(t *testing.T) {
		repo := new(MockClickRepository)
		repo.On("Create", mock.Anything, mock.Anything).
			Times(2).
			Return(nil, errUnknown)

		rec := NewClickRecorder(repo, nil, discardLogger(), time.Second)

		// Record has no error to return; not panicking and not
		// retrying beyond the bounded attempts is the contract.
		rec.Record(context.Background(), 1, reqCtx)

		repo.AssertExpectations(t)
	})

	t.Run("geo failure never blocks the click", func(t *testing.T) {
		repo := new(MockClickRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(click *models.Click) bool {
			return click.Country == nil
		})).
			Once().
			Return(&models.Click{ID: 1}, nil)

		rec := NewClickRecorder(repo, failingGeo{}, discardLogger(), time.Second)
		rec.Record(context.Background(), 1, reqCtx)

		repo.AssertExpectations(t)
	})

	t.Run("records resolved country", func(t *testing.T) {
		repo := new(MockClickRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(click *models.Click) bool {
			return click.Country != nil && *click.Country == "DE"
		})).
			Once().
			Return(&models.Click{ID: 1}, nil)

		rec := NewClickRecorder(repo, staticGeo("DE"), discardLogger(), time.Second)
		rec.Record(context.Background(), 1, reqCtx)

		repo.AssertExpectations(t)
	})
}

type failingGeo struct{}

func (failingGeo) CountryByIP(_ context.Context, _ string) (*string, error) {
	return nil, errUnknown
}

type staticGeo string

func (g staticGeo) CountryByIP(_ context.Context, _ string) (*string, error) {
	country := string(g)
	return &country, nil
}
