package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/formlink/formlink/internal/models"
)

// mobileKeywords is checked before tabletKeywords, so a user agent containing
// "ipad" classifies as mobile and the tablet entry for it never matches.
// Kept as-is: redirect analytics have always counted iPads as mobile.
var mobileKeywords = []string{"mobile", "android", "iphone", "ipad", "ipod", "blackberry", "iemobile", "opera mini"}

var tabletKeywords = []string{"tablet", "ipad"}

// ClassifyDevice derives a device type from a user agent string.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, kw := range mobileKeywords {
		if strings.Contains(ua, kw) {
			return models.DeviceMobile
		}
	}
	for _, kw := range tabletKeywords {
		if strings.Contains(ua, kw) {
			return models.DeviceTablet
		}
	}

	return models.DeviceDesktop
}

type clickRepository interface {
	Create(ctx context.Context, click *models.Click) (*models.Click, error)
}

// GeoResolver resolves a country from an IP address. Resolution is
// best-effort; a nil country is a legitimate outcome.
type GeoResolver interface {
	CountryByIP(ctx context.Context, ip string) (*string, error)
}

// NopGeoResolver never resolves a country. It stands in when no geolocation
// backend is configured.
type NopGeoResolver struct{}

func (NopGeoResolver) CountryByIP(_ context.Context, _ string) (*string, error) {
	return nil, nil
}

const (
	defaultRecordTimeout = 2 * time.Second

	// Click persistence gets one short retry and nothing more. The redirect
	// response must never wait on analytics.
	recordRetryBackoff = 100 * time.Millisecond
	recordMaxRetries   = 1
)

// ClickRecorder appends click events as a side effect of successful redirects.
// Recording is best-effort: every failure is logged and swallowed, and the
// whole attempt runs under a short fixed timeout.
type ClickRecorder struct {
	repo    clickRepository
	geo     GeoResolver
	logger  *slog.Logger
	timeout time.Duration
}

func NewClickRecorder(repo clickRepository, geo GeoResolver, logger *slog.Logger, timeout time.Duration) *ClickRecorder {
	if geo == nil {
		geo = NopGeoResolver{}
	}
	if timeout <= 0 {
		timeout = defaultRecordTimeout
	}

	return &ClickRecorder{
		repo:    repo,
		geo:     geo,
		logger:  logger,
		timeout: timeout,
	}
}

// Record persists a click for the link. It never returns an error: the caller
// has already decided to redirect, and losing a click is an acceptable
// trade-off where delaying the redirect is not.
func (c *ClickRecorder) Record(ctx context.Context, shortLinkID int64, reqCtx models.RequestContext) {
	const op = "service.ClickRecorder.Record"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	country, err := c.geo.CountryByIP(ctx, reqCtx.IPAddress)
	if err != nil {
		// Absence of geolocation never blocks the click record.
		c.logger.Warn("geo lookup failed",
			slog.String("op", op),
			slog.Int64("short_link_id", shortLinkID),
			slog.Any("err", err))
		country = nil
	}

	click := &models.Click{
		ShortLinkID: shortLinkID,
		IPAddress:   reqCtx.IPAddress,
		UserAgent:   reqCtx.UserAgent,
		DeviceType:  ClassifyDevice(reqCtx.UserAgent),
		Country:     country,
		Referrer:    reqCtx.Referrer,
	}

	backoff := retry.WithMaxRetries(recordMaxRetries, retry.NewConstant(recordRetryBackoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := c.repo.Create(ctx, click); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("failed to record click",
			slog.String("op", op),
			slog.Int64("short_link_id", shortLinkID),
			slog.Any("err", err))
	}
}
