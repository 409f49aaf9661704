package models

import "time"

// Device types derived from the user agent string.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Click is an append-only record of a single redirect through an active link.
// Clicks are never updated or deduplicated once written.
type Click struct {
	ID          int64
	ShortLinkID int64
	IPAddress   string
	UserAgent   string
	DeviceType  string
	// Country is best-effort geolocation and may legitimately be nil.
	Country   *string
	Referrer  string
	CreatedAt time.Time
}

// RequestContext carries the request metadata needed to record a click.
// It is built explicitly by the HTTP layer; the core never reads ambient request state.
type RequestContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// DeviceStats is the per-device-type click breakdown for a link.
type DeviceStats struct {
	Desktop int64
	Mobile  int64
	Tablet  int64
}

// LinkStats aggregates the analytics read path for a single link.
type LinkStats struct {
	TotalClicks int64
	Devices     DeviceStats
}
