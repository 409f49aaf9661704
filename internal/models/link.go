package models

import "time"

// ShortLink represents a shortened Google Forms link and its associated metadata.
type ShortLink struct {
	// ID is the unique identifier for the short link record.
	ID int64
	// UserID is the identifier of the user who owns the link.
	UserID int64
	// OriginalURL is the validated Google Forms URL the short code points to.
	OriginalURL string
	// ShortCode is the unique token appended to the base URL.
	ShortCode string
	// Label is an optional human-readable name for the link.
	Label string
	// ExpiresAt is an optional expiration timestamp. A nil value means the link never expires.
	ExpiresAt *time.Time
	// IsActive is the stored activation flag. Expiration is derived separately.
	IsActive bool
	// QRCodePath is an optional path to a generated QR asset.
	QRCodePath string
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time
}

// IsExpired reports whether the link's expiration timestamp has passed at the given time.
// Links without an expiration never expire.
func (l *ShortLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// LinkState is the per-request state of a short link as evaluated on redirect.
type LinkState int

const (
	// StateNotFound means no link exists for the short code.
	StateNotFound LinkState = iota
	// StateDeactivated means the link exists but its stored active flag is off.
	StateDeactivated
	// StateExpired means the link is active but its expiration timestamp has passed.
	StateExpired
	// StateActive means the link authorizes a redirect.
	StateActive
)

func (s LinkState) String() string {
	switch s {
	case StateNotFound:
		return "not_found"
	case StateDeactivated:
		return "deactivated"
	case StateExpired:
		return "expired"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}
