package database

import "time"

// Link status filter values. Expired is derived from the expiration timestamp
// and is independent of the stored active flag; the three statuses partition
// a user's links consistently with how the dashboard presents them.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
)

// LinkFilter narrows a user's link listing. Zero values mean "no constraint".
type LinkFilter struct {
	// Query matches against label, short code and original URL.
	Query string
	// Status is one of the Status* constants, or empty for all.
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// LinkUpdate is a partial update of a link's mutable fields.
// Nil pointers leave the corresponding column untouched.
type LinkUpdate struct {
	Label      *string
	IsActive   *bool
	QRCodePath *string
	// ClearExpiresAt removes the expiration timestamp. Expiration is
	// immutable at creation but may be cleared afterwards.
	ClearExpiresAt bool
}
