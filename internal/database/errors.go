package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a link with a short code that already exists, active or not.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when an attempt is made to retrieve
	// a link that doesn't exist.
	ErrLinkNotFound = errors.New("link not found")
)
