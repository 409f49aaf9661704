package service

import (
	"errors"
	"fmt"
)

// Short code validation failures. User-correctable, rendered inline.
var (
	ErrCodeTooShort      = errors.New("custom code is too short")
	ErrCodeTooLong       = errors.New("custom code is too long")
	ErrCodeInvalidFormat = errors.New("custom code contains invalid characters")
	ErrCodeReserved      = errors.New("custom code is a reserved word")
	ErrCodeTaken         = errors.New("custom code is already in use")
)

// ErrCodeGenerationExhausted is returned when the maximum number of retries
// for generating a unique short code is exceeded. The generator never returns
// an unchecked code.
var ErrCodeGenerationExhausted = errors.New("maximum retries exceeded for generating short code")

// URL validation failures.
var (
	ErrURLInvalid          = errors.New("url is empty or malformed")
	ErrURLNotHTTPS         = errors.New("url must use https")
	ErrURLDomainNotAllowed = errors.New("url host is not a google forms domain")
	ErrURLNotFormsPath     = errors.New("url path is not a google forms path")
)

// Plan feature gating failures.
var (
	ErrCustomCodeNotAllowed = errors.New("plan does not allow custom codes")
	ErrExpirationNotAllowed = errors.New("plan does not allow expiration")
)

// ErrActivationConflict is returned when reactivating a link would leave two
// active links sharing a code.
var ErrActivationConflict = errors.New("another active link already uses this code")

// QuotaExceededError is returned when a creation would pass a plan limit.
// It carries the full check result so callers can render usage and limits.
type QuotaExceededError struct {
	Check QuotaCheck
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.Check.Reason)
}
