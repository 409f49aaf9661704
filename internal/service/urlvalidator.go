package service

import (
	"fmt"
	"net/url"
	"strings"
)

// Accepted hosts for original URLs. Subdomains of either host are accepted too.
const (
	googleDocsHost  = "docs.google.com"
	googleFormsHost = "forms.gle"
)

// URLValidator restricts original URLs to the Google Forms domain allowlist.
// Validation is pure; the same input always yields the same normalized URL.
type URLValidator struct{}

func NewURLValidator() *URLValidator {
	return &URLValidator{}
}

// Validate checks the URL against the allowlist and returns its normalized
// form: scheme://host/path?query with the fragment dropped.
func (v *URLValidator) Validate(rawURL string) (string, error) {
	const op = "service.URLValidator.Validate"

	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("%s: %w", op, ErrURLInvalid)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%s: %w", op, ErrURLInvalid)
	}

	if u.Scheme != "https" {
		return "", fmt.Errorf("%s: %w", op, ErrURLNotHTTPS)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case hostMatches(host, googleDocsHost):
		// docs.google.com hosts more than forms; require the forms path.
		if !strings.Contains(u.Path, "/forms/") {
			return "", fmt.Errorf("%s: %w", op, ErrURLNotFormsPath)
		}
	case hostMatches(host, googleFormsHost):
		// forms.gle short links carry the form id directly in the path.
	default:
		return "", fmt.Errorf("%s: %w", op, ErrURLDomainNotAllowed)
	}

	normalized := u.Scheme + "://" + u.Host + u.Path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}

	return normalized, nil
}

func hostMatches(host, allowed string) bool {
	return host == allowed || strings.HasSuffix(host, "."+allowed)
}
