package directory

import (
	"fmt"
	"net/url"
	"strings"

	"radiodir/internal/domain"
)

// Canonicalize validates a raw directory URL and returns its https form.
// http URLs are rewritten to https; https URLs pass through unchanged.
// Anything else (empty, other schemes, missing host) is ErrInvalidURL.
// This is the single point of truth for what counts as a usable URL.
func Canonicalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty url: %w", domain.ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, domain.ErrInvalidURL)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "https"
	case "https":
	default:
		return "", fmt.Errorf("scheme %q in %q: %w", u.Scheme, raw, domain.ErrInvalidURL)
	}

	if u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return "", fmt.Errorf("host in %q: %w", raw, domain.ErrInvalidURL)
	}

	return u.String(), nil
}

// IsCanonical reports whether key is already a canonical https URL.
func IsCanonical(key string) bool {
	canonical, err := Canonicalize(key)
	return err == nil && canonical == key
}
