package entity

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// DateLayout is the date format used in tool arguments and payloads.
const DateLayout = "2006-01-02"

// ValidateGatewayURL validates the format of the tool gateway URL.
// Private and loopback hosts are allowed: gateways usually run inside the
// same network as the monitor.
func ValidateGatewayURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &ValidationError{Field: "date", Message: "date is required"}
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "date",
			Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", value),
		}
	}
	return t, nil
}

// ParseOutputKind validates an output name.
func ParseOutputKind(value string) (OutputKind, error) {
	kind := OutputKind(strings.TrimSpace(strings.ToLower(value)))
	if !kind.Valid() {
		return "", &ValidationError{
			Field:   "output",
			Message: fmt.Sprintf("unknown output %q", value),
		}
	}
	return kind, nil
}
