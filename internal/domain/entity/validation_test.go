package entity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGatewayURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https URL", "https://mcp.example.eu/rpc", false},
		{"loopback gateway", "http://127.0.0.1:8080/mcp", false},
		{"private gateway", "http://10.0.4.2/mcp", false},
		{"empty URL", "", true},
		{"invalid scheme - ftp", "ftp://example.com/rpc", true},
		{"invalid scheme - file", "file:///etc/passwd", true},
		{"no host", "https://", true},
		{"too long", "https://example.com/" + strings.Repeat("a", maxURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGatewayURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 2026-03-09 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "09/03/2026", "2026-13-01", "tomorrow"} {
		_, err := ParseDate(bad)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, bad)
		assert.Equal(t, "date", vErr.Field)
		assert.True(t, errors.Is(err, ErrValidationFailed))
	}
}

func TestParseOutputKind(t *testing.T) {
	kind, err := ParseOutputKind("Week-Ahead")
	require.NoError(t, err)
	assert.Equal(t, OutputWeekAhead, kind)

	_, err = ParseOutputKind("breaking-news")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "output", vErr.Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "committee", Message: "required"}

	assert.Equal(t, "validation error on field 'committee': required", err.Error())
	assert.ErrorIs(t, err, ErrValidationFailed)
}
