package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronSchedule(t *testing.T) {
	for _, s := range []string{"30 5 * * *", "0 6 * * 1", "*/15 * * * *", "0 9-17 * * 1-5", "@daily"} {
		assert.NoError(t, ValidateCronSchedule(s), s)
	}
	for _, s := range []string{"", "* * *", "61 * * * *", "0 0 * * * *", "every day"} {
		assert.Error(t, ValidateCronSchedule(s), s)
	}
}

func TestParseCronSchedule(t *testing.T) {
	sched, err := ParseCronSchedule("30 5 * * *")
	require.NoError(t, err)

	from := time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC), sched.Next(from))

	_, err = ParseCronSchedule("bogus")
	assert.Error(t, err)
}

func TestValidateTimezone(t *testing.T) {
	for _, tz := range []string{"UTC", "Europe/Brussels", "Asia/Tokyo"} {
		assert.NoError(t, ValidateTimezone(tz), tz)
	}
	assert.ErrorContains(t, ValidateTimezone(""), "cannot be empty")
	assert.ErrorContains(t, ValidateTimezone("Mars/Olympus"), "Mars/Olympus")
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.NoError(t, ValidateDuration(time.Second, time.Second, time.Hour), "min is inclusive")
	assert.NoError(t, ValidateDuration(time.Hour, time.Second, time.Hour), "max is inclusive")
	assert.ErrorContains(t, ValidateDuration(0, time.Second, time.Hour), "below minimum")
	assert.ErrorContains(t, ValidateDuration(2*time.Hour, time.Second, time.Hour), "exceeds maximum")
	assert.ErrorContains(t, ValidateDuration(time.Minute, time.Hour, time.Second), "invalid range")
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(5, 1, 10))
	assert.NoError(t, ValidateIntRange(1, 1, 1))
	assert.ErrorContains(t, ValidateIntRange(0, 1, 10), "below minimum")
	assert.ErrorContains(t, ValidateIntRange(11, 1, 10), "exceeds maximum")
	assert.ErrorContains(t, ValidateIntRange(5, 10, 1), "invalid range")
}

func TestValidateFloatRange(t *testing.T) {
	assert.NoError(t, ValidateFloatRange(0.5, 0, 1))
	assert.Error(t, ValidateFloatRange(1.5, 0, 1))
	assert.ErrorContains(t, ValidateFloatRange(0.5, 1, 0), "invalid range")
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.ErrorContains(t, ValidatePositiveDuration(0), "must be positive")
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}

func TestValidateOneOf(t *testing.T) {
	assert.NoError(t, ValidateOneOf("stdio", "stdio", "gateway"))
	assert.ErrorContains(t, ValidateOneOf("grpc", "stdio", "gateway"), "must be one of")
}
