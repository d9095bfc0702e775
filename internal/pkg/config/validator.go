package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions and descriptors
// such as "@daily".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule validates a cron expression (minute hour dom month dow).
//
// Examples:
//   - "30 5 * * *" daily at 05:30
//   - "0 6 * * 1" Mondays at 06:00
//   - "@daily"
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ParseCronSchedule parses a schedule with the same rules as ValidateCronSchedule.
func ParseCronSchedule(schedule string) (cron.Schedule, error) {
	if err := ValidateCronSchedule(schedule); err != nil {
		return nil, err
	}
	return cronParser.Parse(schedule)
}

// ValidateTimezone validates an IANA timezone name such as "Europe/Brussels".
// Availability depends on the system timezone data.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// ValidateDuration validates that min <= duration <= max.
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange validates that min <= value <= max.
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidateFloatRange validates that min <= value <= max.
func ValidateFloatRange(value, min, max float64) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%g) cannot be greater than max (%g)", min, max)
	}
	if value < min || value > max {
		return fmt.Errorf("value %g is outside [%g, %g]", value, min, max)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

// ValidateOneOf validates that value is one of allowed.
func ValidateOneOf(value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("value '%s' must be one of %v", value, allowed)
	}
	return nil
}
