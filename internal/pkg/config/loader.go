// Package config provides fail-open environment loaders and validators.
//
// Every loader returns a usable value: an unset variable yields the
// default silently, while an unparseable or invalid value yields the
// default together with a warning. Callers log the warning and record a
// fallback metric; startup never fails because of one bad variable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
//
// Fields:
//   - Value: the environment value, or the default when a fallback applied
//   - Warning: human-readable reason for the fallback, empty otherwise
//   - FallbackApplied: true when a set value was rejected
//   - Set: true when the variable was present and non-empty
//
// Example:
//
//	result := LoadEnvDuration("MCP_REQUEST_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    logger.Warn("configuration fallback", slog.String("warning", result.Warning))
//	}
//	timeout := result.Value
type LoadResult[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
	Set             bool
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set, the default value is returned.
// No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value with validation and automatic
// fallback to the default when validation fails.
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer. Surrounding spaces are rejected.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return load(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a floating point number.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) LoadResult[float64] {
	return load(envKey, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, validator)
}

// LoadEnvBool loads a boolean accepted by strconv.ParseBool
// (1, t, T, TRUE, true, True, 0, f, F, FALSE, false, False).
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return load(envKey, defaultValue, strconv.ParseBool, nil)
}

// LoadEnvList loads a comma-separated list. Blank elements are dropped and
// the remaining ones trimmed; a list with no elements falls back.
func LoadEnvList(envKey string, defaultValue []string, validator func([]string) error) LoadResult[[]string] {
	return load(envKey, defaultValue, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("list has no elements")
		}
		return out, nil
	}, validator)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	fallback := func(err error) LoadResult[T] {
		return LoadResult[T]{
			Value: defaultValue,
			Warning: fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue),
			FallbackApplied: true,
			Set:             true,
		}
	}

	value, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(err)
		}
	}
	return LoadResult[T]{Value: value, Set: true}
}
