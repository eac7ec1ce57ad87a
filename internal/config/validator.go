package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "daemon.interval")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, requirePath("store.path", c.Store.Path)...)
	errors = append(errors, requirePath("state.path", c.State.Path)...)
	if c.Store.Path != "" && c.Store.Path == c.State.Path {
		errors = append(errors, ValidationError{
			Field:   "state.path",
			Value:   c.State.Path,
			Message: "must differ from store.path",
		})
	}

	errors = append(errors, c.validateLogSource()...)
	errors = append(errors, requirePositive("daemon.interval", c.Daemon.Interval)...)

	if c.Feed.Port < 0 || c.Feed.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "feed.port",
			Value:   c.Feed.Port,
			Message: "must be between 0 and 65535",
		})
	}

	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateLogSource() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.LogSource.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "logsource.command",
			Value:   c.LogSource.Command,
			Message: "must not be empty",
		})
	}
	for field, value := range map[string]string{
		"logsource.subsystem": c.LogSource.Subsystem,
		"logsource.category":  c.LogSource.Category,
	} {
		// Values end up inside a quoted log predicate.
		if strings.ContainsAny(value, `"\`) {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   value,
				Message: "must not contain quotes or backslashes",
			})
		}
	}
	errors = append(errors, requirePositive("logsource.timeout", c.LogSource.Timeout)...)
	errors = append(errors, requirePositive("logsource.initial_lookback", c.LogSource.InitialLookback)...)

	slices.SortFunc(errors, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func requirePath(field, value string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Value: value, Message: "must not be empty"}}
	}
	return nil
}

func requirePositive(field string, d time.Duration) []ValidationError {
	if d <= 0 {
		return []ValidationError{{Field: field, Value: d, Message: "must be positive"}}
	}
	return nil
}
