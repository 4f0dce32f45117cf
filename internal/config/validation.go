package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dbsmedya/goalias/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for valid values. It does not require a
// write key; use ValidateForConvert before calling the aliasing API.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateTable("kinds.teams", &c.Kinds.Teams)...)
	errors = append(errors, c.validateTable("kinds.users", &c.Kinds.Users)...)
	if !c.Kinds.Teams.Enabled && !c.Kinds.Users.Enabled {
		errors = append(errors, ValidationError{
			Field:   "kinds",
			Message: "at least one record kind must be enabled",
		})
	}
	if c.Kinds.Teams.Enabled && c.Kinds.Users.Enabled && c.Kinds.Teams.Table == c.Kinds.Users.Table {
		errors = append(errors, ValidationError{
			Field:   "kinds.users.table",
			Message: "teams and users cannot read the same table",
		})
	}

	errors = append(errors, c.validateSegment()...)
	errors = append(errors, c.validateS3()...)
	errors = append(errors, c.validateProcessing()...)
	errors = append(errors, c.validateVerification()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateForConvert runs Validate and additionally requires a write key.
func (c *Config) ValidateForConvert() error {
	var errors ValidationErrors
	if err := c.Validate(); err != nil {
		errors = append(errors, err.(ValidationErrors)...)
	}

	if strings.TrimSpace(c.Segment.WriteKey) == "" || strings.HasPrefix(c.Segment.WriteKey, "$") {
		errors = append(errors, ValidationError{
			Field:   "segment.write_key",
			Message: "write_key is required for convert (flag --write-key or SEGMENT_WRITE_KEY)",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateTable(prefix string, t *TableConfig) ValidationErrors {
	var errors ValidationErrors
	if !t.Enabled {
		return nil
	}

	if !sqlutil.IsValidIdentifier(t.Table) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".table",
			Message: "table must be a plain identifier (letters, digits, underscore)",
		})
	}

	// Field 0 is the identifier and the splitter needs at least three fields.
	if t.KeyField < 1 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".key_field",
			Message: "key_field must be at least 1 (field 0 is the identifier)",
		})
	}

	return errors
}

func (c *Config) validateSegment() ValidationErrors {
	var errors ValidationErrors

	u, err := url.Parse(c.Segment.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "segment.endpoint",
			Message: fmt.Sprintf("endpoint must be an absolute URL, got %q", c.Segment.Endpoint),
		})
	}

	if c.Segment.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "segment.timeout",
			Message: "timeout cannot be negative",
		})
	}

	if c.Segment.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "segment.max_retries",
			Message: "max_retries cannot be negative",
		})
	}

	if c.Segment.RetryBackoff < 0 {
		errors = append(errors, ValidationError{
			Field:   "segment.retry_backoff",
			Message: "retry_backoff cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateS3() ValidationErrors {
	var errors ValidationErrors

	if c.S3.Endpoint != "" {
		u, err := url.Parse(c.S3.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "s3.endpoint",
				Message: fmt.Sprintf("endpoint must be an absolute URL, got %q", c.S3.Endpoint),
			})
		}
	}

	return errors
}

func (c *Config) validateProcessing() ValidationErrors {
	var errors ValidationErrors

	validPolicies := map[string]bool{"abort": true, "skip": true, "": true}
	if !validPolicies[c.Processing.MalformedRows] {
		errors = append(errors, ValidationError{
			Field:   "processing.malformed_rows",
			Message: "malformed_rows must be 'abort' or 'skip'",
		})
	}

	if c.Processing.Timezone != "" {
		if _, err := time.LoadLocation(c.Processing.Timezone); err != nil {
			errors = append(errors, ValidationError{
				Field:   "processing.timezone",
				Message: fmt.Sprintf("unknown timezone %q", c.Processing.Timezone),
			})
		}
	}

	return errors
}

func (c *Config) validateVerification() ValidationErrors {
	var errors ValidationErrors

	validMethods := map[string]bool{"count": true, "sha256": true, "skip": true, "": true}
	if !validMethods[c.Verification.Method] {
		errors = append(errors, ValidationError{
			Field:   "verification.method",
			Message: "method must be 'count', 'sha256' or 'skip'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
