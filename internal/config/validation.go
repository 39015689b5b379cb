package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration for values that would prevent the
// engine from starting. Missing optional values are filled elsewhere by
// defaults; only genuinely unusable settings are reported here.
func (c *Config) Validate() error {
	var errs ValidationErrors

	switch c.Store.Backend {
	case StoreBackendRedis, StoreBackendMemory:
	default:
		errs.Add("store.backend", fmt.Sprintf("must be %q or %q", StoreBackendRedis, StoreBackendMemory), c.Store.Backend)
	}
	if c.Store.Backend == StoreBackendRedis && strings.TrimSpace(c.Store.Address) == "" {
		errs.Add("store.address", "is required for the redis backend")
	}
	if c.Executor.Timeout < 0 {
		errs.Add("executor.timeout", "must not be negative", c.Executor.Timeout)
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		errs.Add("gateway.port", "must be a valid TCP port", c.Gateway.Port)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
