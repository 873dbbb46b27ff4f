package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvariant       = errors.New("invariant violation")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
)

// ConfigError describes a fatal problem with reference data or settings.
// It must halt a run before any record is processed.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// NewConfigError creates a ConfigError for a single field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// MalformedError annotates a record whose code field cannot be split.
// It never aborts a batch: the record is routed to rejected_incorrect.
type MalformedError struct {
	Code   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed code %q: %s", e.Code, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedRecord }
