package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RegistryError indicates a failed registry operation for a role-scoped
// adapter name (unknown name, duplicate registration, wrong capability).
type RegistryError struct {
	Role    string
	Name    string
	Message string
	Err     error
}

// NewRegistryError constructs a RegistryError.
func NewRegistryError(role, name, message string, err error) error {
	return &RegistryError{Role: role, Name: name, Message: message, Err: err}
}

func (e *RegistryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Name != "" {
		return fmt.Sprintf("registry error [%s/%s]: %s", e.Role, e.Name, e.Message)
	}
	return fmt.Sprintf("registry error [%s]: %s", e.Role, e.Message)
}

// Unwrap exposes the underlying error.
func (e *RegistryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProfileError reports problems resolving or activating a pipeline profile.
type ProfileError struct {
	Key     string
	Message string
	Err     error
}

// NewProfileError constructs a ProfileError.
func NewProfileError(key, message string, err error) error {
	return &ProfileError{Key: key, Message: message, Err: err}
}

func (e *ProfileError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key != "" {
		return fmt.Sprintf("profile error [%s]: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("profile error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ProfileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AdapterError wraps an adapter I/O failure, preserving the role and the
// operation that triggered it.
type AdapterError struct {
	Role string
	Op   string
	Err  error
}

// NewAdapterError constructs an AdapterError for the given role and operation.
func NewAdapterError(role, op string, err error) error {
	return &AdapterError{Role: role, Op: op, Err: err}
}

func (e *AdapterError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("adapter error [%s.%s]: %v", e.Role, e.Op, e.Err)
}

// Unwrap exposes the underlying error.
func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PreflightConfigError flags a profile referencing an unknown preflight
// check id. This is a deployment mistake, not a runtime condition.
type PreflightConfigError struct {
	Role    string
	CheckID string
}

// NewPreflightConfigError constructs a PreflightConfigError.
func NewPreflightConfigError(role, checkID string) error {
	return &PreflightConfigError{Role: role, CheckID: checkID}
}

func (e *PreflightConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("preflight config error: unknown check '%s' for role '%s'", e.CheckID, e.Role)
}
