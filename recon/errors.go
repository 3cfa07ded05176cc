/*
errors.go - Centralized error types for the reconciliation core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (api, cmd) classify with errors.Is / errors.As and the
  helpers below; they never string-match.

ERROR CATEGORIES:
  1. Role errors  - Column resolution failures (configuration)
  2. Rule errors  - Invalid rule-table mutations (client input)

SEE ALSO:
  - resolve.go: Produces RoleError
  - rules.go:   Produces rule mutation errors
*/
package recon

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRoleUnresolved is returned when a role cannot be bound to any
	// column and no fallback column exists.
	ErrRoleUnresolved = errors.New("role could not be resolved to a column")

	// ErrRuleNotFound is returned when a mutation targets a status key
	// that is not in the table.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrEmptyRuleKey is returned when a mutation would create a rule
	// with an empty status key.
	ErrEmptyRuleKey = errors.New("rule key must not be empty")

	// ErrRuleKeyCollision is returned when a rename would overwrite an
	// existing rule (keys compared case-insensitively).
	ErrRuleKeyCollision = errors.New("rule key already exists")

	// ErrInvalidRuleConfig is returned when an imported rule table
	// fails validation.
	ErrInvalidRuleConfig = errors.New("invalid rule configuration")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RoleError reports which role on which side failed to resolve, and
// what patterns were tried. Only raised for empty datasets; non-empty
// datasets fall back to the first column instead.
type RoleError struct {
	Side     Side
	Role     string
	Patterns []Pattern
}

func (e *RoleError) Error() string {
	tried := make([]string, 0, len(e.Patterns))
	for _, p := range e.Patterns {
		tried = append(tried, strings.Join(p, "+"))
	}
	return fmt.Sprintf("cannot resolve %s role %q: dataset has no columns (patterns tried: %s)",
		e.Side, e.Role, strings.Join(tried, ", "))
}

func (e *RoleError) Unwrap() error {
	return ErrRoleUnresolved
}

// RuleConfigError reports why an imported or constructed rule table
// is invalid.
type RuleConfigError struct {
	Key    string
	Reason string
}

func (e *RuleConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid rule configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid rule configuration for %q: %s", e.Key, e.Reason)
}

func (e *RuleConfigError) Unwrap() error {
	return ErrInvalidRuleConfig
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyRuleKey) ||
		errors.Is(err, ErrRuleKeyCollision) ||
		errors.Is(err, ErrInvalidRuleConfig)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsConfigError returns true if the error indicates an operator
// configuration problem rather than bad request input.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrRoleUnresolved)
}
