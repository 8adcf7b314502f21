package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoRows is returned when a query expected to return a row returns none.
	ErrNoRows = errors.New("no rows in result set")

	// ErrConnection marks failures reaching the database (dial errors, pool
	// exhaustion, server shutdown). Callers may retry the whole operation.
	ErrConnection = errors.New("database unavailable")
)

// IsNoRows returns true if the error indicates no rows were found.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}

// IsConnection reports whether err was classified as a connectivity failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// ViolationKind identifies which integrity rule rejected a write.
type ViolationKind string

const (
	ViolationUnique    ViolationKind = "unique"
	ViolationExclusion ViolationKind = "exclusion"
)

// Violation is a driver-neutral integrity constraint failure. Constraint holds
// the PostgreSQL constraint name or the SQLite column list from the message.
type Violation struct {
	Kind       ViolationKind
	Constraint string
	Err        error
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s constraint violated (%s): %v", v.Kind, v.Constraint, v.Err)
}

func (v *Violation) Unwrap() error {
	return v.Err
}

// Involves reports whether the violated constraint mentions name.
func (v *Violation) Involves(name string) bool {
	return strings.Contains(v.Constraint, name)
}

// AsViolation extracts a Violation from err.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// ConnectionError wraps a driver error so it matches ErrConnection while
// keeping the original reachable through errors.As.
func ConnectionError(err error) error {
	if err == nil || errors.Is(err, ErrConnection) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConnection, err)
}
