// Package store provides database access methods for all RateHub
// entities. Each store struct wraps a *sql.DB and exposes typed query
// methods. Uniqueness and referential integrity live in the schema; the
// stores only translate constraint violations into typed errors.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// codeUniqueViolation is the PostgreSQL error code for unique-constraint
// violations.
const codeUniqueViolation = "23505"

// ConflictError marks a write rejected by a uniqueness constraint. The
// constraint name identifies which invariant fired (unique_review,
// users_username_key, ...).
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return "conflict on " + e.Constraint
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// translate converts PostgreSQL constraint violations into typed errors
// and passes everything else through unchanged.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return &ConflictError{Constraint: pgErr.ConstraintName}
	}
	return err
}
