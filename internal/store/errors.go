package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an insert hits a unique constraint.
var ErrAlreadyExists = errors.New("already exists")

var (
	ErrDuplicateEmail    = fmt.Errorf("%w: email", ErrAlreadyExists)
	ErrDuplicateUsername = fmt.Errorf("%w: username", ErrAlreadyExists)
)

const uniqueViolation = "23505"

// mapWriteError translates Postgres unique violations into ErrAlreadyExists.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

// constraintName returns the violated constraint for a unique violation, or "".
func constraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
