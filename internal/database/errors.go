package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors returned by engine and session operations. Test with
// errors.Is; the underlying driver error stays wrapped for context.
var (
	// ErrConnection is returned when the backing store cannot be opened
	// or reached.
	ErrConnection = errors.New("store connection failed")

	// ErrConstraint is returned when a commit violates a uniqueness or
	// type constraint. The whole transaction is rolled back.
	ErrConstraint = errors.New("constraint violated")

	// ErrNotFound is returned when a lookup expected a record and found
	// none.
	ErrNotFound = errors.New("record not found")

	// ErrSessionClosed is returned when operating on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrInvalidColumn is returned when a dynamic column or sort
	// reference is outside the allowlist, or a predicate is malformed.
	ErrInvalidColumn = errors.New("invalid column reference")
)

// classify maps driver-level failures onto the sentinel taxonomy.
// Unrecognized backend errors pass through unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
