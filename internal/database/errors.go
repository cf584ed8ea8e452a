package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrUnauthenticated means no caller identity could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller lacks the role or ownership for the action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the referenced entity is absent or not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the action is not legal for the entity's current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyResolved guards a quote against a second accept/decline.
	ErrAlreadyResolved = errors.New("quote already resolved")

	// ErrNoPendingProposal guards date resolution without a pending proposal.
	ErrNoPendingProposal = errors.New("no pending date proposal")

	// ErrConflict is a uniqueness violation, e.g. a duplicate review.
	ErrConflict = errors.New("conflict")
)

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
