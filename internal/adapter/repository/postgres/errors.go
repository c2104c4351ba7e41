package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// SQLSTATE codes mapped to domain errors
const (
	uniqueViolation = pq.ErrorCode("23505")
	checkViolation  = pq.ErrorCode("23514")
)

// wrapError translates a driver error into the domain taxonomy:
// no rows becomes ErrNotFound, a unique violation ErrConflict inside
// ErrPersistence, a check violation ErrInvalidArgument, anything else ErrPersistence.
func wrapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s: %w (%s)", domain.ErrPersistence, op, domain.ErrConflict, pqErr.Constraint)
		case checkViolation:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidArgument, pqErr.Constraint)
		}
	}

	return fmt.Errorf("%w: failed to %s: %w", domain.ErrPersistence, op, err)
}

// nullString stores empty strings as NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timePtr converts a nullable column into a pointer
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
