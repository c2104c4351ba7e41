package domain

import "errors"

// Error kinds shared by every layer. Callers wrap them with fmt.Errorf("%w")
// and transport adapters map them to status codes with errors.Is.
var (
	// ErrInvalidArgument marks malformed or out-of-range input
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientQuantity marks a sell larger than the current holding
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrNotFound marks a lookup miss
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness violation (e.g. duplicate email)
	ErrConflict = errors.New("conflict")

	// ErrPersistence marks a storage failure that is not a lookup miss
	ErrPersistence = errors.New("persistence failure")

	// ErrUnauthorized marks missing or bad credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an authenticated caller without the required role
	ErrForbidden = errors.New("forbidden")
)
