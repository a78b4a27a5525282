package chain

import "errors"

// The resolver and its adapters distinguish exactly these failure
// kinds; the API boundary maps each to a caller-visible status.
var (
	// ErrValidation marks a required input that is missing or empty.
	ErrValidation = errors.New("required parameter missing")

	// ErrNotFound means the store was reachable but holds no record
	// for the given identifier.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidIdentifier means the identifier is not shaped like a
	// store key (24 hex characters) and was never looked up.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrStoreUnavailable wraps record-store transport or query
	// failures. Never conflated with ErrNotFound.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrDirectoryUnavailable wraps directory transport or protocol
	// failures. An empty resolution is not a failure.
	ErrDirectoryUnavailable = errors.New("route directory unavailable")

	// ErrInvalidRole marks a role outside {worker, authority}. Role is
	// an internally-controlled parameter, so this surfaces as an
	// opaque internal failure rather than a validation error.
	ErrInvalidRole = errors.New("unrecognized role")

	// ErrMalformedRecord marks a stored record missing a field this
	// service requires, e.g. a task without an authority address.
	ErrMalformedRecord = errors.New("malformed record")
)
