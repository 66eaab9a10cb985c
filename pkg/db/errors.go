package db

import "errors"

// Error taxonomy shared by the store and the services. Failures abort the
// enclosing transaction with no partial effect; callers match with errors.Is.
var (
	// ErrNotAuthenticated means no acting user could be resolved
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied means the acting user may not perform the operation
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidReference means an entity does not exist, lives in another
	// group, or is in a state that forbids the requested transition
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidArgument means malformed input such as an unknown enum
	// literal or an unparsable time range
	ErrInvalidArgument = errors.New("invalid argument")
)
