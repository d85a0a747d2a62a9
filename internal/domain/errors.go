package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrAborted indicates the operation was cancelled (superseded or
	// transport abort). Callers treat it as "discard silently", never
	// as a failure to report.
	ErrAborted = errors.New("operation aborted")

	// ErrServerOffline indicates the catalog service is unreachable
	ErrServerOffline = errors.New("catalog service is unreachable")

	// ErrAuthFailed indicates the session token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotAuthenticated indicates a user-scoped call was made before login
	ErrNotAuthenticated = errors.New("no authenticated user")
)
