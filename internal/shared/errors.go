package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrCloseNotAuthorized is surfaced when the actor lacks the close capability.
	ErrCloseNotAuthorized = errors.New("period close not authorized")
	// ErrReopenNotAuthorized is surfaced when the actor lacks the reopen capability.
	ErrReopenNotAuthorized = errors.New("period reopen not authorized")
)
