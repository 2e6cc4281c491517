package services

import "errors"

// Domain error kinds. Handlers map these to HTTP statuses with errors.Is;
// storage errors are always wrapped and never cross the API boundary raw.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("conflicting state or duplicate value")
	ErrForbidden         = errors.New("operation not allowed in current state")
	ErrDepthExceeded     = errors.New("hierarchy depth limit exceeded")
	ErrCircularReference = errors.New("parent change would create a circular reference")
	ErrInvalid           = errors.New("invalid input")
)
