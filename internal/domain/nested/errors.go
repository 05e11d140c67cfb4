package nested

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrTypeMismatch is returned when a search root is not a mapping.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrMalformedComment is returned when comment text is not a JSON-like object.
	ErrMalformedComment = errors.New("malformed comment")
)
