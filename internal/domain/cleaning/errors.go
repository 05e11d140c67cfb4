package cleaning

import "errors"

var (
	// ErrParse reports an event_time value that matches none of the layouts.
	ErrParse = errors.New("cleaning: unparseable timestamp")
	// ErrMalformedComment reports a comment that is not a JSON-like object.
	// It wraps nested.ErrMalformedComment.
	ErrMalformedComment = errors.New("cleaning: malformed comment")
	// ErrInvalidValue reports a cell that cannot be typed for its column.
	ErrInvalidValue = errors.New("cleaning: invalid value")
	// ErrMissingColumn reports a required column absent from a table header.
	ErrMissingColumn = errors.New("cleaning: missing column")
	// ErrInvalidPolicy reports an unknown error policy name.
	ErrInvalidPolicy = errors.New("cleaning: invalid error policy")
)
