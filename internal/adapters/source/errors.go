package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrEmptyTable      = errors.New("table has no header row")
	ErrMissingColumn   = errors.New("missing column")
	ErrDuplicateColumn = errors.New("duplicate column")
)
