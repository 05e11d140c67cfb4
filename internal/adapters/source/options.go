package source

import "github.com/okian/fleetpulse/pkg/logger"

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithDelimiter sets the field separator.
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		if d != 0 {
			r.delimiter = d
		}
	}
}

// WithComment skips lines starting with c.
func WithComment(c rune) Option {
	return func(r *Reader) {
		r.comment = c
	}
}

// WithRequiredColumns fails reads whose header lacks any of cols.
func WithRequiredColumns(cols ...string) Option {
	return func(r *Reader) {
		r.required = append([]string(nil), cols...)
	}
}

// WithLogger sets a logger for load diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}
