package dedupe

// Defaults for the in-memory deduper.
const (
	defaultExpectedSize = 1024
	defaultMaxRepeats   = 100
)

type options struct {
	expectedSize int
	maxRepeats   int
}

// Option applies a configuration option to the deduper.
type Option func(*options)

// WithExpectedSize pre-sizes the seen set.
func WithExpectedSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.expectedSize = n
		}
	}
}

// WithMaxRepeats caps how many distinct repeated ids are kept for reporting.
// Zero or negative keeps all of them.
func WithMaxRepeats(n int) Option {
	return func(o *options) {
		o.maxRepeats = n
	}
}
