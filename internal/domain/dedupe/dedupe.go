// Package dedupe tracks identifiers that were already seen in a table.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen identifiers and reports repeats.
type Deduper[K comparable] interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id K) bool

	// Duplicates returns every repeated id once, in the order it first repeated.
	Duplicates() []K

	// Size returns the number of distinct ids recorded.
	Size() int64
}

// inMemoryDeduper implements Deduper with a map. Tables are loaded wholesale,
// so there is no eviction: a bounded set would miss repeats.
type inMemoryDeduper[K comparable] struct {
	mu        sync.Mutex
	seen      map[K]int // id -> occurrences
	repeated  []K
	maxRepeat int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper[K comparable](opts ...Option) Deduper[K] {
	cfg := options{expectedSize: defaultExpectedSize, maxRepeats: defaultMaxRepeats}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &inMemoryDeduper[K]{
		seen:      make(map[K]int, cfg.expectedSize),
		maxRepeat: cfg.maxRepeats,
	}
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper[K]) SeenAndRecord(_ context.Context, id K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.seen[id]
	d.seen[id] = n + 1
	if n == 0 {
		return false
	}
	if n == 1 && (d.maxRepeat <= 0 || len(d.repeated) < d.maxRepeat) {
		d.repeated = append(d.repeated, id)
	}
	return true
}

// Duplicates returns the repeated ids recorded so far, capped by WithMaxRepeats.
func (d *inMemoryDeduper[K]) Duplicates() []K {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]K(nil), d.repeated...)
}

// Size returns the number of distinct ids recorded.
func (d *inMemoryDeduper[K]) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// CountDuplicates feeds ids through a fresh deduper and returns the repeated
// ids and the number of rows that repeated an earlier id.
func CountDuplicates[K comparable](ctx context.Context, ids []K, opts ...Option) (dups []K, repeats int) {
	opts = append([]Option{WithExpectedSize(len(ids))}, opts...)
	d := NewInMemoryDeduper[K](opts...)
	for _, id := range ids {
		if d.SeenAndRecord(ctx, id) {
			repeats++
		}
	}
	return d.Duplicates(), repeats
}
