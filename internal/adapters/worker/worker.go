// Package worker maps a function over row indices with a fixed pool of
// goroutines. Each worker owns a contiguous partition of the rows, so callers
// can write results into disjoint slots of a preallocated slice without locks.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/fleetpulse/pkg/logger"
	"github.com/okian/fleetpulse/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultMinPartition = 256 // rows below which extra workers are not worth it
)

// RowFunc processes row i. It must only touch state owned by row i.
type RowFunc func(ctx context.Context, i int) error

// Pool runs RowFuncs over partitions of a row range.
type Pool struct {
	workerCount  int
	minPartition int
	name         string
	logger       logger.Logger
}

// NewPool creates a pool with workerCount workers. A count below one uses
// runtime.NumCPU().
func NewPool(workerCount int, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workerCount:  workerCount,
		minPartition: defaultMinPartition,
		name:         "worker-pool",
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	metrics.UpdateWorkerCount(p.workerCount)
	return p
}

// Workers returns the configured pool width.
func (p *Pool) Workers() int { return p.workerCount }

// Partition is a half-open row range [Start, End).
type Partition struct {
	Start int
	End   int
}

// Partitions splits n rows into at most workers contiguous ranges of at least
// minPartition rows each (the last one absorbs the remainder).
func Partitions(n, workers, minPartition int) []Partition {
	if n <= 0 {
		return nil
	}
	if minPartition < 1 {
		minPartition = 1
	}
	if workers < 1 {
		workers = 1
	}
	if maxParts := (n + minPartition - 1) / minPartition; workers > maxParts {
		workers = maxParts
	}

	per := n / workers
	parts := make([]Partition, workers)
	for w := 0; w < workers; w++ {
		start := w * per
		end := start + per
		if w == workers-1 {
			end = n
		}
		parts[w] = Partition{Start: start, End: end}
	}
	return parts
}

// Map calls fn for every i in [0, n). Within a partition rows run in order;
// partitions run concurrently. The first error cancels the remaining work and
// is returned; rows already processed keep their effects.
func (p *Pool) Map(ctx context.Context, n int, fn RowFunc) error {
	parts := Partitions(n, p.workerCount, p.minPartition)
	if len(parts) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for w, part := range parts {
		g.Go(func() error {
			return p.run(gctx, "worker-"+strconv.Itoa(w), part, fn)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Pool) run(ctx context.Context, name string, part Partition, fn RowFunc) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerPartitionLatency(time.Since(start))
	}()

	for i := part.Start; i < part.End; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s stopped at row %d: %w", name, i, err)
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}

	p.logger.Debug(ctx, "partition done",
		logger.String("worker", name),
		logger.Int("start", part.Start),
		logger.Int("end", part.End),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
