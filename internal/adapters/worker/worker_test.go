package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	worker "github.com/okian/fleetpulse/internal/adapters/worker"
	logging "github.com/okian/fleetpulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

func TestPartitions(t *testing.T) {
	convey.Convey("Given row counts and pool widths", t, func() {
		convey.Convey("When rows divide unevenly", func() {
			parts := worker.Partitions(10, 3, 1)

			convey.Convey("Then the last partition absorbs the remainder", func() {
				want := []worker.Partition{{Start: 0, End: 3}, {Start: 3, End: 6}, {Start: 6, End: 10}}
				convey.So(cmp.Diff(want, parts), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When there are fewer rows than the minimum partition", func() {
			parts := worker.Partitions(100, 8, 256)

			convey.Convey("Then a single partition covers everything", func() {
				convey.So(parts, convey.ShouldResemble, []worker.Partition{{Start: 0, End: 100}})
			})
		})

		convey.Convey("When there are no rows", func() {
			convey.So(worker.Partitions(0, 4, 1), convey.ShouldBeEmpty)
		})

		convey.Convey("When there are more workers than rows", func() {
			parts := worker.Partitions(3, 8, 1)
			convey.So(len(parts), convey.ShouldEqual, 3)
		})
	})
}

func TestPoolMap(t *testing.T) {
	convey.Convey("Given a pool", t, func() {
		pool := worker.NewPool(4, worker.WithName("test-pool"), worker.WithMinPartition(10))
		convey.So(pool.Workers(), convey.ShouldEqual, 4)

		convey.Convey("When mapping over rows", func() {
			out := make([]int, 1000)
			err := pool.Map(context.Background(), len(out), func(_ context.Context, i int) error {
				out[i] = i * i
				return nil
			})

			convey.Convey("Then every row is processed exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				for i, v := range out {
					if v != i*i {
						t.Fatalf("row %d = %d", i, v)
					}
				}
			})
		})

		convey.Convey("When a row fails", func() {
			boom := errors.New("boom")
			var calls atomic.Int64
			err := pool.Map(context.Background(), 1000, func(_ context.Context, i int) error {
				calls.Add(1)
				if i == 5 {
					return boom
				}
				return nil
			})

			convey.Convey("Then the error is returned and work stops early", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				convey.So(calls.Load(), convey.ShouldBeLessThanOrEqualTo, 1000)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := pool.Map(ctx, 100, func(context.Context, int) error { return nil })

			convey.Convey("Then the cancellation is reported", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive width", t, func() {
		pool := worker.NewPool(0)
		convey.So(pool.Workers(), convey.ShouldBeGreaterThan, 0)
	})
}
