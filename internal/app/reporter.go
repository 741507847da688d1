package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/erfi/rpcbench/internal/client"
	"github.com/erfi/rpcbench/internal/metrics"
	"github.com/erfi/rpcbench/internal/output"
)

// Reporter periodically samples the metrics store and prints one status line
// per interval. Interval figures are computed as deltas against the previous
// sample by stream position, so no history is rescanned for them.
type Reporter struct {
	store       *metrics.Store
	start       time.Time
	interval    time.Duration
	percentiles bool
	out         io.Writer

	active   int32
	done     chan struct{}
	finished chan struct{}
	prev     metrics.Counts
}

// NewReporter creates a reporter ticking at the given interval.
func NewReporter(store *metrics.Store, start time.Time, interval time.Duration, percentiles bool, out io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{
		store:       store,
		start:       start,
		interval:    interval,
		percentiles: percentiles,
		out:         out,
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
	}
}

// Start begins emitting status lines in a background goroutine. The goroutine
// exits when ctx is cancelled or Stop is called, whichever comes first.
func (r *Reporter) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&r.active, 0, 1) {
		return // already running
	}
	go r.run(ctx)
}

// Stop halts the reporter and waits for the goroutine to exit. No partial
// final tick is emitted. Safe to call after a context-driven exit.
func (r *Reporter) Stop() {
	if atomic.CompareAndSwapInt32(&r.active, 1, 0) {
		close(r.done)
		<-r.finished
	}
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.finished)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Fprintln(r.out, output.FormatStatus(r.sample()))
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

// sample reads the current counts, diffs them against the previous tick and
// averages only the latency records appended since then. Both latency reads
// are bounded at counts.Samples, the same cursor stored into prev: a record
// appended after the counts read waits for the next tick instead of being
// averaged twice. Cumulative percentiles, when enabled, re-sort the full
// history up to that cursor.
func (r *Reporter) sample() metrics.Tick {
	counts := r.store.Counts()
	tail := r.store.Latencies(r.prev.Samples, counts.Samples)

	tick := metrics.Tick{
		Elapsed:            time.Since(r.start),
		Total:              counts.Total,
		IntervalTotal:      counts.Total - r.prev.Total,
		IntervalByCategory: make(map[client.Category]int64, len(counts.ByCategory)),
		IntervalSamples:    len(tail),
	}
	for cat, n := range counts.ByCategory {
		if delta := n - r.prev.ByCategory[cat]; delta != 0 {
			tick.IntervalByCategory[cat] = delta
		}
	}

	if len(tail) > 0 {
		var sum int64
		for _, ms := range tail {
			sum += ms
		}
		tick.IntervalAvgMS = float64(sum) / float64(len(tail))
	}

	if secs := tick.Elapsed.Seconds(); secs > 0 {
		tick.QPS = float64(counts.Total) / secs
	}

	if r.percentiles && counts.Samples > 0 {
		all := r.store.Latencies(0, counts.Samples)
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		tick.Percentiles = &metrics.TickPercentiles{
			P50MS: metrics.PercentileNearestRank(all, 50),
			P95MS: metrics.PercentileNearestRank(all, 95),
			P99MS: metrics.PercentileNearestRank(all, 99),
		}
	}

	r.prev = counts
	return tick
}
