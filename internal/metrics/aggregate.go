package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/erfi/rpcbench/internal/client"
)

// LatencyStats contains aggregated latency figures in milliseconds over the
// timed subset of attempts.
type LatencyStats struct {
	Samples int
	MinMS   int64
	MaxMS   int64
	MeanMS  float64
	P50MS   int64
	P90MS   int64
	P95MS   int64
	P99MS   int64
}

// Summary contains aggregated statistics for a completed run or an
// intermediate snapshot.
type Summary struct {
	Total      int64
	ByCategory map[client.Category]int64
	// SuccessRate is a percentage; NaN when Total is zero.
	SuccessRate float64
	Elapsed     time.Duration
	QPS         float64
	SuccessQPS  float64
	Latency     LatencyStats
	StatusCodes map[int]int64
	RPCErrors   map[int64]int64
}

// Tick is one realtime reporter sample: deltas for the last interval plus
// cumulative figures.
type Tick struct {
	Elapsed time.Duration

	IntervalTotal      int64
	IntervalByCategory map[client.Category]int64
	IntervalSamples    int
	IntervalAvgMS      float64

	Total int64
	QPS   float64
	// Percentiles is nil when cumulative percentile computation is disabled
	// or no latency samples exist yet.
	Percentiles *TickPercentiles
}

// TickPercentiles holds cumulative nearest-rank percentiles for a tick.
type TickPercentiles struct {
	P50MS int64
	P95MS int64
	P99MS int64
}

// Aggregate computes the summary statistics for a snapshot. elapsed is the
// wall-clock time since run start and drives the QPS figures.
func Aggregate(snap Snapshot, elapsed time.Duration) Summary {
	sum := Summary{
		Total:       snap.Total,
		ByCategory:  snap.ByCategory,
		Elapsed:     elapsed,
		StatusCodes: snap.StatusCodes,
		RPCErrors:   snap.RPCErrors,
	}

	success := snap.ByCategory[client.CategorySuccess]
	if snap.Total > 0 {
		sum.SuccessRate = float64(success) / float64(snap.Total) * 100
	} else {
		sum.SuccessRate = math.NaN()
	}

	if secs := elapsed.Seconds(); secs > 0 {
		sum.QPS = float64(snap.Total) / secs
		sum.SuccessQPS = float64(success) / secs
	}

	sum.Latency = latencyStats(snap.Latencies)
	return sum
}

// latencyStats sorts a copy of the samples and computes min, max, mean and
// the nearest-rank percentiles.
func latencyStats(samples []int64) LatencyStats {
	n := len(samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]int64, n)
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	for _, v := range sorted {
		total += v
	}

	return LatencyStats{
		Samples: n,
		MinMS:   sorted[0],
		MaxMS:   sorted[n-1],
		MeanMS:  float64(total) / float64(n),
		P50MS:   PercentileNearestRank(sorted, 50),
		P90MS:   PercentileNearestRank(sorted, 90),
		P95MS:   PercentileNearestRank(sorted, 95),
		P99MS:   PercentileNearestRank(sorted, 99),
	}
}

// PercentileNearestRank returns the nearest-rank percentile of ascending
// sorted samples: the value at 1-based index ceil(p/100 x N), clamped to
// [1, N]. No interpolation.
func PercentileNearestRank(sorted []int64, p float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p / 100 * float64(n)))
	if idx < 1 {
		idx = 1
	}
	if idx > n {
		idx = n
	}
	return sorted[idx-1]
}
