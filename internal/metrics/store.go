package metrics

import (
	"sync"

	"github.com/erfi/rpcbench/internal/client"
)

// Store is the shared append-only record of request outcomes. Workers append
// concurrently; the aggregator and reporter read consistent prefixes without
// blocking ongoing appends beyond the brief mutex hold.
type Store struct {
	mu          sync.Mutex
	total       int64
	byCategory  map[client.Category]int64
	latencies   []int64
	statusCodes map[int]int64
	rpcErrors   map[int64]int64
}

// Counts is a cheap point-in-time view of the per-category tallies.
type Counts struct {
	Total      int64
	ByCategory map[client.Category]int64
	// Samples is the number of latency records so far; it serves as the
	// position cursor for incremental reads.
	Samples int
}

// Snapshot is a full consistent copy of everything recorded so far.
// Aggregation over a snapshot is pure: the copy never changes afterward.
type Snapshot struct {
	Total       int64
	ByCategory  map[client.Category]int64
	Latencies   []int64
	StatusCodes map[int]int64
	RPCErrors   map[int64]int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byCategory:  make(map[client.Category]int64),
		statusCodes: make(map[int]int64),
		rpcErrors:   make(map[int64]int64),
	}
}

// Append records one outcome. Safe for concurrent use by any number of
// workers; every appended record becomes visible to subsequent reads exactly
// once.
func (s *Store) Append(out client.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byCategory[out.Category]++
	if out.HasLatency {
		s.latencies = append(s.latencies, out.LatencyMS)
	}
	if out.StatusCode != 0 {
		s.statusCodes[out.StatusCode]++
	}
	if out.Category == client.CategoryRPCErr {
		s.rpcErrors[out.RPCErrorCode]++
	}
}

// Counts returns the current totals without copying the latency stream.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := Counts{
		Total:      s.total,
		ByCategory: make(map[client.Category]int64, len(s.byCategory)),
		Samples:    len(s.latencies),
	}
	for cat, n := range s.byCategory {
		counts.ByCategory[cat] = n
	}
	return counts
}

// Latencies returns a copy of the latency samples in positions [from, to).
// Positions come from Counts.Samples: a reader bounding both ends by counts
// cursors gets exactly the records those cursors cover, even while appends
// continue between its reads. Out-of-range bounds are clamped.
func (s *Store) Latencies(from, to int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from < 0 {
		from = 0
	}
	if to > len(s.latencies) {
		to = len(s.latencies)
	}
	if from >= to {
		return nil
	}
	window := make([]int64, to-from)
	copy(window, s.latencies[from:to])
	return window
}

// Snapshot returns a full copy of the store's contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Total:       s.total,
		ByCategory:  make(map[client.Category]int64, len(s.byCategory)),
		Latencies:   make([]int64, len(s.latencies)),
		StatusCodes: make(map[int]int64, len(s.statusCodes)),
		RPCErrors:   make(map[int64]int64, len(s.rpcErrors)),
	}
	for cat, n := range s.byCategory {
		snap.ByCategory[cat] = n
	}
	copy(snap.Latencies, s.latencies)
	for code, n := range s.statusCodes {
		snap.StatusCodes[code] = n
	}
	for code, n := range s.rpcErrors {
		snap.RPCErrors[code] = n
	}
	return snap
}
