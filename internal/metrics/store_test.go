package metrics

import (
	"sync"
	"testing"

	"github.com/erfi/rpcbench/internal/client"
)

func TestStoreAppend(t *testing.T) {
	store := NewStore()

	outcomes := []client.Outcome{
		{Category: client.CategorySuccess, LatencyMS: 10, HasLatency: true, StatusCode: 200},
		{Category: client.CategorySuccess, LatencyMS: 20, HasLatency: true, StatusCode: 200},
		{Category: client.CategoryHTTPErr, LatencyMS: 30, HasLatency: true, StatusCode: 502},
		{Category: client.CategoryRPCErr, LatencyMS: 40, HasLatency: true, StatusCode: 200, RPCErrorCode: -32000},
		{Category: client.CategoryTimeout},
		{Category: client.CategoryConnErr},
	}
	for _, out := range outcomes {
		store.Append(out)
	}

	snap := store.Snapshot()

	if snap.Total != 6 {
		t.Errorf("Expected total 6, got %d", snap.Total)
	}
	if snap.ByCategory[client.CategorySuccess] != 2 {
		t.Errorf("Expected 2 successes, got %d", snap.ByCategory[client.CategorySuccess])
	}
	if len(snap.Latencies) != 4 {
		t.Errorf("Expected 4 latency samples, got %d", len(snap.Latencies))
	}
	if snap.StatusCodes[502] != 1 {
		t.Errorf("Expected one 502, got %d", snap.StatusCodes[502])
	}
	if snap.StatusCodes[200] != 3 {
		t.Errorf("Expected three 200s, got %d", snap.StatusCodes[200])
	}
	if snap.RPCErrors[-32000] != 1 {
		t.Errorf("Expected one rpc error -32000, got %d", snap.RPCErrors[-32000])
	}
}

func TestStoreCategorySumConservation(t *testing.T) {
	store := NewStore()
	for i, cat := range client.Categories {
		for j := 0; j <= i; j++ {
			store.Append(client.Outcome{Category: cat})
		}
	}

	snap := store.Snapshot()
	var sum int64
	for _, cat := range client.Categories {
		sum += snap.ByCategory[cat]
	}
	if sum != snap.Total {
		t.Errorf("Category counts sum to %d, total is %d", sum, snap.Total)
	}
}

func TestStoreConcurrentAppend(t *testing.T) {
	store := NewStore()

	const workers = 50
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				store.Append(client.Outcome{
					Category:   client.CategorySuccess,
					LatencyMS:  int64(i),
					HasLatency: true,
					StatusCode: 200,
				})
			}
		}()
	}
	wg.Wait()

	snap := store.Snapshot()
	if snap.Total != workers*perWorker {
		t.Errorf("Expected %d records, got %d", workers*perWorker, snap.Total)
	}
	if len(snap.Latencies) != workers*perWorker {
		t.Errorf("Expected %d latency samples, got %d", workers*perWorker, len(snap.Latencies))
	}
	if snap.ByCategory[client.CategorySuccess] != workers*perWorker {
		t.Errorf("Lost or duplicated success records: %d", snap.ByCategory[client.CategorySuccess])
	}
}

func TestStoreLatencies(t *testing.T) {
	store := NewStore()
	for _, ms := range []int64{5, 10, 15} {
		store.Append(client.Outcome{Category: client.CategorySuccess, LatencyMS: ms, HasLatency: true})
	}

	counts := store.Counts()
	if counts.Samples != 3 {
		t.Fatalf("Expected 3 samples, got %d", counts.Samples)
	}

	for _, ms := range []int64{20, 25} {
		store.Append(client.Outcome{Category: client.CategorySuccess, LatencyMS: ms, HasLatency: true})
	}
	next := store.Counts()

	window := store.Latencies(counts.Samples, next.Samples)
	if len(window) != 2 {
		t.Fatalf("Expected 2 new samples, got %d", len(window))
	}
	if window[0] != 20 || window[1] != 25 {
		t.Errorf("Window read out of order: %v", window)
	}

	// A read bounded at an earlier cursor must not see later appends.
	if got := store.Latencies(0, counts.Samples); len(got) != 3 {
		t.Errorf("Expected the first 3 samples, got %v", got)
	}

	if got := store.Latencies(next.Samples, next.Samples); got != nil {
		t.Errorf("Empty window should return nil, got %v", got)
	}
	if got := store.Latencies(100, 200); got != nil {
		t.Errorf("Reading past the end should return nil, got %v", got)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore()
	store.Append(client.Outcome{Category: client.CategorySuccess, LatencyMS: 7, HasLatency: true, StatusCode: 200})

	snap := store.Snapshot()
	store.Append(client.Outcome{Category: client.CategoryTimeout})
	snap.Latencies[0] = 999

	second := store.Snapshot()
	if second.Latencies[0] != 7 {
		t.Error("Snapshot mutation leaked back into the store")
	}
	if snap.Total != 1 {
		t.Errorf("Earlier snapshot changed after a later append: total %d", snap.Total)
	}
}
