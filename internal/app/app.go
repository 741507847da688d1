package app

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/erfi/rpcbench/internal/client"
	"github.com/erfi/rpcbench/internal/metrics"
	"github.com/erfi/rpcbench/internal/output"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Config contains the run configuration. It is immutable once Run starts;
// workers and the reporter only ever read it.
type Config struct {
	URL            string
	Method         string
	Params         string
	Concurrency    int
	Duration       time.Duration
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Insecure       bool

	// RealtimePercentile enables cumulative percentile recomputation on every
	// reporter tick. O(n log n) per tick over the full latency history.
	RealtimePercentile bool
	// SuccessOnlyLatency restricts latency samples to successful calls.
	SuccessOnlyLatency bool
	Quiet              bool
}

// App owns the run: the invoker, the shared metrics store, the worker pool
// and the realtime reporter.
type App struct {
	config  *Config
	invoker *client.Invoker
	store   *metrics.Store

	// Out receives the realtime lines and the final summary. Defaults to
	// stdout.
	Out io.Writer
}

// New validates the configuration and builds the application. Validation
// failures here are the only fatal errors; everything after Run starts is
// recorded as metrics instead.
func New(config *Config) (*App, error) {
	if config.URL == "" {
		return nil, errors.New("no target URL configured")
	}
	if config.Method == "" {
		return nil, errors.New("no RPC method configured")
	}
	if config.Concurrency < 1 {
		return nil, errors.Errorf("concurrency must be at least 1, got %d", config.Concurrency)
	}
	if config.Duration <= 0 {
		return nil, errors.Errorf("duration must be positive, got %s", config.Duration)
	}
	if !gjson.Valid(config.Params) {
		return nil, errors.Errorf("invalid params JSON: %s", config.Params)
	}

	httpClient := client.NewClient(&client.Config{
		ConnectTimeout:  config.ConnectTimeout,
		RequestTimeout:  config.RequestTimeout,
		Insecure:        config.Insecure,
		MaxConnsPerHost: config.Concurrency,
	})

	return &App{
		config:  config,
		invoker: client.NewInvoker(httpClient, config.URL, config.Method, config.Params, config.SuccessOnlyLatency),
		store:   metrics.NewStore(),
		Out:     os.Stdout,
	}, nil
}

// Run executes the load test: it launches the reporter and the worker pool,
// blocks until the deadline (or ctx cancellation) stops them all, then prints
// the final summary.
func (a *App) Run(ctx context.Context) error {
	if !a.config.Quiet {
		output.WriteRunHeader(a.Out, a.config.URL, a.config.Method, a.config.Params,
			a.config.Concurrency, a.config.Duration, a.config.ConnectTimeout, a.config.RequestTimeout)
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, a.config.Duration)
	defer cancel()

	// The reporter shares the run context, so status lines stop at the
	// deadline while workers drain their in-flight requests.
	reporter := NewReporter(a.store, start, time.Second, a.config.RealtimePercentile, a.Out)
	reporter.Start(runCtx)

	var wg sync.WaitGroup
	for i := 0; i < a.config.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			a.runWorker(runCtx, worker)
		}(i)
	}
	wg.Wait()
	reporter.Stop()

	summary := metrics.Aggregate(a.store.Snapshot(), time.Since(start))
	return output.WriteSummary(a.Out, summary)
}

// runWorker loops until the deadline, issuing one call per iteration.
// Request ids are unique across workers and monotonic within one. The call
// itself is not bound to the run context: a request in flight when the
// deadline passes completes and is recorded before the worker exits.
func (a *App) runWorker(ctx context.Context, worker int) {
	id := uint64(worker) * 1_000_000
	for ctx.Err() == nil {
		id++
		a.store.Append(a.invoker.Invoke(context.Background(), id))
	}
}
