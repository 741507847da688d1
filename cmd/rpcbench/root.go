package main

import (
	"time"

	"github.com/erfi/rpcbench/internal/app"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	targetURL          string
	method             string
	params             string
	concurrency        int
	duration           time.Duration
	connectTimeout     time.Duration
	timeout            time.Duration
	insecure           bool
	realtimePercentile bool
	successOnlyLatency bool
	noColor            bool
	quiet              bool
)

var rootCmd = &cobra.Command{
	Use:   "rpcbench --url URL --method METHOD [flags]",
	Short: "A concurrent load-testing harness for JSON-RPC HTTP endpoints",
	Long: `rpcbench issues repeated JSON-RPC calls at a configurable concurrency level
for a fixed duration, classifies each response outcome, and reports
throughput and latency statistics both in real time and as a final summary.`,
	Example: `  rpcbench --url http://localhost:8545 --method eth_blockNumber
  rpcbench --url http://localhost:8545 --method eth_getBalance --params '["0xabc","latest"]' -c 200 -d 60s
  rpcbench --url https://rpc.example.com --method eth_blockNumber -k --realtime-percentile=0`,
	Args: cobra.NoArgs,
	RunE: runLoadTest,
}

func init() {
	rootCmd.Flags().StringVar(&targetURL, "url", "", "Target JSON-RPC endpoint URL (required)")
	rootCmd.Flags().StringVar(&method, "method", "", "JSON-RPC method name (required)")
	rootCmd.Flags().StringVar(&params, "params", "[]", "JSON value passed verbatim as the params field")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 100, "Number of concurrent workers")
	rootCmd.Flags().DurationVarP(&duration, "duration", "d", 30*time.Second, "Total run length")
	rootCmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 2*time.Second, "Per-request connection timeout")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request total timeout")
	rootCmd.Flags().BoolVarP(&insecure, "insecure", "k", false, "Skip TLS certificate verification")
	rootCmd.Flags().BoolVar(&realtimePercentile, "realtime-percentile", true, "Recompute cumulative percentiles every second")
	rootCmd.Flags().BoolVar(&successOnlyLatency, "success-only-latency", false, "Record latency samples for successful calls only")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the run header")

	rootCmd.MarkFlagRequired("url")
	rootCmd.MarkFlagRequired("method")
}

func runLoadTest(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}

	config := &app.Config{
		URL:                targetURL,
		Method:             method,
		Params:             params,
		Concurrency:        concurrency,
		Duration:           duration,
		ConnectTimeout:     connectTimeout,
		RequestTimeout:     timeout,
		Insecure:           insecure,
		RealtimePercentile: realtimePercentile,
		SuccessOnlyLatency: successOnlyLatency,
		Quiet:              quiet,
	}

	application, err := app.New(config)
	if err != nil {
		return err
	}

	ctx, cancel := app.SetupSignalHandler()
	defer cancel()

	return application.Run(ctx)
}

func Execute() error {
	return rootCmd.Execute()
}
