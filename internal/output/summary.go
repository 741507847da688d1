package output

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/erfi/rpcbench/internal/client"
	"github.com/erfi/rpcbench/internal/metrics"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteRunHeader echoes the effective configuration before the run starts.
func WriteRunHeader(w io.Writer, url, method, params string, concurrency int, duration, connectTimeout, requestTimeout time.Duration) {
	fmt.Fprintf(w, "%s\n", color.CyanString("=== rpcbench ==="))
	fmt.Fprintf(w, "Target:      %s\n", url)
	fmt.Fprintf(w, "Method:      %s  Params: %s\n", method, params)
	fmt.Fprintf(w, "Concurrency: %d  Duration: %s\n", concurrency, duration)
	fmt.Fprintf(w, "Timeouts:    connect %s, request %s\n", connectTimeout, requestTimeout)
	fmt.Fprintln(w, "Running...")
}

// WriteSummary writes the final report block: totals, outcome breakdown,
// latency statistics and the status-code / rpc-error distributions.
func WriteSummary(w io.Writer, sum metrics.Summary) error {
	success := sum.ByCategory[client.CategorySuccess]
	failed := sum.Total - success

	fmt.Fprintf(w, "\n%s\n", color.CyanString("=== Load Test Results ==="))
	fmt.Fprintf(w, "Elapsed: %.2fs\n", sum.Elapsed.Seconds())
	fmt.Fprintf(w, "Total Requests: %d\n", sum.Total)
	fmt.Fprintf(w, "Successful: %s\n", color.GreenString("%d", success))
	fmt.Fprintf(w, "Failed: %s\n", color.RedString("%d", failed))
	if math.IsNaN(sum.SuccessRate) {
		fmt.Fprintln(w, "Success Rate: n/a")
	} else {
		fmt.Fprintf(w, "Success Rate: %.2f%%\n", sum.SuccessRate)
	}
	fmt.Fprintf(w, "Requests/sec: %.2f (successful: %.2f)\n\n", sum.QPS, sum.SuccessQPS)

	writeOutcomeBreakdown(w, sum)
	fmt.Fprintln(w)
	writeLatencyStats(w, sum.Latency)

	if len(sum.StatusCodes) > 0 {
		fmt.Fprintln(w)
		writeStatusCodes(w, sum)
	}
	if len(sum.RPCErrors) > 0 {
		fmt.Fprintln(w)
		writeRPCErrors(w, sum)
	}
	return nil
}

func writeOutcomeBreakdown(w io.Writer, sum metrics.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Outcome Breakdown")
	t.AppendHeader(table.Row{"Category", "Count", "Percentage"})

	for _, cat := range client.Categories {
		count := sum.ByCategory[cat]
		if count == 0 && cat != client.CategorySuccess {
			continue
		}
		t.AppendRow(table.Row{string(cat), count, percentOf(count, sum.Total)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"total", sum.Total, percentOf(sum.Total, sum.Total)})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func writeLatencyStats(w io.Writer, stats metrics.LatencyStats) {
	if stats.Samples == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Latency (ms)")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Samples", stats.Samples})
	t.AppendRow(table.Row{"Min", stats.MinMS})
	t.AppendRow(table.Row{"Max", stats.MaxMS})
	t.AppendRow(table.Row{"Mean", fmt.Sprintf("%.2f", stats.MeanMS)})
	t.AppendRow(table.Row{"P50", stats.P50MS})
	t.AppendRow(table.Row{"P90", stats.P90MS})
	t.AppendRow(table.Row{"P95", stats.P95MS})
	t.AppendRow(table.Row{"P99", stats.P99MS})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func writeStatusCodes(w io.Writer, sum metrics.Summary) {
	codes := make([]int, 0, len(sum.StatusCodes))
	for code := range sum.StatusCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return sum.StatusCodes[codes[i]] > sum.StatusCodes[codes[j]]
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("HTTP Status Distribution")
	t.AppendHeader(table.Row{"Status Code", "Count", "Percentage"})
	for _, code := range codes {
		t.AppendRow(table.Row{code, sum.StatusCodes[code], percentOf(sum.StatusCodes[code], sum.Total)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func writeRPCErrors(w io.Writer, sum metrics.Summary) {
	codes := make([]int64, 0, len(sum.RPCErrors))
	for code := range sum.RPCErrors {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return sum.RPCErrors[codes[i]] > sum.RPCErrors[codes[j]]
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("RPC Error Distribution")
	t.AppendHeader(table.Row{"Error Code", "Count", "Percentage"})
	for _, code := range codes {
		t.AppendRow(table.Row{code, sum.RPCErrors[code], percentOf(sum.RPCErrors[code], sum.Total)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func percentOf(part, total int64) string {
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(total)*100)
}
