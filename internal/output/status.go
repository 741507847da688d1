package output

import (
	"fmt"

	"github.com/erfi/rpcbench/internal/client"
	"github.com/erfi/rpcbench/internal/metrics"
	"github.com/fatih/color"
)

// FormatStatus renders one realtime status line: the last-second deltas
// followed by cumulative figures. Early ticks with no traffic render "n/a"
// instead of zero-division artifacts.
func FormatStatus(tick metrics.Tick) string {
	intervalOK := tick.IntervalByCategory[client.CategorySuccess]
	intervalErrs := tick.IntervalTotal - intervalOK

	avg := "n/a"
	if tick.IntervalSamples > 0 {
		avg = fmt.Sprintf("%.1fms", tick.IntervalAvgMS)
	}

	qps := "n/a"
	if tick.Total > 0 {
		qps = fmt.Sprintf("%.1f", tick.QPS)
	}

	line := fmt.Sprintf("[%4ds] last 1s: %d req (%s ok, %s err%s) avg %s | total %d | qps %s",
		int(tick.Elapsed.Seconds()),
		tick.IntervalTotal,
		color.GreenString("%d", intervalOK),
		color.RedString("%d", intervalErrs),
		errBreakdown(tick),
		avg,
		tick.Total,
		qps,
	)

	if tick.Percentiles != nil {
		line += fmt.Sprintf(" | p50 %dms p95 %dms p99 %dms",
			tick.Percentiles.P50MS, tick.Percentiles.P95MS, tick.Percentiles.P99MS)
	}
	return line
}

// errBreakdown lists the non-success categories seen in the interval, e.g.
// ": timeout 2, curl_err 1". Empty when the interval had no errors.
func errBreakdown(tick metrics.Tick) string {
	parts := ""
	for _, cat := range client.Categories {
		if cat == client.CategorySuccess {
			continue
		}
		if n := tick.IntervalByCategory[cat]; n > 0 {
			if parts != "" {
				parts += ", "
			}
			parts += fmt.Sprintf("%s %d", cat, n)
		}
	}
	if parts == "" {
		return ""
	}
	return ": " + parts
}
