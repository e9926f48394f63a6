package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate is proxy requests per second.
func RequestRate() *timeseries.PanelBuilder {
	return timeSeries("Request Rate", "Proxy HTTP requests per second", TSWidth).
		WithTarget(target(`ebaybuy:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps").
		Legend(tableLegend("mean", "max")).
		Tooltip(allSeriesTooltip()).
		Thresholds(allGreen())
}

// LatencyPercentiles shows p50, p95 and p99 proxy latency per route.
func LatencyPercentiles() *timeseries.PanelBuilder {
	p := timeSeries("Latency Percentiles", "Proxy request duration percentiles by route", TSWidth).
		Unit("s").
		Legend(tableLegend("mean", "max")).
		Tooltip(allSeriesTooltip()).
		Thresholds(allGreen())

	for i, q := range []string{"0.50", "0.95", "0.99"} {
		p.WithTarget(target(
			fmt.Sprintf(`histogram_quantile(%s, sum by (le, path) (rate(%s[5m])))`,
				q, job("ebaybuy_http_request_duration_seconds_bucket")),
			"p"+q[2:]+" {{path}}",
			string(rune('A'+i)),
		))
	}
	return p
}

// ErrorRate is the share of proxy responses that were 5xx.
func ErrorRate() *timeseries.PanelBuilder {
	return timeSeries("Error Rate %", "HTTP 5xx responses as a percentage of all proxy requests", TSWidth).
		WithTarget(target(
			`ebaybuy:http_errors:rate5m / ebaybuy:http_requests:rate5m * 100`,
			"error %", "A",
		)).
		Unit("percent").
		Thresholds(greenYellowRed(1, 5)).
		ColorScheme(byThreshold())
}

// InFlight shows concurrent proxy requests and recovered panics.
func InFlight() *timeseries.PanelBuilder {
	return timeSeries("In Flight", "Requests being served, and handler panics per 10m", TSWidth).
		WithTarget(target(job("ebaybuy_http_requests_in_flight"), "in flight", "A")).
		WithTarget(target(`increase(`+job("ebaybuy_http_panics_total")+`[10m])`, "panics", "B")).
		Tooltip(allSeriesTooltip()).
		Thresholds(allGreen())
}
