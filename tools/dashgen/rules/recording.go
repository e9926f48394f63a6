package rules

// RecordingRules returns the rate and latency series the dashboard and
// alerts read.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("ebaybuy-recording-rules",
		Rule{
			Record: "ebaybuy:http_requests:rate5m",
			Expr:   `sum(rate(ebaybuy_http_requests_total[5m]))`,
		},
		Rule{
			Record: "ebaybuy:http_errors:rate5m",
			Expr:   `sum(rate(ebaybuy_http_requests_total{status=~"5.."}[5m]))`,
		},
		Rule{
			Record: "ebaybuy:api_calls:rate5m",
			Expr:   `sum by (operation) (rate(ebaybuy_api_calls_total[5m]))`,
		},
		Rule{
			Record: "ebaybuy:api_errors:rate5m",
			Expr:   `sum by (status) (rate(ebaybuy_api_calls_total{status!~"2.."}[5m]))`,
		},
		Rule{
			Record: "ebaybuy:token_failures:rate5m",
			Expr:   `sum(rate(ebaybuy_token_refreshes_total{outcome="failure"}[5m]))`,
		},
		Rule{
			Record: "ebaybuy:api_call_duration:p95_5m",
			Expr:   `histogram_quantile(0.95, sum by (le, operation) (rate(ebaybuy_api_call_duration_seconds_bucket[5m])))`,
		},
	)
}
