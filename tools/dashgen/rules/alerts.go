package rules

// AlertRules returns the ebaybuy alerts. Rate-based alerts read the series
// from RecordingRules.
func AlertRules() PrometheusRule {
	return newPrometheusRule("ebaybuy-alerts",
		alert("EbaybuyDown", `absent(up{job="ebaybuy"})`, "2m", critical(
			"ebaybuy is down",
			"The ebaybuy job has been absent for more than 2 minutes.",
		)),
		alert("EbaybuyNotReady", `ebaybuy_readyz_up == 0`, "2m", critical(
			"ebaybuy cannot obtain an eBay application token",
			"The readiness probe has been failing for more than 2 minutes. Check the client credentials and the token endpoint.",
		)),
		alert("EbaybuyHighErrorRate", `ebaybuy:http_errors:rate5m / ebaybuy:http_requests:rate5m > 0.05`, "5m", warning(
			"High HTTP error rate on ebaybuy",
			"More than 5% of proxy requests are returning 5xx errors over the last 5 minutes.",
		)),
		alert("EbaybuyTokenRefreshFailing", `ebaybuy:token_failures:rate5m > 0`, "5m", warning(
			"eBay token refreshes are failing",
			"The OAuth token endpoint has rejected or failed refreshes for more than 5 minutes.",
		)),
		alert("EbaybuyUpstreamErrors", `sum(ebaybuy:api_errors:rate5m) > 0.1`, "5m", warning(
			"eBay API calls are failing",
			"More than 0.1 failed eBay calls per second over the last 5 minutes.",
		)),
		alert("EbaybuyQuotaHigh", `ebaybuy_daily_usage > 4000`, "5m", warning(
			"eBay API daily usage is above 80% of the quota",
			"Daily item_summary/search usage has exceeded 4000 calls (default limit is 5000).",
		)),
		alert("EbaybuyLimitReached", `increase(ebaybuy_daily_limit_hits_total[5m]) > 0`, "0m", critical(
			"eBay API daily limit has been reached",
			"The Browse API daily quota is exhausted. Searches return 429 until the window resets.",
		)),
		alert("EbaybuyHandlerPanics", `increase(ebaybuy_http_panics_total[10m]) > 0`, "0m", warning(
			"An ebaybuy handler panicked",
			"A proxy request panicked in the last 10 minutes. The request_id in the panic log line identifies it.",
		)),
	)
}

func alert(name, expr, forDuration string, meta alertMeta) Rule {
	return Rule{
		Alert:  name,
		Expr:   expr,
		For:    forDuration,
		Labels: map[string]string{"severity": meta.severity},
		Annotations: map[string]string{
			"summary":     meta.summary,
			"description": meta.description,
		},
	}
}
