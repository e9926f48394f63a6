package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// TokenRefreshes is token endpoint calls per hour by environment and
// outcome. With a healthy cache this is about one per environment every
// two hours.
func TokenRefreshes() *timeseries.PanelBuilder {
	return timeSeries("Token Refreshes", "Application token requests per hour by environment and outcome", ThirdWidth).
		WithTarget(target(
			`sum by (environment, outcome) (increase(`+job("ebaybuy_token_refreshes_total")+`[1h]))`,
			"{{environment}} {{outcome}}", "A",
		)).
		Legend(tableLegend("sum")).
		Thresholds(allGreen())
}

// TokenInvalidations counts cached tokens dropped in the last day, by
// reason (environment_switch, rejected).
func TokenInvalidations() *stat.PanelBuilder {
	return bigStat("Token Invalidations (24h)", "Cached tokens dropped after an environment switch or a 401 from eBay", ThirdWidth, TSHeight).
		WithTarget(target(
			`sum by (reason) (increase(`+job("ebaybuy_token_invalidations_total")+`[24h]))`,
			"{{reason}}", "A",
		)).
		Thresholds(greenYellowRed(1, 10)).
		GraphMode(common.BigValueGraphModeNone)
}

func PagesFetched() *timeseries.PanelBuilder {
	return timeSeries("Pages Fetched", "Search result pages per second by direction (first, next, previous)", ThirdWidth).
		WithTarget(target(
			`sum by (direction) (rate(`+job("ebaybuy_pages_fetched_total")+`[5m]))`,
			"{{direction}}", "A",
		)).
		Unit("reqps").
		Thresholds(allGreen())
}
