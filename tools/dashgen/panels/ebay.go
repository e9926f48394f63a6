package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// APICallsRate is eBay calls per second by operation (search, next,
// previous, fetch, analytics).
func APICallsRate() *timeseries.PanelBuilder {
	return timeSeries("API Calls Rate", "eBay API calls per second by operation", TSWidth).
		WithTarget(target(`ebaybuy:api_calls:rate5m`, "{{operation}}", "A")).
		Unit("reqps").
		Legend(tableLegend("mean", "max")).
		Tooltip(allSeriesTooltip()).
		Thresholds(allGreen())
}

// APIErrorRate is failed eBay calls by status. Transport failures carry
// status "error".
func APIErrorRate() *timeseries.PanelBuilder {
	return timeSeries("API Errors", "Failed eBay API calls per second by status", TSWidth).
		WithTarget(target(`ebaybuy:api_errors:rate5m`, "{{status}}", "A")).
		Unit("reqps").
		Thresholds(greenYellowRed(0.01, 0.1))
}

func APICallLatency() *timeseries.PanelBuilder {
	return timeSeries("API Latency (p95)", "95th percentile eBay API call duration by operation", ThirdWidth).
		WithTarget(target(`ebaybuy:api_call_duration:p95_5m`, "{{operation}}", "A")).
		Unit("s").
		Thresholds(greenYellowRed(1, 5))
}

// DailyUsage is the rolling 24h call count, colored against the limit.
func DailyUsage() *timeseries.PanelBuilder {
	return timeSeries("Daily Usage vs Limit",
		fmt.Sprintf("Rolling 24h eBay API call count (limit: %d)", EbayDailyLimit), ThirdWidth).
		WithTarget(target(job("ebaybuy_daily_usage"), "usage", "A")).
		Thresholds(greenYellowRed(float64(EbayDailyLimit)*0.8, float64(EbayDailyLimit))).
		ColorScheme(byThreshold())
}

// LimitHits counts calls refused locally in the last day because the quota
// was used up.
func LimitHits() *stat.PanelBuilder {
	return bigStat("Limit Hits (24h)", "Calls refused locally because the daily quota was used up", ThirdWidth, TSHeight).
		WithTarget(target(`increase(`+job("ebaybuy_daily_limit_hits_total")+`[24h])`, "", "A")).
		Thresholds(greenYellowRed(1, 3)).
		GraphMode(common.BigValueGraphModeArea)
}
