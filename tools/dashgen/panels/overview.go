package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// upStat shows a 0/1 probe gauge as a red or green tile.
func upStat(title, description, metric string) *stat.PanelBuilder {
	return bigStat(title, description, StatWidth, StatHeight).
		WithTarget(target(metric, "", "A")).
		Thresholds(greenFrom(1)).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// HealthzStat is the liveness probe.
func HealthzStat() *stat.PanelBuilder {
	return upStat("Healthz", "Liveness probe (1 = ok, 0 = failing)", "ebaybuy_healthz_up")
}

// ReadyzStat is the readiness probe, which fails when no eBay token can be
// obtained.
func ReadyzStat() *stat.PanelBuilder {
	return upStat("Readyz", "Readiness probe (1 = an eBay token is available, 0 = not ready)", "ebaybuy_readyz_up")
}

// QuotaGauge is daily eBay usage as a percentage of the default limit.
func QuotaGauge() *gauge.PanelBuilder {
	return gauge.NewPanelBuilder().
		Title("eBay Quota %").
		Description(fmt.Sprintf("Rolling 24h eBay API usage as a percentage of %d calls", EbayDailyLimit)).
		Datasource(datasource()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(target(fmt.Sprintf("max(ebaybuy_daily_usage) / %d * 100", EbayDailyLimit), "", "A")).
		Unit("percent").
		Min(0).
		Max(100).
		Thresholds(greenYellowRed(80, 95)).
		ColorScheme(byThreshold())
}

// UptimeStat is time since the proxy process started.
func UptimeStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Uptime").
		Description("Time since process start").
		Datasource(datasource()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(target(`time() - `+job("process_start_time_seconds"), "", "A")).
		Unit("s").
		Thresholds(allGreen()).
		ColorScheme(byThreshold()).
		GraphMode(common.BigValueGraphModeNone)
}
