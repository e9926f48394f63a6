// Package dashboards lays panels out into ebaybuy's Grafana dashboards.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/ebaybuy/tools/dashgen/panels"
)

// OverviewUID is the dashboard UID; links and alerts depend on it.
const OverviewUID = "ebaybuy-overview"

type row struct {
	title  string
	panels []cog.Builder[dashboard.Panel]
}

func overviewRows() []row {
	return []row{
		{"Overview", []cog.Builder[dashboard.Panel]{
			panels.HealthzStat(), panels.ReadyzStat(), panels.QuotaGauge(), panels.UptimeStat(),
		}},
		{"HTTP", []cog.Builder[dashboard.Panel]{
			panels.RequestRate(), panels.LatencyPercentiles(), panels.ErrorRate(), panels.InFlight(),
		}},
		{"eBay API", []cog.Builder[dashboard.Panel]{
			panels.APICallsRate(), panels.APIErrorRate(), panels.APICallLatency(),
			panels.DailyUsage(), panels.LimitHits(),
		}},
		{"Tokens & Paging", []cog.Builder[dashboard.Panel]{
			panels.TokenRefreshes(), panels.TokenInvalidations(), panels.PagesFetched(),
		}},
	}
}

// BuildOverview returns the single-page view of proxy health, eBay usage
// and token activity.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("ebaybuy Overview").
		Uid(OverviewUID).
		Tags([]string{"ebaybuy", "ebay"}).
		Time("now-6h", "now").
		Refresh("30s").
		Timezone("browser").
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		Editable().
		WithVariable(dashboard.NewDatasourceVariableBuilder("datasource").
			Label("Datasource").
			Type("prometheus"))

	for _, r := range overviewRows() {
		rb := dashboard.NewRowBuilder(r.title)
		for _, p := range r.panels {
			rb.WithPanel(p)
		}
		b.WithRow(rb)
	}
	return b
}
