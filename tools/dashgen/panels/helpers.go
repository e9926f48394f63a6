// Package panels builds the Grafana panels of the ebaybuy dashboard.
package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// EbayDailyLimit is eBay's default daily item_summary/search quota.
const EbayDailyLimit = 5000

// Grid spans and heights; the grid is 24 columns wide.
const (
	StatWidth  = 6
	StatHeight = 4
	ThirdWidth = 8
	TSWidth    = 12
	TSHeight   = 8
)

func job(metric string) string {
	return metric + `{job="ebaybuy"}`
}

func datasource() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

func target(expr, legend, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legend).
		RefId(refID)
}

func timeSeries(title, description string, span uint32) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(datasource()).
		Span(span).
		Height(TSHeight).
		DrawStyle(common.GraphDrawStyleLine).
		LineWidth(2).
		FillOpacity(10).
		ColorScheme(classicPalette())
}

// bigStat colors the whole panel background by threshold.
func bigStat(title, description string, span, height uint32) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(datasource()).
		Span(span).
		Height(height).
		ColorMode(common.BigValueColorModeBackground).
		ColorScheme(byThreshold())
}

// step is a threshold color that applies from its value upward. The first
// step of a set has no value and covers everything below the second.
type step struct {
	color string
	from  *float64
}

func at(color string, from float64) step {
	return step{color: color, from: &from}
}

func steps(base string, rest ...step) cog.Builder[dashboard.ThresholdsConfig] {
	out := []dashboard.Threshold{{Color: base}}
	for _, s := range rest {
		out = append(out, dashboard.Threshold{Color: s.color, Value: s.from})
	}
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(out)
}

func allGreen() cog.Builder[dashboard.ThresholdsConfig] {
	return steps("green")
}

// greenFrom is red below v.
func greenFrom(v float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps("red", at("green", v))
}

func greenYellowRed(yellow, red float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps("green", at("yellow", yellow), at("red", red))
}

func byThreshold() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds)
}

func classicPalette() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdPaletteClassic)
}

// tableLegend puts a legend table under the graph with one column per calc.
func tableLegend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

func allSeriesTooltip() *common.VizTooltipOptionsBuilder {
	return common.NewVizTooltipOptionsBuilder().
		Mode(common.TooltipDisplayModeMulti).
		Sort(common.SortOrderDescending)
}
