// Package monitor renders reconstructed events for inspection: static
// PNG projections via gonum/plot and an interactive HTML scatter via
// go-echarts.
package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

// maxLegendTracks is the track count above which the legend is hidden.
const maxLegendTracks = 24

// RenderTrackChart writes an HTML page with the chosen projection of res:
// one series per track plus a series of unassigned hits.
func RenderTrackChart(w io.Writer, res *pipeline.Result, proj Projection, title string) error {
	axis := "x"
	if proj == ProjectionYZ {
		axis = "y"
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("tracks=%d hits=%d assigned=%.1f%%", len(res.Tracks), res.Summary.TotalHits, 100*res.Summary.AssignedFrac),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(res.Tracks) <= maxLegendTracks)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "z", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: axis, NameLocation: "middle", NameGap: 30}),
	)

	for i, t := range res.Tracks {
		data := make([]opts.ScatterData, len(t.Hits))
		for j, h := range t.Hits {
			pt := project(h, proj)
			data[j] = opts.ScatterData{Value: []interface{}{pt.X, pt.Y, h.ID}}
		}
		scatter.AddSeries(fmt.Sprintf("#%d %s", i, t.Kind()), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}

	unassigned := res.Unassigned()
	noise := make([]opts.ScatterData, len(unassigned))
	for i, h := range unassigned {
		pt := project(h, proj)
		noise[i] = opts.ScatterData{Value: []interface{}{pt.X, pt.Y, h.ID}}
	}
	scatter.AddSeries("unassigned", noise, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	return scatter.Render(w)
}
