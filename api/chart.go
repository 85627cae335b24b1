package api

import (
	"fmt"
	"html/template"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"forecastwise/models"
)

const (
	chartID    = "forecast_chart"
	chartTheme = "dark" // built into echarts, needs no theme script
	lineColor  = "skyblue"
)

// forecastChart is a rendered chart ready for the page template
type forecastChart struct {
	Element template.HTML
	Script  template.HTML
	Assets  []string
}

// newForecastChart renders the forecast points as a line chart: dates on the
// x axis, predicted temperatures on the y axis
func newForecastChart(city string, points []models.ForecastPoint) forecastChart {
	dates := make([]string, len(points))
	values := make([]opts.LineData, len(points))
	for i, p := range points {
		dates[i] = p.DateLabel()
		values[i] = opts.LineData{Value: math.Round(p.Temperature*100) / 100}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: chartID,
			Theme:   chartTheme,
			Width:   "100%",
			Height:  "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Temperature Forecast for %s", city),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Date",
			AxisLabel: &opts.AxisLabel{Rotate: 45},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Predicted Temperature (°C)",
			Scale:     opts.Bool(true),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)
	line.SetXAxis(dates).AddSeries("Forecast Temp (°C)", values,
		charts.WithLineChartOpts(opts.LineChart{Symbol: "circle", SymbolSize: 8}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: lineColor, Width: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: lineColor}),
	)

	// RenderSnippet validates the chart, which resolves asset URLs
	snippet := line.RenderSnippet()
	assets := line.GetAssets()

	return forecastChart{
		Element: template.HTML(snippet.Element),
		Script:  template.HTML(snippet.Script),
		Assets:  append([]string(nil), assets.JSAssets.Values...),
	}
}
