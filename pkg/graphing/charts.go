package graphing

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// createComparisonChart overlays the before and after values of one column.
func createComparisonChart(c *Comparison, column string) *charts.Line {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    formatName(column),
			Subtitle: fmt.Sprintf("%s, focus %v", c.Class, c.Focus),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "position"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
	)

	before := make([]opts.LineData, len(c.Before))
	after := make([]opts.LineData, len(c.After))
	for i := range c.Before {
		before[i] = opts.LineData{Value: toFloat64(c.Before[i][column])}
		after[i] = opts.LineData{Value: toFloat64(c.After[i][column]), Symbol: focusSymbol(c.Focus, i)}
	}

	line.SetXAxis(positions(len(c.Before))).
		AddSeries("before", before).
		AddSeries("after", after)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
	)
	return line
}

// createDeltaChart shows after-before per position for one column.
func createDeltaChart(c *Comparison, column string) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: formatName(column) + " (Delta)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "position"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "240px"}),
	)

	data := make([]opts.BarData, len(c.Before))
	for i := range c.Before {
		data[i] = opts.BarData{Value: toFloat64(c.After[i][column]) - toFloat64(c.Before[i][column])}
	}
	bar.SetXAxis(positions(len(c.Before))).AddSeries("delta", data)
	return bar
}

func positions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func focusSymbol(focus []int, i int) string {
	if slices.Contains(focus, i) {
		return "diamond"
	}
	return "circle"
}
