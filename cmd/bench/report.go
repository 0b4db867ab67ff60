package main

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pointstruct/tensor"
)

// writeReport renders the interactive HTML report: one scatter of the input
// cloud with every variant's chosen points, plus coverage and latency bars.
func writeReport(path, dataset string, coords *tensor.Dense, results []measurement) error {
	page := components.NewPage()
	page.PageTitle = "sampling bench"
	page.AddCharts(
		sampleScatter(dataset, coords, results),
		coverageBar(results),
		elapsedBar(results),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// sampleScatter projects batch element 0 onto the XY plane, one series per
// variant over the grey input cloud.
func sampleScatter(dataset string, coords *tensor.Dense, results []measurement) *charts.Scatter {
	scatter := charts.NewScatter()
	minX, maxX := axisBounds(coords, 0)
	minY, maxY := axisBounds(coords, 1)
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  "dark",
			Width:  "900px",
			Height: "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Sampled points (%s)", dataset),
			Subtitle: "XY projection of batch element 0",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minX, Max: maxX, Name: "X"}),
		charts.WithYAxisOpts(opts.YAxis{Min: minY, Max: maxY, Name: "Y"}),
	)

	scatter.AddSeries("input", scatterData(coords),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	for _, m := range results {
		scatter.AddSeries(m.Name, scatterData(m.Sampled),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	}
	return scatter
}

// coverageBar charts the distinct-point coverage of every variant.
func coverageBar(results []measurement) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  "dark",
			Width:  "900px",
			Height: "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Index coverage",
			Subtitle: "fraction of distinct input points referenced by the grouped indices",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	names := make([]string, len(results))
	data := make([]opts.BarData, len(results))
	for i, m := range results {
		names[i] = m.Name
		data[i] = opts.BarData{Value: round4(m.Coverage)}
	}
	bar.SetXAxis(names).AddSeries("coverage", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// elapsedBar charts the forward-pass wall time of every variant.
func elapsedBar(results []measurement) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  "dark",
			Width:  "900px",
			Height: "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Forward pass wall time",
			Subtitle: "milliseconds per batch",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	names := make([]string, len(results))
	data := make([]opts.BarData, len(results))
	for i, m := range results {
		names[i] = m.Name
		data[i] = opts.BarData{Value: round4(float64(m.Elapsed.Microseconds()) / 1000.0)}
	}
	bar.SetXAxis(names).AddSeries("elapsed_ms", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// scatterData converts batch element 0 of a (B, n, 3) tensor into XY series
// points.
func scatterData(points *tensor.Dense) []opts.ScatterData {
	n := points.Dim(1)
	data := make([]opts.ScatterData, n)
	for i := 0; i < n; i++ {
		data[i] = opts.ScatterData{
			Value: []interface{}{round4(points.At(0, i, 0)), round4(points.At(0, i, 1))},
		}
	}
	return data
}

// axisBounds returns the padded range of coordinate channel c over the whole
// batch, so every series fits with a margin.
func axisBounds(points *tensor.Dense, c int) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	batch, n := points.Dim(0), points.Dim(1)
	for b := 0; b < batch; b++ {
		for i := 0; i < n; i++ {
			v := points.At(b, i, c)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	pad := (max - min) * 0.05
	if pad == 0 {
		pad = 1
	}
	return round4(min - pad), round4(max + pad)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
