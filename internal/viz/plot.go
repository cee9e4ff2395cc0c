package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// PlotOptions size a chart. Zero fields take the defaults.
type PlotOptions struct {
	Width   int
	Height  int
	Caption string
}

func (o PlotOptions) graph() []asciigraph.Option {
	if o.Width <= 0 {
		o.Width = 80
	}
	if o.Height <= 0 {
		o.Height = 10
	}
	opts := []asciigraph.Option{asciigraph.Width(o.Width), asciigraph.Height(o.Height)}
	if o.Caption != "" {
		opts = append(opts, asciigraph.Caption(o.Caption))
	}
	return opts
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan, asciigraph.Green, asciigraph.Yellow, asciigraph.Magenta,
	asciigraph.Red, asciigraph.Blue, asciigraph.White, asciigraph.Gray,
}

// PlotVector charts the components of x against their index.
func PlotVector(x []float64, o PlotOptions) string {
	data := finiteOnly(x)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data, o.graph()...)
}

// PlotVectors charts several vectors of the same length, one series each.
func PlotVectors(names []string, xs [][]float64, o PlotOptions) string {
	series := make([][]float64, 0, len(xs))
	legends := make([]string, 0, len(xs))
	colors := make([]asciigraph.AnsiColor, 0, len(xs))
	for i, x := range xs {
		data := finiteOnly(x)
		if len(data) == 0 {
			continue
		}
		series = append(series, data)
		if i < len(names) {
			legends = append(legends, names[i])
		}
		colors = append(colors, seriesColors[len(colors)%len(seriesColors)])
	}
	if len(series) == 0 {
		return ""
	}
	opts := append(o.graph(), asciigraph.SeriesColors(colors...))
	if len(legends) == len(series) {
		opts = append(opts, asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(series, opts...)
}

// PlotDeltas charts log10 of the per-sweep deltas of a relaxation run.
// Zero deltas are dropped.
func PlotDeltas(deltas []float64, o PlotOptions) string {
	logs := LogDeltas(deltas)
	if len(logs) == 0 {
		return ""
	}
	if o.Caption == "" {
		o.Caption = "log10 delta per sweep"
	}
	return asciigraph.Plot(logs, o.graph()...)
}

// LogDeltas returns log10 of the positive finite deltas.
func LogDeltas(deltas []float64) []float64 {
	out := make([]float64, 0, len(deltas))
	for _, d := range deltas {
		if d > 0 && !math.IsInf(d, 0) {
			out = append(out, math.Log10(d))
		}
	}
	return out
}

func finiteOnly(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
