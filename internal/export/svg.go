package export

import (
	"fmt"
	"math"
	"os"
	"strings"
)

var strokeColors = []string{"#00ffff", "#00ff88", "#ffcc00", "#ff00ff", "#ff4444", "#4488ff", "#ffffff", "#888899"}

// Point is one vertex of a polyline in data coordinates.
type Point struct{ X, Y float64 }

// Series is a named polyline.
type Series struct {
	Name   string
	Points []Point
}

// VectorSeries turns a solution vector into a series of (index, value).
// Non-finite components are skipped.
func VectorSeries(name string, x []float64) Series {
	s := Series{Name: name, Points: make([]Point, 0, len(x))}
	for i, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			s.Points = append(s.Points, Point{X: float64(i), Y: v})
		}
	}
	return s
}

// DeltaSeries is log10 of each positive per-sweep delta against the sweep
// number.
func DeltaSeries(name string, deltas []float64) Series {
	s := Series{Name: name, Points: make([]Point, 0, len(deltas))}
	for i, d := range deltas {
		if d > 0 && !math.IsInf(d, 0) {
			s.Points = append(s.Points, Point{X: float64(i + 1), Y: math.Log10(d)})
		}
	}
	return s
}

// SeriesToSVG draws every series with at least two points on shared axes,
// with a legend in the top left corner. It returns "" when nothing can be
// drawn.
func SeriesToSVG(series []Series, width, height int) string {
	drawn := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Points) >= 2 {
			drawn = append(drawn, s)
		}
	}
	if len(drawn) == 0 {
		return ""
	}

	// Find bounds
	minX, maxX := drawn[0].Points[0].X, drawn[0].Points[0].X
	minY, maxY := drawn[0].Points[0].Y, drawn[0].Points[0].Y
	for _, s := range drawn {
		for _, p := range s.Points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, s := range drawn {
		color := strokeColors[i%len(strokeColors)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for j, p := range s.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		if s.Name != "" {
			fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*i, color, escape(s.Name))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSVG renders series to path.
func WriteSVG(path string, series []Series, width, height int) error {
	svg := SeriesToSVG(series, width, height)
	if svg == "" {
		return fmt.Errorf("export: nothing to draw")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
