package explain

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	increaseColor = drawing.ColorFromHex("d62728")
	decreaseColor = drawing.ColorFromHex("1f77b4")
)

// ChartOptions sizes the rendered bar chart.
type ChartOptions struct {
	Title    string
	Width    int
	Height   int
	BarWidth int
}

// DefaultChartOptions returns the layout used by the web form.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Title:    "Feature Importance (SHAP)",
		Width:    900,
		Height:   480,
		BarWidth: 48,
	}
}

// RenderPNG draws contribs as a bar chart around a zero baseline. Bars that
// raise the attrition score are red, bars that lower it blue.
func RenderPNG(w io.Writer, contribs []Contribution, opts ChartOptions) error {
	if len(contribs) == 0 {
		return ErrNoContributions
	}

	bars := make([]chart.Value, len(contribs))
	lo, hi := 0.0, 0.0
	for i, c := range contribs {
		col := increaseColor
		if c.Value < 0 {
			col = decreaseColor
		}
		bars[i] = chart.Value{
			Label: c.Feature,
			Value: c.Value,
			Style: chart.Style{FillColor: col, StrokeColor: col},
		}
		lo = math.Min(lo, c.Value)
		hi = math.Max(hi, c.Value)
	}
	// go-chart refuses a zero-height range.
	if hi-lo == 0 {
		hi = 1
	}
	pad := (hi - lo) * 0.05

	graph := chart.BarChart{
		Title:        opts.Title,
		Width:        opts.Width,
		Height:       opts.Height,
		BarWidth:     opts.BarWidth,
		BarSpacing:   12,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 90}},
		XAxis:        chart.Style{TextRotationDegrees: 45.0, FontSize: 8},
		YAxis:        chart.YAxis{Name: "SHAP value", Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}},
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
