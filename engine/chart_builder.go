package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a RecordView
// ============================================================================
// Histograms bin one measure; scatterplots pair two measures and split
// series by a dimension. Nothing here fails: inputs that cannot be plotted
// yield a degenerate config with a reason.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// MaxBins caps the bin count a histogram will allocate.
const MaxBins = 10000

// BuildHistogram bins measure into bins equal-width bins.
func BuildHistogram(view RecordView, measure string, bins int, opts ...Option) *ChartConfig {
	cfg := applyOptions(opts)

	chart := &ChartConfig{
		ChartType: ChartHistogram,
		Style:     cfg.Style,
		Title:     cfg.Title,
		XAxis:     LabelForDimension(measure),
		YAxis:     "Count",
		Series:    []ChartSeries{},
		ShowGrid:  cfg.Style == StyleInteractive,
	}

	if !HasMeasure(view, measure) {
		return degenerate(chart, fmt.Sprintf("attribute %q is not numeric", measure))
	}
	if bins < 1 {
		return degenerate(chart, fmt.Sprintf("bin count %d is below 1", bins))
	}
	if bins > MaxBins {
		return degenerate(chart, fmt.Sprintf("bin count %d exceeds %d", bins, MaxBins))
	}

	values, _ := MeasureValues(view, measure)
	if len(values) == 0 {
		return degenerate(chart, "no values to bin")
	}

	chart.Bins = BinEqualWidth(values, bins)

	color := cfg.Color
	if color == "" {
		color = defaultColors[0]
	}
	points := make([]ChartPoint, 0, len(chart.Bins))
	for _, b := range chart.Bins {
		points = append(points, ChartPoint{
			Label: binLabel(measure, b),
			Value: float64(b.Count),
		})
	}
	chart.Series = []ChartSeries{{Name: "Count", Data: points, Color: color}}
	chart.Colors = []string{color}
	return chart
}

// BuildScatter plots x against y with one series per value of groupBy, in
// first-seen order. Records missing either measure are skipped.
func BuildScatter(view RecordView, x, y, groupBy string, opts ...Option) *ChartConfig {
	cfg := applyOptions(opts)

	chart := &ChartConfig{
		ChartType:  ChartScatter,
		Style:      cfg.Style,
		Title:      cfg.Title,
		XAxis:      LabelForDimension(x),
		YAxis:      LabelForDimension(y),
		Series:     []ChartSeries{},
		ShowLegend: true,
		ShowGrid:   true,
	}

	if !HasMeasure(view, x) || !HasMeasure(view, y) {
		return degenerate(chart, fmt.Sprintf("scatter needs numeric %q and %q", x, y))
	}

	groups := UniqueValues(view, groupBy)
	byGroup := make(map[string][]ChartPoint, len(groups))
	total := 0
	for i := 0; i < view.Len(); i++ {
		xv, yv := view.Measure(i, x), view.Measure(i, y)
		if math.IsNaN(xv) || math.IsNaN(yv) {
			continue
		}
		g := view.Dimension(i, groupBy)
		byGroup[g] = append(byGroup[g], ChartPoint{X: xv, Y: yv})
		total++
	}
	if total == 0 {
		return degenerate(chart, "no points to plot")
	}

	for i, g := range groups {
		points, ok := byGroup[g]
		if !ok {
			continue
		}
		color := cfg.Palette[g]
		if color == "" {
			color = defaultColors[i%len(defaultColors)]
		}
		chart.Series = append(chart.Series, ChartSeries{Name: g, Data: points, Color: color})
		chart.Colors = append(chart.Colors, color)
	}
	return chart
}

func degenerate(chart *ChartConfig, reason string) *ChartConfig {
	chart.Degenerate = true
	chart.Reason = reason
	return chart
}

func binLabel(measure string, b Bin) string {
	return fmt.Sprintf("%s–%s", FormatMeasure(measure, RoundTo2(b.From)), FormatMeasure(measure, RoundTo2(b.To)))
}
