package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ============================================================================
// AGGREGATORS — numeric extraction, equal-width binning, formatting
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// NaN marks a missing measure and is skipped everywhere.
// ============================================================================

var nan = math.NaN()

// MeasureValues collects the non-missing values of a measure in view order.
func MeasureValues(view RecordView, measure string) (values []float64, missing int) {
	n := view.Len()
	values = make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := view.Measure(i, measure)
		if math.IsNaN(v) {
			missing++
			continue
		}
		values = append(values, v)
	}
	return values, missing
}

// MinMax returns the smallest and largest value. Zero values for empty input.
func MinMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// ============================================================================
// BINNING
// ============================================================================

// BinEqualWidth splits [min, max] of values into n equal-width bins and
// counts values per bin. Bins are closed on the left; the last bin is
// closed on both ends. When all values are equal the range is widened by
// 0.5 on each side so the single value has a bin of non-zero width.
// Returns nil for empty input or n < 1.
func BinEqualWidth(values []float64, n int) []Bin {
	if len(values) == 0 || n < 1 {
		return nil
	}

	lo, hi := MinMax(values)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].From = lo + float64(i)*width
		bins[i].To = lo + float64(i+1)*width
	}
	bins[n-1].To = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatMeasure formats a measure for display: thousands separators, at most
// two decimals, "NA" for missing. Year-like keys are printed without
// separators.
func FormatMeasure(key string, v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	if key == "year" {
		return strconv.FormatInt(int64(v), 10)
	}
	return humanize.CommafWithDigits(v, 2)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct values for a dimension across a view, in
// first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

var unitSuffixes = map[string]string{
	"_mm": "mm",
	"_g":  "g",
}

// LabelForDimension turns a column key into a display label:
// "bill_depth_mm" → "Bill Depth (mm)".
func LabelForDimension(key string) string {
	if key == "" {
		return ""
	}
	unit := ""
	for suffix, u := range unitSuffixes {
		if strings.HasSuffix(key, suffix) {
			key = strings.TrimSuffix(key, suffix)
			unit = u
			break
		}
	}
	// Casers are stateful; one per call.
	label := cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
	if unit != "" {
		label += " (" + unit + ")"
	}
	return label
}
