package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER — one-line attribute summary
// ============================================================================
// Used by the CLI text output.
// ============================================================================

// BuildText summarizes measure over view: mean, range, count, missing.
func BuildText(view RecordView, measure string) *TextData {
	unit := unitFor(measure)
	values, missing := MeasureValues(view, measure)
	if len(values) == 0 {
		return &TextData{
			Value:   "No data",
			Unit:    unit,
			Count:   0,
			Missing: missing,
		}
	}

	mean := Mean(values)
	lo, hi := MinMax(values)
	return &TextData{
		Value:    FormatMeasure(measure, RoundTo2(mean)),
		RawValue: mean,
		Unit:     unit,
		Count:    len(values),
		Missing:  missing,
		Min:      lo,
		Max:      hi,
	}
}

// Sentence renders the summary for humans, e.g.
// "Body Mass (g): mean 3,700.66 over 151 records (range 2,850–4,775, 1 missing)".
func (t *TextData) Sentence(measure string) string {
	label := LabelForDimension(measure)
	if t.Count == 0 {
		return fmt.Sprintf("%s: no data", label)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: mean %s over %d records (range %s–%s",
		label, t.Value, t.Count, FormatMeasure(measure, t.Min), FormatMeasure(measure, t.Max))
	if t.Missing > 0 {
		fmt.Fprintf(&b, ", %d missing", t.Missing)
	}
	b.WriteString(")")
	return b.String()
}

func unitFor(measure string) string {
	for suffix, u := range unitSuffixes {
		if strings.HasSuffix(measure, suffix) {
			return u
		}
	}
	return ""
}
