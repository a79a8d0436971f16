package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a RecordView
// ============================================================================
// One row per record, every dimension then every measure, in the view's
// registered key order. The static table and the interactive grid share
// rows; only the mode flags differ.
// ============================================================================

// BuildRecordTable lists every record of view.
func BuildRecordTable(view RecordView, opts ...Option) *TableData {
	cfg := applyOptions(opts)

	dimKeys := view.DimensionKeys()
	mesKeys := view.MeasureKeys()

	table := &TableData{
		Title:      cfg.Title,
		Mode:       cfg.Mode,
		Columns:    make([]Column, 0, len(dimKeys)+len(mesKeys)),
		Rows:       make([][]string, 0, view.Len()),
		Sortable:   cfg.Mode == TableGrid,
		Filterable: cfg.Mode == TableGrid,
	}

	for _, key := range dimKeys {
		table.Columns = append(table.Columns, Column{
			Key:   key,
			Label: LabelForDimension(key),
			Type:  "text",
			Align: "left",
		})
	}
	for _, key := range mesKeys {
		table.Columns = append(table.Columns, Column{
			Key:   key,
			Label: LabelForDimension(key),
			Type:  "number",
			Align: "right",
		})
	}

	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(table.Columns))
		for _, key := range dimKeys {
			val := view.Dimension(i, key)
			if val == "" {
				val = "NA"
			}
			row = append(row, val)
		}
		for _, key := range mesKeys {
			row = append(row, FormatMeasure(key, view.Measure(i, key)))
		}
		table.Rows = append(table.Rows, row)
	}

	// Footer: mean of each measure over its non-missing values.
	table.Summary = &Summary{
		Label:  fmt.Sprintf("%s rows", humanize.Comma(int64(view.Len()))),
		Values: make(map[string]string, len(mesKeys)),
	}
	for _, key := range mesKeys {
		values, _ := MeasureValues(view, key)
		if len(values) == 0 {
			table.Summary.Values[key] = "NA"
			continue
		}
		table.Summary.Values[key] = FormatMeasure(key, RoundTo2(Mean(values)))
	}
	return table
}
