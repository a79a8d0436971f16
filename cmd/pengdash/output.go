package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/engine"
)

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT — one view, Sheets-ready
// ============================================================================

func writeCSV(w io.Writer, snap dashboard.Snapshot, view string) error {
	cw := csv.NewWriter(w)

	switch view {
	case dashboard.ViewTableA, dashboard.ViewTableB:
		table := snap.TableA
		if view == dashboard.ViewTableB {
			table = snap.TableB
		}
		writeTableCSV(cw, table)
	case dashboard.ViewHistA:
		writeHistogramCSV(cw, snap.HistogramA)
	case dashboard.ViewHistB:
		writeHistogramCSV(cw, snap.HistogramB)
	case dashboard.ViewScatter:
		writeScatterCSV(cw, snap.Scatter)
	default:
		return fmt.Errorf("unknown view %q", view)
	}

	cw.Flush()
	return cw.Error()
}

func writeTableCSV(cw *csv.Writer, table *engine.TableData) {
	if table == nil {
		return
	}
	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Key
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
}

func writeHistogramCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	if chart == nil {
		return
	}
	cw.Write([]string{chart.XAxis + " from", chart.XAxis + " to", chart.YAxis})
	for _, b := range chart.Bins {
		cw.Write([]string{fmtNum(b.From), fmtNum(b.To), fmt.Sprintf("%d", b.Count)})
	}
}

func writeScatterCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	if chart == nil {
		return
	}
	cw.Write([]string{"series", chart.XAxis, chart.YAxis})
	for _, s := range chart.Series {
		for _, p := range s.Data {
			cw.Write([]string{s.Name, fmtNum(p.X), fmtNum(p.Y)})
		}
	}
}

// ============================================================================
// TEXT OUTPUT — human-readable summary
// ============================================================================

const barWidth = 40

func writeText(w io.Writer, snap dashboard.Snapshot, ds *dataset.Dataset) error {
	var b strings.Builder
	sel := snap.Selection

	fmt.Fprintf(&b, "Penguins: %s — %s of %s records (source %s)\n",
		strings.Join(sel.Species, ", "), humanize.Comma(int64(snap.Rows)),
		humanize.Comma(int64(ds.Len())), ds.Source())

	if view, ok := dashboard.Filtered(sel, ds).Get(); ok {
		fmt.Fprintln(&b, engine.BuildText(view, sel.Attribute).Sentence(sel.Attribute))
	}

	writeHistogramText(&b, "Histogram A", snap.HistogramA)
	writeHistogramText(&b, "Histogram B", snap.HistogramB)

	if sc := snap.Scatter; sc != nil {
		fmt.Fprintf(&b, "\n%s\n", sc.Title)
		if sc.Degenerate {
			fmt.Fprintf(&b, "  (%s)\n", sc.Reason)
		}
		for _, s := range sc.Series {
			fmt.Fprintf(&b, "  %-10s %s points\n", s.Name, humanize.Comma(int64(len(s.Data))))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHistogramText(b *strings.Builder, name string, chart *engine.ChartConfig) {
	if chart == nil {
		return
	}
	fmt.Fprintf(b, "\n%s: %s, %d bins\n", name, chart.XAxis, len(chart.Bins))
	if chart.Degenerate {
		fmt.Fprintf(b, "  (%s)\n", chart.Reason)
		return
	}

	peak := 0
	for _, bin := range chart.Bins {
		peak = max(peak, bin.Count)
	}
	labels := chart.Series[0].Data
	for i, bin := range chart.Bins {
		bar := 0
		if peak > 0 {
			bar = bin.Count * barWidth / peak
		}
		fmt.Fprintf(b, "  %-22s %s %d\n", labels[i].Label, strings.Repeat("█", bar), bin.Count)
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
