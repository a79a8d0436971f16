package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/schema"
)

func render(t *testing.T, sel dashboard.Selection) (dashboard.Snapshot, *dataset.Dataset) {
	t.Helper()
	ds, err := dataset.Load(context.Background(), dataset.Embedded)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	snap, err := dashboard.Render(context.Background(), sel, ds)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return snap, ds
}

func TestWriteCSVViews(t *testing.T) {
	snap, _ := render(t, dashboard.DefaultSelection())

	tests := []struct {
		view       string
		wantHeader string
		wantRows   int
	}{
		{dashboard.ViewTableA, schema.Species, 26},
		{dashboard.ViewTableB, schema.Species, 26},
		{dashboard.ViewHistA, "Bill Depth (mm) from", dashboard.DefaultBins},
		{dashboard.ViewHistB, "Bill Depth (mm) from", dashboard.DefaultBins},
		{dashboard.ViewScatter, "series", 25}, // one Adelie row has no body mass
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeCSV(&buf, snap, tt.view); err != nil {
				t.Fatalf("writeCSV failed: %v", err)
			}
			records, err := csv.NewReader(&buf).ReadAll()
			if err != nil {
				t.Fatalf("output is not CSV: %v", err)
			}
			if records[0][0] != tt.wantHeader {
				t.Errorf("header = %v", records[0])
			}
			if got := len(records) - 1; got != tt.wantRows {
				t.Errorf("rows = %d, want %d", got, tt.wantRows)
			}
		})
	}

	if err := writeCSV(&bytes.Buffer{}, snap, "pie"); err == nil {
		t.Error("unknown view should fail")
	}
}

func TestWriteText(t *testing.T) {
	sel := dashboard.DefaultSelection()
	sel.Attribute = schema.BodyMassG
	snap, ds := render(t, sel)

	var buf bytes.Buffer
	if err := writeText(&buf, snap, ds); err != nil {
		t.Fatalf("writeText failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Penguins: Adelie — 26 of 54 records (source embedded)",
		"Body Mass (g): mean",
		"Histogram A: Body Mass (g), 20 bins",
		"Penguin Age (yr) vs. Weight (g)",
		"Adelie",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextDegenerate(t *testing.T) {
	sel := dashboard.DefaultSelection()
	sel.BinsA = 0
	snap, ds := render(t, sel)

	var buf bytes.Buffer
	if err := writeText(&buf, snap, ds); err != nil {
		t.Fatalf("writeText failed: %v", err)
	}
	if !strings.Contains(buf.String(), "is below 1") {
		t.Errorf("degenerate reason missing:\n%s", buf.String())
	}
}

func TestRunRenderToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "snap.json")
	err := runRender([]string{"-species", "Gentoo,Chinstrap", "-bins-b", "500", "-format", "json", "-out", out}, os.Stdout)
	if err != nil {
		t.Fatalf("runRender failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("output is not a snapshot: %v", err)
	}
	if snap.Rows != 28 || snap.Selection.BinsB != dashboard.MaxBinsB {
		t.Errorf("Rows = %d, BinsB = %d", snap.Rows, snap.Selection.BinsB)
	}
}

func TestRunRenderErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"no species", []string{"-species", ""}},
		{"unknown species", []string{"-species", "Emperor"}},
		{"unknown attribute", []string{"-attribute", "wingspan"}},
		{"non-numeric attribute", []string{"-attribute", "island"}},
		{"unknown format", []string{"-format", "xml"}},
		{"bad source", []string{"-source", "ftp://x/y.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "-out", filepath.Join(dir, "out"))
			if err := runRender(args, os.Stdout); err == nil {
				t.Error("runRender should fail")
			}
		})
	}
}

func TestFmtNum(t *testing.T) {
	cases := map[float64]string{2007: "2007", 3750.5: "3750.50", 0: "0"}
	for in, want := range cases {
		if got := fmtNum(in); got != want {
			t.Errorf("fmtNum(%v) = %q, want %q", in, got, want)
		}
	}
}
