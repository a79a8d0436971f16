package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/reactive"
	"github.com/spektr-org/pengdash/schema"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// twoBirds is the Adelie/Gentoo pair used throughout the scenarios.
func twoBirds(t *testing.T) *dataset.Dataset {
	t.Helper()
	nan := math.NaN()
	ds, err := dataset.New([]dataset.Penguin{
		{Species: schema.Adelie, Island: "Torgersen", BillLengthMM: nan, BillDepthMM: 18.7, FlipperLengthMM: 181, BodyMassG: 3000, Sex: "male", Year: 2007},
		{Species: schema.Gentoo, Island: "Biscoe", BillLengthMM: 47.1, BillDepthMM: 14.2, FlipperLengthMM: 214, BodyMassG: 5000, Sex: "female", Year: 2008},
	}, "test")
	if err != nil {
		t.Fatalf("dataset.New failed: %v", err)
	}
	return ds
}

func embedded(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(context.Background(), dataset.Embedded)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return ds
}

func newDashboard(t *testing.T, ds *dataset.Dataset, opts ...Option) *Dashboard {
	t.Helper()
	d, err := New(ds, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mustFlush(t, d)
	return d
}

func mustFlush(t *testing.T, d *Dashboard) Update {
	t.Helper()
	up, err := d.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	return up
}

func mustApply(t *testing.T, d *Dashboard, control string, value any) Update {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	up, err := d.Apply(context.Background(), Change{Control: control, Value: raw})
	if err != nil {
		t.Fatalf("Apply(%s=%v) failed: %v", control, value, err)
	}
	return up
}

func assertIDs(t *testing.T, label string, want, got []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", label, diff)
	}
}

var allViews = []string{ViewTableA, ViewTableB, ViewHistA, ViewHistB, ViewScatter}

// ============================================================================
// FILTERED VIEW
// ============================================================================

func TestFilteredScenario(t *testing.T) {
	ds := twoBirds(t)
	sel := DefaultSelection()

	got, ok := Filtered(sel, ds).Get()
	if !ok {
		t.Fatal("Filtered({Adelie}) should be present")
	}
	if got.Len() != 1 || got.Dimension(0, schema.Species) != schema.Adelie || got.Measure(0, schema.BodyMassG) != 3000 {
		t.Errorf("Filtered({Adelie}) = %d rows, first %s", got.Len(), got.Dimension(0, schema.Species))
	}

	again, _ := Filtered(sel, ds).Get()
	if !engine.SameRows(got, again) {
		t.Error("Filtered is not idempotent")
	}

	sel.Species = nil
	if Filtered(sel, ds).OK() {
		t.Error("Filtered({}) should be absent")
	}
}

func TestFilteredEverySubset(t *testing.T) {
	ds := embedded(t)
	species := []string{schema.Adelie, schema.Gentoo, schema.Chinstrap}

	for mask := 1; mask < 1<<len(species); mask++ {
		var set []string
		in := map[string]bool{}
		for i, s := range species {
			if mask&(1<<i) != 0 {
				set = append(set, s)
				in[s] = true
			}
		}

		view, ok := Filtered(Selection{Species: set}, ds).Get()
		if !ok {
			t.Fatalf("Filtered(%v) absent", set)
		}

		var want []int
		for i := 0; i < ds.Len(); i++ {
			if in[ds.Row(i).Species] {
				want = append(want, i)
			}
		}
		sub, isSub := view.(*engine.SubView)
		if !isSub {
			t.Fatalf("Filtered(%v) returned %T", set, view)
		}
		if diff := cmp.Diff(want, sub.Indices()); diff != "" {
			t.Errorf("Filtered(%v) rows mismatch (-want +got):\n%s", set, diff)
		}
	}
}

// ============================================================================
// RECOMPUTATION CONTRACT
// ============================================================================

func TestFirstFlushEmitsEverything(t *testing.T) {
	d, err := New(twoBirds(t))
	if err != nil {
		t.Fatal(err)
	}
	up := mustFlush(t, d)

	assertIDs(t, "recomputed", append([]string{NodeFiltered}, allViews...), up.Recomputed)
	assertIDs(t, "emitted", allViews, up.Emitted())
	if up.Suspended {
		t.Error("default selection should not be suspended")
	}
	if len(d.Pending()) != 0 {
		t.Errorf("pending after flush: %v", d.Pending())
	}
}

func TestScenarioAdelieOnly(t *testing.T) {
	d := newDashboard(t, twoBirds(t))
	snap := d.Snapshot()

	if snap.Rows != 1 {
		t.Errorf("Rows = %d, want 1", snap.Rows)
	}
	for _, table := range []*engine.TableData{snap.TableA, snap.TableB} {
		if len(table.Rows) != 1 || table.Rows[0][0] != schema.Adelie {
			t.Errorf("%s table rows = %v", table.Mode, table.Rows)
		}
	}
	if snap.TableA.Sortable || !snap.TableB.Sortable || !snap.TableB.Filterable {
		t.Error("table A should be static and table B an interactive grid")
	}

	sc := snap.Scatter
	if len(sc.Series) != 1 || sc.Series[0].Name != schema.Adelie || len(sc.Series[0].Data) != 1 {
		t.Fatalf("scatter series = %+v", sc.Series)
	}
	if sc.Series[0].Color != SpeciesPalette[schema.Adelie] {
		t.Errorf("Adelie color = %s", sc.Series[0].Color)
	}
	pt := sc.Series[0].Data[0]
	if pt.X != 2007 || pt.Y != 3000 {
		t.Errorf("point = (%v, %v), want (2007, 3000)", pt.X, pt.Y)
	}
}

func TestBinsAOnlyTouchesHistogramA(t *testing.T) {
	d := newDashboard(t, embedded(t))
	before := d.Snapshot()

	up := mustApply(t, d, ControlBinsA, 5)
	assertIDs(t, "recomputed", []string{ViewHistA}, up.Recomputed)
	assertIDs(t, "emitted", []string{ViewHistA}, up.Emitted())

	after := d.Snapshot()
	if len(after.HistogramA.Bins) != 5 {
		t.Errorf("histogram A bins = %d, want 5", len(after.HistogramA.Bins))
	}
	if after.HistogramB != before.HistogramB {
		t.Error("histogram B changed on a bins A change")
	}
	if after.Runs[ViewHistB] != 1 || after.Runs[ViewHistA] != 2 {
		t.Errorf("runs = %v", after.Runs)
	}
}

func TestBinsBOnlyTouchesHistogramB(t *testing.T) {
	d := newDashboard(t, embedded(t))
	before := d.Snapshot()

	up := mustApply(t, d, ControlBinsB, 30)
	assertIDs(t, "recomputed", []string{ViewHistB}, up.Recomputed)

	after := d.Snapshot()
	if len(after.HistogramB.Bins) != 30 {
		t.Errorf("histogram B bins = %d, want 30", len(after.HistogramB.Bins))
	}
	if after.HistogramA != before.HistogramA {
		t.Error("histogram A changed on a bins B change")
	}
}

func TestBinsBClamped(t *testing.T) {
	d := newDashboard(t, embedded(t))

	mustApply(t, d, ControlBinsB, 500)
	if got := d.Selection().BinsB; got != MaxBinsB {
		t.Errorf("BinsB = %d, want %d", got, MaxBinsB)
	}
	if got := len(d.Snapshot().HistogramB.Bins); got != MaxBinsB {
		t.Errorf("histogram B bins = %d", got)
	}

	mustApply(t, d, ControlBinsB, 1)
	if got := d.Selection().BinsB; got != MinBinsB {
		t.Errorf("BinsB = %d, want %d", got, MinBinsB)
	}
}

func TestAttributeTouchesBothHistogramsOnly(t *testing.T) {
	d := newDashboard(t, embedded(t))
	mustApply(t, d, ControlBinsA, 8)
	before := d.Snapshot()

	up := mustApply(t, d, ControlAttribute, schema.FlipperLengthMM)
	assertIDs(t, "recomputed", []string{ViewHistA, ViewHistB}, up.Recomputed)

	after := d.Snapshot()
	for _, h := range []*engine.ChartConfig{after.HistogramA, after.HistogramB} {
		if h.XAxis != "Flipper Length (mm)" {
			t.Errorf("%s histogram x axis = %q", h.Style, h.XAxis)
		}
	}
	if len(after.HistogramA.Bins) != 8 || len(after.HistogramB.Bins) != DefaultBins {
		t.Error("bin counts should stay independent")
	}
	if after.Scatter != before.Scatter || after.TableA != before.TableA {
		t.Error("attribute change re-rendered a view that does not read it")
	}
}

func TestSpeciesChangeRerunsEverything(t *testing.T) {
	d := newDashboard(t, embedded(t))
	up := mustApply(t, d, ControlSpecies, []string{schema.Gentoo, schema.Chinstrap})
	assertIDs(t, "recomputed", append([]string{NodeFiltered}, allViews...), up.Recomputed)
	if d.Snapshot().Rows != 28 {
		t.Errorf("Rows = %d, want 28", d.Snapshot().Rows)
	}
}

func TestEmptySpeciesKeepsLastOutput(t *testing.T) {
	d := newDashboard(t, embedded(t))
	before := d.Snapshot()

	up := mustApply(t, d, ControlSpecies, []string{})
	if !up.Suspended {
		t.Error("empty species should suspend")
	}
	if len(up.Recomputed) != 0 || len(up.Emitted()) != 0 {
		t.Errorf("suspended cycle recomputed %v emitted %v", up.Recomputed, up.Emitted())
	}

	snap := d.Snapshot()
	if !snap.Suspended {
		t.Error("snapshot should report suspended")
	}
	if diff := cmp.Diff(before.Outputs, snap.Outputs); diff != "" {
		t.Errorf("outputs changed while suspended (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(before.Runs, snap.Runs); diff != "" {
		t.Errorf("runs changed while suspended:\n%s", diff)
	}

	// A second empty selection and a bins change are both withheld.
	mustApply(t, d, ControlSpecies, []string{})
	up = mustApply(t, d, ControlBinsA, 7)
	if len(up.Emitted()) != 0 {
		t.Errorf("emitted %v while suspended", up.Emitted())
	}
	assertIDs(t, "pending", []string{NodeFiltered, ViewHistA}, d.Pending())

	up = mustApply(t, d, ControlSpecies, []string{schema.Gentoo})
	if up.Suspended {
		t.Error("should resume once a species is selected")
	}
	assertIDs(t, "emitted", allViews, up.Emitted())
	if got := len(d.Snapshot().HistogramA.Bins); got != 7 {
		t.Errorf("histogram A bins after resume = %d, want 7", got)
	}
}

func TestResumeWithSameSpeciesEmitsNothing(t *testing.T) {
	d := newDashboard(t, embedded(t))
	mustApply(t, d, ControlSpecies, []string{})

	up := mustApply(t, d, ControlSpecies, []string{schema.Adelie})
	assertIDs(t, "recomputed", []string{NodeFiltered}, up.Recomputed)
	if len(up.Emitted()) != 0 {
		t.Errorf("emitted %v for an unchanged subset", up.Emitted())
	}
}

func TestSetSameValueIsNoop(t *testing.T) {
	d := newDashboard(t, embedded(t))
	up := mustApply(t, d, ControlBinsA, DefaultBins)
	if len(up.Recomputed) != 0 {
		t.Errorf("recomputed %v on an unchanged value", up.Recomputed)
	}
	up = mustApply(t, d, ControlSpecies, []string{"adelie", schema.Adelie})
	if len(up.Recomputed) != 0 {
		t.Errorf("recomputed %v on an equal species set", up.Recomputed)
	}
}

// ============================================================================
// DEGENERATE INPUT
// ============================================================================

func TestDegenerateHistograms(t *testing.T) {
	d := newDashboard(t, embedded(t))

	mustApply(t, d, ControlBinsA, 0)
	if h := d.Snapshot().HistogramA; !h.Degenerate || !strings.Contains(h.Reason, "below 1") {
		t.Errorf("bins 0: degenerate=%v reason=%q", h.Degenerate, h.Reason)
	}

	up := mustApply(t, d, ControlBinsA, math.MaxInt)
	assertIDs(t, "emitted", []string{ViewHistA}, up.Emitted())
	if h := up.HistogramA; !h.Degenerate || !strings.Contains(h.Reason, "exceeds") || len(h.Bins) != 0 {
		t.Errorf("bins MaxInt: degenerate=%v reason=%q bins=%d", h.Degenerate, h.Reason, len(h.Bins))
	}
	if h := d.Snapshot().HistogramB; h.Degenerate {
		t.Errorf("histogram_b went degenerate: %q", h.Reason)
	}

	mustApply(t, d, ControlBinsA, 12)
	if got := len(d.Snapshot().HistogramA.Bins); got != 12 {
		t.Errorf("bins after recovery = %d, want 12", got)
	}
}

// ============================================================================
// CONTROLS
// ============================================================================

func TestApplyErrors(t *testing.T) {
	d := newDashboard(t, embedded(t))

	tests := []struct {
		name    string
		change  Change
		wantErr error
	}{
		{"unknown control", Change{Control: "colour", Value: json.RawMessage(`"red"`)}, ErrUnknownControl},
		{"bins not a number", Change{Control: ControlBinsA, Value: json.RawMessage(`"many"`)}, ErrInvalidValue},
		{"bins not integral", Change{Control: ControlBinsB, Value: json.RawMessage(`12.5`)}, ErrInvalidValue},
		{"unknown species", Change{Control: ControlSpecies, Value: json.RawMessage(`["Emperor"]`)}, ErrInvalidValue},
		{"unknown attribute", Change{Control: ControlAttribute, Value: json.RawMessage(`"wingspan"`)}, ErrInvalidValue},
		{"non-numeric attribute", Change{Control: ControlAttribute, Value: json.RawMessage(`"island"`)}, ErrInvalidValue},
		{"unoffered attribute", Change{Control: ControlAttribute, Value: json.RawMessage(`"bill_length_mm"`)}, ErrInvalidValue},
		{"missing value", Change{Control: ControlAttribute}, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Apply(context.Background(), tt.change)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(d.Pending()) != 0 {
		t.Errorf("rejected changes left pending nodes: %v", d.Pending())
	}
}

func TestSpeciesNormalized(t *testing.T) {
	d := newDashboard(t, embedded(t))
	if err := d.SetSpecies([]string{"chinstrap", " Adelie", "adelie"}); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "species", []string{schema.Adelie, schema.Chinstrap}, d.Selection().Species)

	got, err := ParseSpecies("Gentoo, adelie,,")
	if err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "parsed", []string{schema.Adelie, schema.Gentoo}, got)
}

func TestNewRejectsBadSelection(t *testing.T) {
	sel := DefaultSelection()
	sel.Species = []string{"Emperor"}
	if _, err := New(twoBirds(t), WithSelection(sel)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("err = %v, want ErrInvalidValue", err)
	}
}

func TestFlushCancelled(t *testing.T) {
	d, err := New(twoBirds(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(d.Pending()) == 0 {
		t.Error("cancelled flush should leave work pending")
	}
	up := mustFlush(t, d)
	assertIDs(t, "emitted", allViews, up.Emitted())
}

// cancelAfter cancels a flush once the named node has recomputed.
type cancelAfter struct {
	node   string
	cancel context.CancelFunc
}

func (c *cancelAfter) Recomputed(node string, _ time.Duration) {
	if node == c.node && c.cancel != nil {
		c.cancel()
	}
}
func (c *cancelAfter) Suspended(string)             {}
func (c *cancelAfter) Flushed(reactive.FlushStats) {}

func TestCancelledFlushKeepsEmittedViews(t *testing.T) {
	hook := &cancelAfter{node: ViewTableA}
	d := newDashboard(t, twoBirds(t), WithHooks(hook))
	if err := d.SetSpecies([]string{schema.Gentoo}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hook.cancel = cancel
	up, err := d.Flush(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(up.Emitted()) != 0 {
		t.Errorf("cancelled flush emitted %v", up.Emitted())
	}
	hook.cancel = nil

	up = mustFlush(t, d)
	assertIDs(t, "emitted", allViews, up.Emitted())
	if got := len(up.TableA.Rows); got != 1 || up.TableA.Rows[0][0] != schema.Gentoo {
		t.Errorf("table_a rows = %v, want the Gentoo row", up.TableA.Rows)
	}
	assertIDs(t, "recomputed", append([]string{NodeFiltered}, allViews...), up.Recomputed)

	if up = mustFlush(t, d); len(up.Emitted()) != 0 || len(up.Recomputed) != 0 {
		t.Errorf("carried views re-emitted twice: %v / %v", up.Emitted(), up.Recomputed)
	}
}

// ============================================================================
// RENDER + HOOKS
// ============================================================================

func TestRender(t *testing.T) {
	sel := Selection{Attribute: schema.BodyMassG, BinsA: 10, BinsB: 15, Species: []string{schema.Gentoo}}
	snap, err := Render(context.Background(), sel, embedded(t))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if snap.Rows != 16 || snap.Cycle != 1 {
		t.Errorf("Rows = %d, Cycle = %d", snap.Rows, snap.Cycle)
	}
	if len(snap.HistogramA.Bins) != 10 || len(snap.HistogramB.Bins) != 15 {
		t.Errorf("bins = %d / %d", len(snap.HistogramA.Bins), len(snap.HistogramB.Bins))
	}
	for _, id := range allViews {
		if snap.Runs[id] != 1 {
			t.Errorf("runs[%s] = %d, want 1", id, snap.Runs[id])
		}
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	d := newDashboard(t, twoBirds(t), WithHooks(LogHooks{Session: "0123456789abcdef"}))
	mustApply(t, d, ControlSpecies, []string{})

	out := buf.String()
	for _, want := range []string{"Pengdash[01234567]", "scatter recomputed", "filtered suspended", "cycle 2 done"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
