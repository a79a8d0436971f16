// Package dashboard wires the penguin views onto a reactive graph.
//
// Graph layout (edges are declared dependencies):
//
//	species ──► filtered ──► table_a, table_b, scatter
//	                    └──► histogram_a ◄── attribute, bins_a
//	                    └──► histogram_b ◄── attribute, bins_b
//
// The filtered subset is absent while no species is selected. Every view
// below it is then withheld and keeps its last rendered output.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/reactive"
	"github.com/spektr-org/pengdash/schema"
)

// View ids. They are also the node names in the graph.
const (
	NodeFiltered = "filtered"
	ViewTableA   = "table_a"
	ViewTableB   = "table_b"
	ViewHistA    = "histogram_a"
	ViewHistB    = "histogram_b"
	ViewScatter  = "scatter"
)

// Species colors shared by the scatterplot and the page legend.
var SpeciesPalette = map[string]string{
	schema.Adelie:    "#FF8C00",
	schema.Chinstrap: "#A034F0",
	schema.Gentoo:    "#159090",
}

// Outputs holds rendered views. Nil fields were not emitted.
type Outputs struct {
	TableA     *engine.TableData   `json:"table_a,omitempty"`
	TableB     *engine.TableData   `json:"table_b,omitempty"`
	HistogramA *engine.ChartConfig `json:"histogram_a,omitempty"`
	HistogramB *engine.ChartConfig `json:"histogram_b,omitempty"`
	Scatter    *engine.ChartConfig `json:"scatter,omitempty"`
}

// Emitted lists the ids of the non-nil outputs.
func (o Outputs) Emitted() []string {
	var ids []string
	if o.TableA != nil {
		ids = append(ids, ViewTableA)
	}
	if o.TableB != nil {
		ids = append(ids, ViewTableB)
	}
	if o.HistogramA != nil {
		ids = append(ids, ViewHistA)
	}
	if o.HistogramB != nil {
		ids = append(ids, ViewHistB)
	}
	if o.Scatter != nil {
		ids = append(ids, ViewScatter)
	}
	return ids
}

// Update is the result of one recomputation cycle: only the views that
// re-ran are set.
type Update struct {
	Cycle uint64 `json:"cycle"`
	Outputs
	Suspended  bool     `json:"suspended"`
	Recomputed []string `json:"recomputed"`
}

// Snapshot is the last good output of every view.
type Snapshot struct {
	Selection Selection `json:"selection"`
	Outputs
	Suspended bool           `json:"suspended"`
	Rows      int            `json:"rows"`
	Runs      map[string]int `json:"runs"`
	Cycle     uint64         `json:"cycle"`
}

// Change sets one control. Value is the JSON encoding of the new value:
// a string for attribute, an integer for bins, a list of names for species.
type Change struct {
	Control string          `json:"control"`
	Value   json.RawMessage `json:"value"`
}

// Option configures a Dashboard.
type Option func(*options)

type options struct {
	selection Selection
	hooks     []reactive.Hooks
}

// WithSelection sets the initial control values.
func WithSelection(sel Selection) Option {
	return func(o *options) {
		o.selection = sel
	}
}

// WithHooks adds a recomputation event sink. May be repeated.
func WithHooks(h reactive.Hooks) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, h)
	}
}

// Dashboard is one page's worth of reactive state. Not safe for
// concurrent use.
type Dashboard struct {
	ds *dataset.Dataset
	g  *reactive.Graph

	attribute *reactive.Input[string]
	binsA     *reactive.Input[int]
	binsB     *reactive.Input[int]
	species   *reactive.Input[[]string]

	filtered *reactive.Calc[engine.RecordView]
	tableA   *reactive.Calc[*engine.TableData]
	tableB   *reactive.Calc[*engine.TableData]
	histA    *reactive.Calc[*engine.ChartConfig]
	histB    *reactive.Calc[*engine.ChartConfig]
	scatter  *reactive.Calc[*engine.ChartConfig]

	emitted    Outputs
	recomputed []string
}

// New builds the graph for ds. Nothing is computed until the first Flush.
func New(ds *dataset.Dataset, opts ...Option) (*Dashboard, error) {
	o := &options{selection: DefaultSelection()}
	for _, opt := range opts {
		opt(o)
	}

	sel := o.selection
	if err := validAttribute(sel.Attribute); err != nil {
		return nil, err
	}
	species, err := normalizeSpecies(sel.Species)
	if err != nil {
		return nil, err
	}

	g := reactive.New(reactive.WithHooks(reactive.MultiHooks(o.hooks...)))
	d := &Dashboard{ds: ds, g: g}

	d.attribute = reactive.NewInput(g, ControlAttribute, sel.Attribute)
	d.binsA = reactive.NewInput(g, ControlBinsA, sel.BinsA)
	d.binsB = reactive.NewInput(g, ControlBinsB, ClampBinsB(sel.BinsB))
	d.species = reactive.NewInputFunc(g, ControlSpecies, species, slices.Equal[[]string])

	d.filtered = reactive.NewCalc(g, NodeFiltered, func() reactive.Maybe[engine.RecordView] {
		return filter(d.species.Get(), d.ds)
	}, d.species).WithEqual(engine.SameRows)

	d.tableA = reactive.NewCalc(g, ViewTableA, func() reactive.Maybe[*engine.TableData] {
		return withSubset(d.filtered, func(view engine.RecordView) *engine.TableData {
			return engine.BuildRecordTable(view, engine.WithTitle("Penguins"), engine.WithMode(engine.TableStatic))
		})
	}, d.filtered)

	d.tableB = reactive.NewCalc(g, ViewTableB, func() reactive.Maybe[*engine.TableData] {
		return withSubset(d.filtered, func(view engine.RecordView) *engine.TableData {
			return engine.BuildRecordTable(view, engine.WithTitle("Penguins"), engine.WithMode(engine.TableGrid))
		})
	}, d.filtered)

	d.histA = reactive.NewCalc(g, ViewHistA, func() reactive.Maybe[*engine.ChartConfig] {
		return withSubset(d.filtered, func(view engine.RecordView) *engine.ChartConfig {
			return engine.BuildHistogram(view, d.attribute.Get(), d.binsA.Get(),
				engine.WithTitle("Interactive Histogram"), engine.WithStyle(engine.StyleInteractive))
		})
	}, d.filtered, d.attribute, d.binsA)

	d.histB = reactive.NewCalc(g, ViewHistB, func() reactive.Maybe[*engine.ChartConfig] {
		return withSubset(d.filtered, func(view engine.RecordView) *engine.ChartConfig {
			return engine.BuildHistogram(view, d.attribute.Get(), d.binsB.Get(),
				engine.WithTitle("Static Histogram"), engine.WithStyle(engine.StyleStatic), engine.WithColor("#4C72B0"))
		})
	}, d.filtered, d.attribute, d.binsB)

	d.scatter = reactive.NewCalc(g, ViewScatter, func() reactive.Maybe[*engine.ChartConfig] {
		return withSubset(d.filtered, buildScatter)
	}, d.filtered)

	d.tableA.Observe(func(t *engine.TableData) { d.emitted.TableA = t })
	d.tableB.Observe(func(t *engine.TableData) { d.emitted.TableB = t })
	d.histA.Observe(func(c *engine.ChartConfig) { d.emitted.HistogramA = c })
	d.histB.Observe(func(c *engine.ChartConfig) { d.emitted.HistogramB = c })
	d.scatter.Observe(func(c *engine.ChartConfig) { d.emitted.Scatter = c })

	return d, nil
}

// Filtered is the subset of ds whose species is in sel.Species, in dataset
// order. It is absent when no species is selected.
func Filtered(sel Selection, ds *dataset.Dataset) reactive.Maybe[engine.RecordView] {
	return filter(sel.Species, ds)
}

func filter(species []string, ds *dataset.Dataset) reactive.Maybe[engine.RecordView] {
	return reactive.Req(len(species) > 0, func() engine.RecordView {
		return engine.FilterIn(ds.View(), schema.Species, species)
	})
}

func withSubset[T any](filtered *reactive.Calc[engine.RecordView], build func(engine.RecordView) T) reactive.Maybe[T] {
	view, ok := filtered.Get().Get()
	return reactive.Req(ok, func() T { return build(view) })
}

func buildScatter(view engine.RecordView) *engine.ChartConfig {
	chart := engine.BuildScatter(view, schema.Year, schema.BodyMassG, schema.Species,
		engine.WithTitle("Penguin Age (yr) vs. Weight (g)"), engine.WithPalette(SpeciesPalette))
	chart.XAxis = "Year of Birth"
	chart.YAxis = "Weight (g)"
	return chart
}

// ── Controls ─────────────────────────────────────────────────────────────────

// SetAttribute selects the histogram attribute.
func (d *Dashboard) SetAttribute(attr string) error {
	if err := validAttribute(attr); err != nil {
		return err
	}
	d.attribute.Set(attr)
	return nil
}

// SetBinsA sets histogram A's bin count. Values below 1 are kept and
// render a degenerate histogram.
func (d *Dashboard) SetBinsA(n int) {
	d.binsA.Set(n)
}

// SetBinsB sets histogram B's bin count, clamped to the slider range.
func (d *Dashboard) SetBinsB(n int) {
	d.binsB.Set(ClampBinsB(n))
}

// SetSpecies replaces the species selection. An empty selection is legal
// and suspends every view.
func (d *Dashboard) SetSpecies(species []string) error {
	names, err := normalizeSpecies(species)
	if err != nil {
		return err
	}
	d.species.Set(names)
	return nil
}

// Selection returns the current control values.
func (d *Dashboard) Selection() Selection {
	return Selection{
		Attribute: d.attribute.Get(),
		BinsA:     d.binsA.Get(),
		BinsB:     d.binsB.Get(),
		Species:   slices.Clone(d.species.Get()),
	}
}

// Apply sets one control and runs a recomputation cycle.
func (d *Dashboard) Apply(ctx context.Context, c Change) (Update, error) {
	if err := d.set(c); err != nil {
		return Update{}, err
	}
	return d.Flush(ctx)
}

func (d *Dashboard) set(c Change) error {
	switch c.Control {
	case ControlAttribute:
		var attr string
		if err := decodeValue(c, &attr); err != nil {
			return err
		}
		return d.SetAttribute(attr)
	case ControlBinsA:
		var n int
		if err := decodeValue(c, &n); err != nil {
			return err
		}
		d.SetBinsA(n)
	case ControlBinsB:
		var n int
		if err := decodeValue(c, &n); err != nil {
			return err
		}
		d.SetBinsB(n)
	case ControlSpecies:
		var species []string
		if err := decodeValue(c, &species); err != nil {
			return err
		}
		return d.SetSpecies(species)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownControl, c.Control)
	}
	return nil
}

func decodeValue(c Change, dst any) error {
	if len(c.Value) == 0 {
		return fmt.Errorf("%w: %s: missing value", ErrInvalidValue, c.Control)
	}
	if err := json.Unmarshal(c.Value, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, c.Control, err)
	}
	return nil
}

// ── Cycles ───────────────────────────────────────────────────────────────────

// Flush recomputes whatever the pending changes affect and returns the
// views that were re-emitted. When ctx is cancelled mid-cycle the views
// already recomputed are held back and delivered by the next successful
// Flush along with the rest.
func (d *Dashboard) Flush(ctx context.Context) (Update, error) {
	stats, err := d.g.Flush(ctx)
	for _, name := range stats.Recomputed {
		if !slices.Contains(d.recomputed, name) {
			d.recomputed = append(d.recomputed, name)
		}
	}
	if err != nil {
		return Update{Cycle: stats.Cycle, Suspended: d.filtered.Suspended()}, err
	}
	up := Update{
		Cycle:      stats.Cycle,
		Outputs:    d.emitted,
		Suspended:  d.filtered.Suspended(),
		Recomputed: d.recomputed,
	}
	d.emitted = Outputs{}
	d.recomputed = nil
	return up, nil
}

// Snapshot returns the last good output of every view. While suspended
// the outputs are those of the last cycle that had a species selection.
func (d *Dashboard) Snapshot() Snapshot {
	rows := 0
	if view, ok := d.filtered.Last().Get(); ok {
		rows = view.Len()
	}
	return Snapshot{
		Selection: d.Selection(),
		Outputs: Outputs{
			TableA:     d.tableA.Last().OrElse(nil),
			TableB:     d.tableB.Last().OrElse(nil),
			HistogramA: d.histA.Last().OrElse(nil),
			HistogramB: d.histB.Last().OrElse(nil),
			Scatter:    d.scatter.Last().OrElse(nil),
		},
		Suspended: d.filtered.Suspended(),
		Rows:      rows,
		Runs: map[string]int{
			NodeFiltered: d.filtered.Runs(),
			ViewTableA:   d.tableA.Runs(),
			ViewTableB:   d.tableB.Runs(),
			ViewHistA:    d.histA.Runs(),
			ViewHistB:    d.histB.Runs(),
			ViewScatter:  d.scatter.Runs(),
		},
		Cycle: d.g.Cycle(),
	}
}

// Pending returns the nodes awaiting recomputation.
func (d *Dashboard) Pending() []string {
	return d.g.Pending()
}

// Render computes every view once for sel.
func Render(ctx context.Context, sel Selection, ds *dataset.Dataset, opts ...Option) (Snapshot, error) {
	d, err := New(ds, append(opts, WithSelection(sel))...)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := d.Flush(ctx); err != nil {
		return Snapshot{}, err
	}
	return d.Snapshot(), nil
}
