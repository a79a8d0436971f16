// Package dataset loads the penguins table once and exposes it read-only.
//
// Sources are selected by URI: "embedded", a file path, http(s)://,
// s3://bucket/key, sqlite:<path> or postgres://. Every source yields the
// same Dataset; any failure is reported to the caller, which treats it as
// fatal.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/schema"
)

// Errors returned while loading.
var (
	ErrUnknownSpecies    = errors.New("unknown species")
	ErrMissingColumn     = errors.New("missing column")
	ErrUnsupportedSource = errors.New("unsupported dataset source")
	ErrEmpty             = errors.New("dataset has no records")
)

// Penguin is one observation. Missing measurements are NaN, missing
// categorical values are "".
type Penguin struct {
	Species         string
	Island          string
	BillLengthMM    float64
	BillDepthMM     float64
	FlipperLengthMM float64
	BodyMassG       float64
	Sex             string
	Year            int
}

var penguinAdapter = engine.NewDomainAdapter[Penguin]().
	Dimension(schema.Species, func(p Penguin) string { return p.Species }).
	Dimension(schema.Island, func(p Penguin) string { return p.Island }).
	Dimension(schema.Sex, func(p Penguin) string { return p.Sex }).
	Measure(schema.BillLengthMM, func(p Penguin) float64 { return p.BillLengthMM }).
	Measure(schema.BillDepthMM, func(p Penguin) float64 { return p.BillDepthMM }).
	Measure(schema.FlipperLengthMM, func(p Penguin) float64 { return p.FlipperLengthMM }).
	Measure(schema.BodyMassG, func(p Penguin) float64 { return p.BodyMassG }).
	Measure(schema.Year, func(p Penguin) float64 { return float64(p.Year) })

// Dataset is the immutable, ordered table of penguins.
type Dataset struct {
	rows   []Penguin
	view   engine.RecordView
	source string
}

// New validates rows and wraps them. The slice is copied; later changes
// by the caller are not observed.
func New(rows []Penguin, source string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	species, _ := schema.Penguins().Dimension(schema.Species)
	owned := make([]Penguin, len(rows))
	for i, r := range rows {
		if !species.Allows(r.Species) {
			return nil, fmt.Errorf("row %d: %w: %q", i+1, ErrUnknownSpecies, r.Species)
		}
		owned[i] = r
	}
	return &Dataset{
		rows:   owned,
		view:   penguinAdapter.Bind(owned),
		source: source,
	}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns a copy of record i.
func (d *Dataset) Row(i int) Penguin { return d.rows[i] }

// View returns a zero-copy record view over the dataset.
func (d *Dataset) View() engine.RecordView { return d.view }

// Source names where the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Missing is the value used for an absent measurement.
func Missing() float64 { return math.NaN() }
