package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spektr-org/pengdash/schema"
)

// ============================================================================
// SELECTION — sidebar control values
// ============================================================================

// Control ids, as posted by the page.
const (
	ControlAttribute = "attribute"
	ControlBinsA     = "bins_a"
	ControlBinsB     = "bins_b"
	ControlSpecies   = "species"
)

// Bin count defaults and the bins B slider range.
const (
	DefaultBins = 20
	MinBinsB    = 10
	MaxBinsB    = 100
)

var (
	ErrUnknownControl = errors.New("unknown control")
	ErrInvalidValue   = errors.New("invalid control value")
)

// Selection is the aggregate of all input control values.
type Selection struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	BinsA     int      `json:"bins_a" yaml:"bins_a"`
	BinsB     int      `json:"bins_b" yaml:"bins_b"`
	Species   []string `json:"species" yaml:"species"`
}

// DefaultSelection is the state of a fresh page: first attribute, 20 bins
// on both histograms, Adelie only.
func DefaultSelection() Selection {
	return Selection{
		Attribute: schema.Penguins().SelectableMeasures()[0],
		BinsA:     DefaultBins,
		BinsB:     DefaultBins,
		Species:   []string{schema.Adelie},
	}
}

// ClampBinsB pins n into the slider range.
func ClampBinsB(n int) int {
	return min(max(n, MinBinsB), MaxBinsB)
}

// validAttribute accepts only the selectable measures offered by the
// attribute control.
func validAttribute(attr string) error {
	if slices.Contains(schema.Penguins().SelectableMeasures(), attr) {
		return nil
	}
	return fmt.Errorf("%w: attribute %q", ErrInvalidValue, attr)
}

// normalizeSpecies validates names case-insensitively and returns them
// deduplicated in canonical order, so that equal sets compare equal.
func normalizeSpecies(species []string) ([]string, error) {
	dim, _ := schema.Penguins().Dimension(schema.Species)
	picked := make(map[string]bool, len(species))
	for _, s := range species {
		name, ok := canonicalSpecies(dim, strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("%w: species %q", ErrInvalidValue, s)
		}
		picked[name] = true
	}
	out := make([]string, 0, len(picked))
	for _, name := range dim.SampleValues {
		if picked[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

func canonicalSpecies(dim schema.DimensionMeta, s string) (string, bool) {
	for _, name := range dim.SampleValues {
		if strings.EqualFold(name, s) {
			return name, true
		}
	}
	return "", false
}

// ParseSpecies splits a comma separated list ("Adelie,Gentoo").
func ParseSpecies(list string) ([]string, error) {
	var names []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			names = append(names, s)
		}
	}
	return normalizeSpecies(names)
}
