package schema

// ============================================================================
// SCHEMA — Describes the penguins dataset and the dashboard controls
// ============================================================================
// The dataset package parses sources against these columns.
// The dashboard and the HTTP host read the control choices from here.
// ============================================================================

// Column keys of the penguins dataset.
const (
	Species         = "species"
	Island          = "island"
	BillLengthMM    = "bill_length_mm"
	BillDepthMM     = "bill_depth_mm"
	FlipperLengthMM = "flipper_length_mm"
	BodyMassG       = "body_mass_g"
	Sex             = "sex"
	Year            = "year"
)

// Species values.
const (
	Adelie    = "Adelie"
	Gentoo    = "Gentoo"
	Chinstrap = "Chinstrap"
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key          string   `json:"key"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description,omitempty"`
	SampleValues []string `json:"sampleValues"`
	Groupable    bool     `json:"groupable"`
	Filterable   bool     `json:"filterable"`
	// Closed dimensions only accept SampleValues.
	Closed bool `json:"closed,omitempty"`
}

// MeasureMeta describes a numeric field.
type MeasureMeta struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"` // "mm", "g", ""
	// Selectable measures are offered by the attribute selector.
	Selectable bool `json:"selectable"`
	Integer    bool `json:"integer,omitempty"`
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          key,
		DisplayName:  displayName,
		SampleValues: samples,
		Groupable:    true,
		Filterable:   true,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName, unit string) MeasureMeta {
	return MeasureMeta{
		Key:         key,
		DisplayName: displayName,
		Unit:        unit,
	}
}

// Penguins returns the schema of the Palmer penguins dataset.
func Penguins() Config {
	species := DefaultDimension(Species, "Species", []string{Adelie, Gentoo, Chinstrap})
	species.Closed = true

	billDepth := DefaultMeasure(BillDepthMM, "Bill Depth (mm)", "mm")
	billDepth.Selectable = true
	flipper := DefaultMeasure(FlipperLengthMM, "Flipper Length (mm)", "mm")
	flipper.Selectable = true
	mass := DefaultMeasure(BodyMassG, "Body Mass (g)", "g")
	mass.Selectable = true
	year := DefaultMeasure(Year, "Year", "")
	year.Selectable = true
	year.Integer = true

	return Config{
		Name:        "penguins",
		Version:     "1",
		Description: "Palmer Archipelago penguin size measurements, 2007–2009",
		Dimensions: []DimensionMeta{
			species,
			DefaultDimension(Island, "Island", []string{"Biscoe", "Dream", "Torgersen"}),
			DefaultDimension(Sex, "Sex", []string{"female", "male"}),
		},
		Measures: []MeasureMeta{
			DefaultMeasure(BillLengthMM, "Bill Length (mm)", "mm"),
			billDepth,
			flipper,
			mass,
			year,
		},
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// SelectableMeasures returns the attribute selector's choices, in order.
func (c Config) SelectableMeasures() []string {
	var keys []string
	for _, m := range c.Measures {
		if m.Selectable {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Allows reports whether value is a legal value of a closed dimension.
// Open dimensions accept anything.
func (d DimensionMeta) Allows(value string) bool {
	if !d.Closed {
		return true
	}
	for _, s := range d.SampleValues {
		if s == value {
			return true
		}
	}
	return false
}
