package engine

// ============================================================================
// ENGINE TYPES — render-ready output for the dashboard views
// ============================================================================
// The engine never draws. It turns a RecordView into configs a charting
// library or table widget can render as-is.
//
// Dependency: engine imports only formatting libraries (go-humanize, x/text).
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// CHART TYPES
// ============================================================================

// Chart types produced by the builders.
const (
	ChartHistogram = "histogram"
	ChartScatter   = "scatter"
)

// Chart styles. Interactive charts carry hover/zoom, static charts are
// drawn once with outlined bars.
const (
	StyleInteractive = "interactive"
	StyleStatic      = "static"
)

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Style      string        `json:"style,omitempty"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Bins       []Bin         `json:"bins,omitempty"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`

	// Degenerate charts have nothing to plot; Reason says why.
	Degenerate bool   `json:"degenerate,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is one plotted point. Histograms use Label/Value, scatterplots
// use X/Y.
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

// Bin is one equal-width histogram bucket. Lower bound inclusive, upper
// bound exclusive except for the last bin.
type Bin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// Table presentation modes. Same rows, different widget.
const (
	TableStatic = "table"
	TableGrid   = "grid"
)

// TableData defines how to render a table.
type TableData struct {
	Title      string     `json:"title"`
	Mode       string     `json:"mode"`
	Columns    []Column   `json:"columns"`
	Rows       [][]string `json:"rows"`
	Sortable   bool       `json:"sortable"`
	Filterable bool       `json:"filterable"`
	Summary    *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is a one-line summary of an attribute over a view.
type TextData struct {
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
	Unit     string  `json:"unit"`
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}
