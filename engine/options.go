package engine

// ============================================================================
// BUILDER OPTIONS — Functional options for the chart and table builders
// ============================================================================

// Option configures builder output via functional options pattern.
type Option func(*config)

type config struct {
	Title   string
	Style   string
	Color   string            // single-series color
	Palette map[string]string // series name → color
	Mode    string            // table mode
}

// WithTitle sets the chart/table title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithStyle selects StyleInteractive or StyleStatic.
func WithStyle(style string) Option {
	return func(c *config) {
		c.Style = style
	}
}

// WithColor sets the color of a single-series chart.
func WithColor(color string) Option {
	return func(c *config) {
		c.Color = color
	}
}

// WithPalette maps series names (e.g. species) to colors.
func WithPalette(palette map[string]string) Option {
	return func(c *config) {
		c.Palette = palette
	}
}

// WithMode selects TableStatic or TableGrid.
func WithMode(mode string) Option {
	return func(c *config) {
		c.Mode = mode
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Style: StyleInteractive,
		Mode:  TableStatic,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
