// Package pengdash is a reactive dashboard over the Palmer penguins
// dataset.
//
// Packages:
//
//	dataset    loads the records once (embedded, file, http, s3, sqlite, postgres)
//	engine     record views, species filtering, binning, table/chart builders
//	reactive   explicit dataflow graph: inputs, calcs, suspension, flush cycles
//	dashboard  the penguin view graph: filtered subset, two tables, two histograms, scatter
//	server     HTTP host with per-browser sessions and Prometheus metrics
//	config     defaults, YAML file and PENGDASH_* environment
//
// Every view is recomputed only when one of its declared inputs changes.
// While no species is selected the views keep their last rendered output.
package pengdash
