package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/spektr-org/pengdash/config"
	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/metrics"
	"github.com/spektr-org/pengdash/server"
)

// ============================================================================
// PENGDASH CLI — Palmer penguins dashboard
// ============================================================================

const version = "0.1.0"

func main() {
	flag.Usage = usage
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pengdash %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "serve":
		err = runServe(args[1:])
	case "render":
		err = runRender(args[1:], os.Stdout)
	case "version":
		fmt.Printf("pengdash %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		usage()
		os.Exit(1)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Pengdash — reactive Palmer penguins dashboard

Usage:
  pengdash serve  [-config pengdash.yaml] [-addr :8080] [-source embedded]
  pengdash render [-species Adelie,Gentoo] [-attribute body_mass_g] [-bins-a 20] [-bins-b 20]
                  [-format json|pretty|csv|text] [-view table_a] [-out file]

Sources:
  embedded                 bundled 54-record penguins excerpt (default, offline)
  palmerpenguins           full 344-record table from the palmerpenguins repository
  ./penguins.csv           CSV file (also file:<path>)
  https://host/p.csv       CSV over HTTP
  s3://bucket/key.csv      CSV object in S3 (credentials from the AWS chain)
  sqlite:<path>            table "penguins" in a SQLite file
  postgres://user@host/db  table "penguins" (needs an "id" column for ordering)

Environment:
  PENGDASH_ADDR, PENGDASH_SOURCE, PENGDASH_MAX_SESSIONS, PENGDASH_VERBOSE,
  PENGDASH_S3_REGION, PENGDASH_S3_ENDPOINT, PENGDASH_S3_PATH_STYLE
`)
}

// ============================================================================
// SERVE
// ============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	addr := fs.String("addr", "", "Listen address (overrides config)")
	source := fs.String("source", "", "Dataset source (overrides config)")
	verbose := fs.Bool("verbose", false, "Log every recomputation cycle")
	maxSessions := fs.Int("max-sessions", 0, "Session cache size (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *source != "" {
		cfg.Source = *source
	}
	if *verbose {
		cfg.Log.Verbose = true
	}
	if *maxSessions > 0 {
		cfg.MaxSessions = *maxSessions
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := dataset.Load(ctx, cfg.Source, dataset.WithS3Config(cfg.S3))
	if err != nil {
		return err
	}

	srv, err := server.New(ds,
		server.WithDefaults(cfg.Defaults),
		server.WithMaxSessions(cfg.MaxSessions),
		server.WithVerbose(cfg.Log.Verbose),
		server.WithMetrics(metrics.New()),
	)
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Addr, cfg.ShutdownTimeout)
}

// ============================================================================
// RENDER
// ============================================================================

func runRender(args []string, stdout *os.File) error {
	def := dashboard.DefaultSelection()

	fs := flag.NewFlagSet("render", flag.ExitOnError)
	source := fs.String("source", dataset.Embedded, "Dataset source")
	species := fs.String("species", def.Species[0], "Comma separated species")
	attribute := fs.String("attribute", def.Attribute, "Histogram attribute")
	binsA := fs.Int("bins-a", def.BinsA, "Interactive histogram bins")
	binsB := fs.Int("bins-b", def.BinsB, "Static histogram bins (10-100)")
	format := fs.String("format", "", "Output format: json, pretty, csv, text (default text on a terminal, json otherwise)")
	view := fs.String("view", dashboard.ViewTableA, "View written by -format csv")
	outFile := fs.String("out", "", "Write output to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	names, err := dashboard.ParseSpecies(*species)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("-species: select at least one species")
	}
	sel := dashboard.Selection{
		Attribute: *attribute,
		BinsA:     *binsA,
		BinsB:     dashboard.ClampBinsB(*binsB),
		Species:   names,
	}

	var writer io.Writer = stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}
	if *format == "" {
		*format = defaultFormat(stdout, *outFile != "")
	}

	ctx := context.Background()
	ds, err := dataset.Load(ctx, *source)
	if err != nil {
		return err
	}
	snap, err := dashboard.Render(ctx, sel, ds)
	if err != nil {
		return err
	}

	switch *format {
	case "json", "pretty":
		err = writeJSON(writer, snap, *format)
	case "csv":
		err = writeCSV(writer, snap, *view)
	case "text":
		err = writeText(writer, snap, ds)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	if *outFile != "" {
		log.Printf("📄 %s written to %s", *format, *outFile)
	}
	return nil
}

func defaultFormat(stdout *os.File, toFile bool) string {
	if !toFile && (isatty.IsTerminal(stdout.Fd()) || isatty.IsCygwinTerminal(stdout.Fd())) {
		return "text"
	}
	return "json"
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
