package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// ============================================================================
// SOURCES — where the dataset comes from
// ============================================================================
// Load is called once at startup. There is no partial mode: any error means
// the dashboard cannot run.
// ============================================================================

//go:embed data/penguins.csv
var embeddedCSV []byte

// Embedded is the source name of the bundled palmerpenguins excerpt.
const Embedded = "embedded"

// Upstream is the source name of the full 344-record palmerpenguins table,
// fetched from UpstreamURL.
const Upstream = "palmerpenguins"

// UpstreamURL serves the published palmerpenguins CSV.
const UpstreamURL = "https://raw.githubusercontent.com/allisonhorst/palmerpenguins/main/inst/extdata/penguins.csv"

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	httpClient  *http.Client
	upstreamURL string
	s3          S3Config
	s3Client   ObjectGetter
}

// WithHTTPClient overrides the client used for http(s) sources.
func WithHTTPClient(c *http.Client) LoadOption {
	return func(cfg *loadConfig) {
		cfg.httpClient = c
	}
}

// WithUpstreamURL overrides where the palmerpenguins source is fetched from.
func WithUpstreamURL(url string) LoadOption {
	return func(cfg *loadConfig) {
		cfg.upstreamURL = url
	}
}

// WithS3Config sets region/endpoint for s3 sources.
func WithS3Config(c S3Config) LoadOption {
	return func(cfg *loadConfig) {
		cfg.s3 = c
	}
}

// WithS3Client injects an S3 client, bypassing AWS config loading.
func WithS3Client(c ObjectGetter) LoadOption {
	return func(cfg *loadConfig) {
		cfg.s3Client = c
	}
}

// Load reads the dataset from source.
func Load(ctx context.Context, source string, opts ...LoadOption) (*Dataset, error) {
	cfg := &loadConfig{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		upstreamURL: UpstreamURL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	rows, err := loadRows(ctx, source, cfg)
	if err != nil {
		return nil, fmt.Errorf("load dataset from %s: %w", displaySource(source), err)
	}
	ds, err := New(rows, displaySource(source))
	if err != nil {
		return nil, fmt.Errorf("load dataset from %s: %w", displaySource(source), err)
	}

	log.Printf("🐧 Pengdash: loaded %d records from %s in %s", ds.Len(), ds.Source(), time.Since(start).Round(time.Millisecond))
	return ds, nil
}

func loadRows(ctx context.Context, source string, cfg *loadConfig) ([]Penguin, error) {
	switch {
	case source == "" || source == Embedded:
		return ParseCSV(bytes.NewReader(embeddedCSV))
	case source == Upstream:
		return loadHTTP(ctx, cfg.httpClient, cfg.upstreamURL)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return loadHTTP(ctx, cfg.httpClient, source)
	case strings.HasPrefix(source, "s3://"):
		return loadS3(ctx, cfg, source)
	case strings.HasPrefix(source, "sqlite:"):
		return loadSQLite(ctx, strings.TrimPrefix(strings.TrimPrefix(source, "sqlite:"), "//"))
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		return loadPostgres(ctx, source)
	case strings.HasPrefix(source, "file:"):
		return loadFile(strings.TrimPrefix(strings.TrimPrefix(source, "file:"), "//"))
	case strings.Contains(source, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, displaySource(source))
	default:
		return loadFile(source)
	}
}

func loadFile(path string) ([]Penguin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

func loadHTTP(ctx context.Context, client *http.Client, url string) ([]Penguin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ParseCSV(resp.Body)
}

// displaySource hides credentials in database URLs.
func displaySource(source string) string {
	if source == "" {
		return Embedded
	}
	if at := strings.Index(source, "@"); at > 0 {
		if scheme := strings.Index(source, "://"); scheme > 0 && scheme < at {
			return source[:scheme+3] + "***" + source[at:]
		}
	}
	return source
}
