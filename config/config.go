// Package config resolves pengdash settings: defaults, then an optional
// YAML file, then PENGDASH_* environment variables. Command-line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/dataset"
)

// Config is the full server configuration.
type Config struct {
	Addr            string              `yaml:"addr"`
	Source          string              `yaml:"source"`
	MaxSessions     int                 `yaml:"max_sessions"`
	ShutdownTimeout time.Duration       `yaml:"shutdown_timeout"`
	S3              dataset.S3Config    `yaml:"s3"`
	Log             LogConfig           `yaml:"log"`
	Defaults        dashboard.Selection `yaml:"defaults"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Verbose logs every recomputation cycle.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		Source:          dataset.Embedded,
		MaxSessions:     1024,
		ShutdownTimeout: 5 * time.Second,
		Defaults:        dashboard.DefaultSelection(),
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PENGDASH_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("PENGDASH_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := getenv("PENGDASH_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PENGDASH_MAX_SESSIONS: %w", err)
		}
		cfg.MaxSessions = n
	}
	if v := getenv("PENGDASH_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PENGDASH_VERBOSE: %w", err)
		}
		cfg.Log.Verbose = b
	}
	if v := getenv("PENGDASH_S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
	if v := getenv("PENGDASH_S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := getenv("PENGDASH_S3_PATH_STYLE"); v != "" {
		cfg.S3.PathStyle = strings.EqualFold(v, "true")
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is empty")
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("config: max_sessions must be at least 1, got %d", c.MaxSessions)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("config: shutdown_timeout is negative")
	}
	if c.Defaults.BinsB != dashboard.ClampBinsB(c.Defaults.BinsB) {
		return fmt.Errorf("config: defaults.bins_b must be within %d-%d, got %d",
			dashboard.MinBinsB, dashboard.MaxBinsB, c.Defaults.BinsB)
	}
	if len(c.Defaults.Species) == 0 {
		return errors.New("config: defaults.species must select at least one species")
	}
	return nil
}
