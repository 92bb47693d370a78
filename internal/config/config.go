// Package config reads the CLI's settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dvloznov/cashledger/internal/ingest"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/dvloznov/cashledger/internal/logger"
	"github.com/joho/godotenv"
)

const maxLoadConcurrency = 64

type Config struct {
	// Logging
	LogLevel string

	// Engine
	TransferWindowDays int

	// Ingestion
	DefaultFormat   string
	LoadConcurrency int
	RulesFile       string

	// Google Cloud
	GCPProject      string
	BigQueryDataset string
	ExportBucket    string

	// values that were set but could not be parsed, reported by Validate
	parseErrors []string
}

// LoadWithDotEnv reads the given .env files (".env" when none are named)
// into the process environment without overriding variables already set,
// then calls Load. Missing files are ignored.
func LoadWithDotEnv(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("LoadWithDotEnv: %s: %w", f, err)
		}
	}
	return Load(), nil
}

func Load() *Config {
	cfg := &Config{
		LogLevel: getEnv("LEDGER_LOG_LEVEL", "info"),

		DefaultFormat: getEnv("LEDGER_DEFAULT_FORMAT", string(ingest.FormatAuto)),
		RulesFile:     getEnv("LEDGER_RULES_FILE", ""),

		GCPProject:      getEnv("LEDGER_GCP_PROJECT", ""),
		BigQueryDataset: getEnv("LEDGER_BQ_DATASET", "finance"),
		ExportBucket:    getEnv("LEDGER_EXPORT_BUCKET", ""),
	}
	cfg.TransferWindowDays = cfg.getEnvInt("LEDGER_TRANSFER_WINDOW_DAYS", ledger.DefaultTransferWindow)
	cfg.LoadConcurrency = cfg.getEnvInt("LEDGER_LOAD_CONCURRENCY", ingest.DefaultConcurrency)

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	problems := append([]string(nil), c.parseErrors...)

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if c.TransferWindowDays < 1 {
		problems = append(problems, fmt.Sprintf("invalid transfer window %d: must be at least 1 day", c.TransferWindowDays))
	}

	if _, err := ingest.ParseFormat(c.DefaultFormat); err != nil {
		problems = append(problems, fmt.Sprintf("invalid default format '%s': must be one of %v", c.DefaultFormat,
			[]ingest.Format{ingest.FormatAuto, ingest.FormatMint, ingest.FormatTiller, ingest.FormatLedger}))
	}

	if c.LoadConcurrency < 1 || c.LoadConcurrency > maxLoadConcurrency {
		problems = append(problems, fmt.Sprintf("invalid load concurrency %d: must be between 1 and %d", c.LoadConcurrency, maxLoadConcurrency))
	}

	if c.GCPProject != "" && c.BigQueryDataset == "" {
		problems = append(problems, "BigQuery dataset cannot be empty when a GCP project is set")
	}

	if strings.HasPrefix(c.ExportBucket, "gs://") || strings.Contains(c.ExportBucket, "/") {
		problems = append(problems, fmt.Sprintf("invalid export bucket '%s': must be a bare bucket name", c.ExportBucket))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return i
}
