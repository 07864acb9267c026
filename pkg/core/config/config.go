// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/leseb/fal-drivertest/pkg/storage"
)

// Environment variables read by Load and Default.
const (
	EnvStorage      = "FAL_STORAGE"
	EnvCatalog      = "FAL_STORAGE_CATALOG"
	EnvCatalogPath  = "FAL_STORAGE_CATALOG_PATH"
	EnvSQLDriver    = "FAL_STORAGE_SQL_DRIVER"
	EnvDSN          = "FAL_STORAGE_DSN"
	EnvLogLevel     = "FAL_LOG_LEVEL"
	EnvLogFormat    = "FAL_LOG_FORMAT"
	EnvReportFormat = "FAL_REPORT_FORMAT"
)

// Catalog types.
const (
	CatalogStatic = "static"
	CatalogYAML   = "yaml"
	CatalogSQL    = "sql"
)

// Config represents the harness configuration
type Config struct {
	// Storage is the identifier of the storage under test.
	Storage  string           `yaml:"storage"`
	Catalog  CatalogConfig    `yaml:"catalog"`
	Storages []storage.Record `yaml:"storages"`
	Logging  LoggingConfig    `yaml:"logging"`
	Report   ReportConfig     `yaml:"report"`
}

// CatalogConfig selects where storage records come from
type CatalogConfig struct {
	Type      string `yaml:"type"`       // "static" (default), "yaml" or "sql"
	Path      string `yaml:"path"`       // yaml catalog file
	SQLDriver string `yaml:"sql_driver"` // "sqlite" (default) or "pgx"
	DSN       string `yaml:"dsn"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ReportConfig contains report output configuration
type ReportConfig struct {
	Format string `yaml:"format"` // table or json
}

// Load loads configuration from a YAML file. Environment variables override
// file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration built from environment variables alone.
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// StorageID parses the configured storage identifier. It returns an error
// wrapping storage.ErrNoStorage when none is set.
func (c *Config) StorageID() (storage.StorageID, error) {
	return storage.ParseStorageID(c.Storage)
}

// CatalogParams returns the parameter map for storage.OpenCatalog.
func (c *Config) CatalogParams() map[string]string {
	switch c.Catalog.Type {
	case CatalogYAML:
		return map[string]string{"path": c.Catalog.Path}
	case CatalogSQL:
		return map[string]string{"driver": c.Catalog.SQLDriver, "dsn": c.Catalog.DSN}
	default:
		return map[string]string{}
	}
}

// OpenCatalog opens the configured storage catalog.
func (c *Config) OpenCatalog(ctx context.Context) (storage.Catalog, error) {
	if c.Catalog.Type == CatalogStatic {
		return storage.NewStaticCatalog(c.Storages), nil
	}
	return storage.OpenCatalog(ctx, c.Catalog.Type, c.CatalogParams())
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Validate validates the catalog configuration
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In(CatalogStatic, CatalogYAML, CatalogSQL)),
		validation.Field(&c.Path, validation.When(c.Type == CatalogYAML, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Type == CatalogSQL, validation.Required)),
		validation.Field(&c.SQLDriver, validation.When(c.Type == CatalogSQL, validation.In("sqlite", "pgx"))),
	)
}

// Validate validates the logging configuration
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("text", "json")),
	)
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.In("table", "json")),
	)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvStorage); v != "" {
		cfg.Storage = v
	}
	if v := os.Getenv(EnvCatalog); v != "" {
		cfg.Catalog.Type = v
	}
	if v := os.Getenv(EnvCatalogPath); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv(EnvSQLDriver); v != "" {
		cfg.Catalog.SQLDriver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.Catalog.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvReportFormat); v != "" {
		cfg.Report.Format = v
	}
}

// ApplyDefaults fills every unset field with its default. The catalog type
// is inferred from the DSN or catalog path when not given.
func ApplyDefaults(cfg *Config) {
	if cfg.Catalog.Type == "" {
		switch {
		case cfg.Catalog.DSN != "":
			cfg.Catalog.Type = CatalogSQL
		case cfg.Catalog.Path != "":
			cfg.Catalog.Type = CatalogYAML
		default:
			cfg.Catalog.Type = CatalogStatic
		}
	}
	if cfg.Catalog.Type == CatalogSQL && cfg.Catalog.SQLDriver == "" {
		cfg.Catalog.SQLDriver = "sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "table"
	}
}
