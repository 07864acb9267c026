// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/fal-drivertest/pkg/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvStorage, EnvCatalog, EnvCatalogPath, EnvSQLDriver, EnvDSN, EnvLogLevel, EnvLogFormat, EnvReportFormat} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	assert.Equal(t, CatalogStatic, cfg.Catalog.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "table", cfg.Report.Format)
	require.NoError(t, cfg.Validate())

	_, err := cfg.StorageID()
	assert.True(t, errors.Is(err, storage.ErrNoStorage), "got %v", err)
}

func TestDefault_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStorage, "3")
	t.Setenv(EnvDSN, "file:catalog.db")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	id, err := cfg.StorageID()
	require.NoError(t, err)
	assert.Equal(t, storage.StorageID(3), id)
	assert.Equal(t, CatalogSQL, cfg.Catalog.Type)
	assert.Equal(t, "sqlite", cfg.Catalog.SQLDriver)
	assert.Equal(t, map[string]string{"driver": "sqlite", "dsn": "file:catalog.db"}, cfg.CatalogParams())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage: "1"
storages:
  - uid: 1
    name: scratch
    driver: memory
logging:
  level: warn
  format: json
report:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "1", cfg.Storage)
	assert.Equal(t, CatalogStatic, cfg.Catalog.Type)
	require.Len(t, cfg.Storages, 1)
	assert.Equal(t, "memory", cfg.Storages[0].Driver)
	assert.Equal(t, "json", cfg.Report.Format)

	catalog, err := cfg.OpenCatalog(context.Background())
	require.NoError(t, err)
	rec, err := catalog.Lookup(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "scratch", rec.Name)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStorage, "5")
	path := writeConfig(t, "storage: \"1\"\ncatalog:\n  path: storages.yaml\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "5", cfg.Storage)
	assert.Equal(t, CatalogYAML, cfg.Catalog.Type)
	assert.Equal(t, map[string]string{"path": "storages.yaml"}, cfg.CatalogParams())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage: [1"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown catalog", Config{Catalog: CatalogConfig{Type: "ldap"}}},
		{"yaml without path", Config{Catalog: CatalogConfig{Type: CatalogYAML}}},
		{"sql without dsn", Config{Catalog: CatalogConfig{Type: CatalogSQL, SQLDriver: "sqlite"}}},
		{"sql with bad driver", Config{Catalog: CatalogConfig{Type: CatalogSQL, SQLDriver: "mysql", DSN: "x"}}},
		{"bad log level", Config{Catalog: CatalogConfig{Type: CatalogStatic}, Logging: LoggingConfig{Level: "trace"}}},
		{"bad report format", Config{Catalog: CatalogConfig{Type: CatalogStatic}, Report: ReportConfig{Format: "xml"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}
