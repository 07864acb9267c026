// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/fal-drivertest/pkg/core/config"
)

func writeConfig(t *testing.T, localDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drivertest.yaml")
	content := fmt.Sprintf(`
logging:
  level: error
storages:
  - uid: 1
    name: scratch
    driver: memory
  - uid: 2
    name: disk
    driver: local
    configuration:
      base_path: %s
`, localDir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), append([]string{"drivertest"}, args...))
	return out.String(), err
}

func TestRunAgainstMemoryStorage(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	cfgPath := writeConfig(t, t.TempDir())

	out, err := run(t, "--config", cfgPath, "--storage", "1", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, exitOK, exitCode(err))
	assert.Contains(t, out, `"ok": true`)
	assert.Contains(t, out, `"storage": "1 \"scratch\" (memory)"`)
}

func TestRunStorageFromEnvironment(t *testing.T) {
	localDir := t.TempDir()
	cfgPath := writeConfig(t, localDir)
	t.Setenv(config.EnvStorage, "2")

	out, err := run(t, "--config", cfgPath, "--run", "^Files")
	require.NoError(t, err)
	assert.Contains(t, out, "FilesCanBeAdded")
	assert.NotContains(t, out, "FoldersCanBeRenamed")
	assert.Contains(t, out, "teardown failures")

	entries, err := os.ReadDir(localDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "storage left dirty")
}

func TestRunWithoutStorageIsConfigError(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	cfgPath := writeConfig(t, t.TempDir())

	_, err := run(t, "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Contains(t, err.Error(), "No storage defined to test against")
	assert.Contains(t, err.Error(), config.EnvStorage)

	_, err = run(t, "--config", cfgPath, "--storage", "not-a-number")
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestRunUnknownStorageIsConfigError(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	cfgPath := writeConfig(t, t.TempDir())

	_, err := run(t, "--config", cfgPath, "--storage", "7")
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestRunInvalidFilterIsConfigError(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	cfgPath := writeConfig(t, t.TempDir())

	_, err := run(t, "--config", cfgPath, "--storage", "1", "--run", "(")
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestStoragesCommand(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	cfgPath := writeConfig(t, t.TempDir())

	out, err := run(t, "--config", cfgPath, "storages")
	require.NoError(t, err)
	assert.Contains(t, out, "scratch")
	assert.Contains(t, out, "disk")
	assert.Contains(t, out, "local")
}

func TestScenariosCommand(t *testing.T) {
	out, err := run(t, "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "FoldersCanBeCreatedAndDeleted")
	assert.Contains(t, out, "FoldersCanBeCopiedInsideStorage")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitSuiteFailed, exitCode(errSuiteFailed))
	assert.Equal(t, exitConfig, exitCode(configError(errors.New("bad"))))
	assert.Equal(t, exitConfig, exitCode(fmt.Errorf("wrapped: %w", configError(errors.New("bad")))))
	assert.Equal(t, exitSuiteFailed, exitCode(errors.New("other")))
}

func TestStoragesAddToSQLCatalog(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	dsn := filepath.Join(t.TempDir(), "catalog.db")

	out, err := run(t, "--dsn", dsn, "--log-level", "error",
		"storages", "add", "--uid", "3", "--name", "scratch", "--driver", "memory", "prefix=conformance")
	require.NoError(t, err)
	assert.Contains(t, out, `Stored storage 3 "scratch" (memory)`)

	out, err = run(t, "--dsn", dsn, "storages")
	require.NoError(t, err)
	assert.Contains(t, out, "scratch")
	assert.Contains(t, out, "memory")

	out, err = run(t, "--dsn", dsn, "--log-level", "error", "--storage", "3", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ok": true`)
}

func TestStoragesAddErrors(t *testing.T) {
	t.Setenv(config.EnvStorage, "")
	cfgPath := writeConfig(t, t.TempDir())
	dsn := filepath.Join(t.TempDir(), "catalog.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"static catalog", []string{"--config", cfgPath, "storages", "add", "--uid", "3", "--driver", "memory"}, "read-only"},
		{"missing uid", []string{"--dsn", dsn, "storages", "add", "--driver", "memory"}, "invalid --uid"},
		{"unknown driver", []string{"--dsn", dsn, "storages", "add", "--uid", "3", "--driver", "ftp"}, `unknown storage driver: "ftp"`},
		{"incomplete configuration", []string{"--dsn", dsn, "storages", "add", "--uid", "3", "--driver", "local"}, "missing configuration [base_path]"},
		{"malformed argument", []string{"--dsn", dsn, "storages", "add", "--uid", "3", "--driver", "memory", "prefix"}, "not key=value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitConfig, exitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
