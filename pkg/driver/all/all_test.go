// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package all_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leseb/fal-drivertest/pkg/conformance/conformancetest"
	"github.com/leseb/fal-drivertest/pkg/core/config"
	"github.com/leseb/fal-drivertest/pkg/driver"
	_ "github.com/leseb/fal-drivertest/pkg/driver/all"
)

func TestDriversRegistered(t *testing.T) {
	assert.Equal(t, []string{"gcs", "local", "memory", "s3"}, driver.Drivers.Available())
}

// TestConfiguredStorage runs the suite against the storage selected by
// FAL_STORAGE, resolved through the configured catalog.
func TestConfiguredStorage(t *testing.T) {
	if os.Getenv(config.EnvStorage) == "" {
		t.Skipf("%s not set, skipping conformance run against a configured storage", config.EnvStorage)
	}
	conformancetest.RunFromEnv(t)
}
