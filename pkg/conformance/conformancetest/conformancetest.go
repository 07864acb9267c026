// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package conformancetest runs the driver conformance suite as go test
// subtests. Each driver package should call Run from its own _test.go file:
//
//	func TestMemoryConformance(t *testing.T) {
//		conformancetest.Run(t, memory.New())
//	}
package conformancetest

import (
	"context"
	"strings"
	"testing"

	"github.com/leseb/fal-drivertest/pkg/conformance"
	"github.com/leseb/fal-drivertest/pkg/core/config"
	"github.com/leseb/fal-drivertest/pkg/driver"
	"github.com/leseb/fal-drivertest/pkg/storage"
)

// Run executes every scenario against drv as a subtest. Assertion failures
// and teardown failures fail the subtest, faults stop it, and incomplete
// scenarios are skipped with an "incomplete:" reason.
func Run(t *testing.T, drv driver.Driver, opts ...conformance.Option) {
	t.Helper()

	runner := conformance.NewRunner(drv, opts...)
	for _, sc := range runner.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			Report(t, runner.RunScenario(context.Background(), sc))
		})
	}
}

// Report maps a scenario result onto t.
func Report(t testing.TB, res conformance.Result) {
	t.Helper()

	if res.TeardownErr != nil {
		t.Errorf("teardown left the storage dirty: %v", res.TeardownErr)
	}
	switch res.Status {
	case conformance.StatusFail:
		for _, msg := range res.Messages {
			t.Error(msg)
		}
		t.FailNow()
	case conformance.StatusError:
		t.Fatalf("error: %v", res.Err)
	case conformance.StatusIncomplete:
		t.Skip("incomplete: " + strings.Join(res.Messages, "; "))
	}
}

// RunFromEnv resolves the storage named by FAL_STORAGE through the
// configured catalog and runs the suite against it. A missing storage
// identifier stops the test before any scenario runs. Drivers must be
// registered by the caller, e.g. by importing pkg/driver/all.
func RunFromEnv(t *testing.T, opts ...conformance.Option) {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	id, err := cfg.StorageID()
	if err != nil {
		t.Fatalf("No storage defined to test against. Define it with setting the environment variable %s: %v", config.EnvStorage, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid configuration: %v", err)
	}

	catalog, err := cfg.OpenCatalog(ctx)
	if err != nil {
		t.Fatalf("open storage catalog: %v", err)
	}
	defer catalog.Close()

	handle, err := storage.Resolve(ctx, id, catalog)
	if err != nil {
		t.Fatalf("resolve storage %s: %v", id, err)
	}
	defer handle.Close(ctx)

	opts = append([]conformance.Option{conformance.WithStorageLabel(handle.Record.Label())}, opts...)
	Run(t, handle.Driver, opts...)
}
