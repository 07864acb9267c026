// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package conformancetest_test

import (
	"testing"

	"github.com/leseb/fal-drivertest/pkg/conformance/conformancetest"
	"github.com/leseb/fal-drivertest/pkg/driver/memory"
)

func TestMemoryConformance(t *testing.T) {
	conformancetest.Run(t, memory.New())
}
