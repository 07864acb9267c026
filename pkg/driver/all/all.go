// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package all registers every bundled storage driver.
package all

import (
	_ "github.com/leseb/fal-drivertest/pkg/driver/gcs"
	_ "github.com/leseb/fal-drivertest/pkg/driver/localfs"
	_ "github.com/leseb/fal-drivertest/pkg/driver/memory"
	_ "github.com/leseb/fal-drivertest/pkg/driver/s3"
)
