// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"

	"github.com/leseb/fal-drivertest/pkg/driver"
)

// Handle is a live driver bound to one storage record.
type Handle struct {
	Record Record
	Driver driver.Driver
}

// Close releases the driver.
func (h *Handle) Close(ctx context.Context) error {
	return h.Driver.Close(ctx)
}

// Resolve looks id up in catalog and instantiates the record's driver.
// It never writes to the storage.
func Resolve(ctx context.Context, id StorageID, catalog Catalog) (*Handle, error) {
	if id <= 0 {
		return nil, ErrNoStorage
	}
	rec, err := catalog.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	drv, err := driver.Drivers.New(ctx, rec.Driver, rec.Configuration)
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", rec.Label(), err)
	}
	return &Handle{Record: rec, Driver: drv}, nil
}
