// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage resolves a storage identifier to a live driver handle.
// A Catalog maps identifiers to storage records (driver name plus driver
// configuration); Resolve instantiates the record's driver through
// driver.Drivers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leseb/fal-drivertest/pkg/provider"
)

var (
	// ErrNoStorage is returned when no usable storage identifier is configured.
	ErrNoStorage = errors.New("no storage target configured")
	// ErrUnknownStorage is returned when a catalog has no record for an identifier.
	ErrUnknownStorage = errors.New("unknown storage")
)

// Catalogs is the registry of catalog implementations that can be opened
// from a parameter map ("yaml", "sql").
var Catalogs = provider.NewRegistry[Catalog]("storage catalog")

// StorageID identifies one configured storage.
type StorageID int

func (id StorageID) String() string {
	return strconv.Itoa(int(id))
}

// ParseStorageID parses a decimal storage identifier. Empty, non-numeric
// and non-positive values all mean no storage is configured.
func ParseStorageID(s string) (StorageID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNoStorage
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a storage identifier", ErrNoStorage, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: storage identifier %d", ErrNoStorage, n)
	}
	return StorageID(n), nil
}

// Record describes one storage: which driver serves it and how.
type Record struct {
	UID           StorageID         `yaml:"uid" json:"uid"`
	Name          string            `yaml:"name" json:"name"`
	Driver        string            `yaml:"driver" json:"driver"`
	Configuration map[string]string `yaml:"configuration" json:"configuration"`
}

// Label returns a short human readable name, e.g. `1 "fileadmin" (local)`.
func (r Record) Label() string {
	return fmt.Sprintf("%d %q (%s)", r.UID, r.Name, r.Driver)
}

// Catalog looks up storage records.
type Catalog interface {
	Lookup(ctx context.Context, id StorageID) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// OpenCatalog opens a registered catalog implementation by name.
func OpenCatalog(ctx context.Context, name string, params map[string]string) (Catalog, error) {
	return Catalogs.New(ctx, name, params)
}
