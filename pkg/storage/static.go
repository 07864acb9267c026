// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"sort"
)

// compile-time check
var _ Catalog = (*StaticCatalog)(nil)

// StaticCatalog serves a fixed set of records, e.g. those listed inline in
// the configuration file.
type StaticCatalog struct {
	records map[StorageID]Record
}

// NewStaticCatalog indexes records by UID. Later duplicates win.
func NewStaticCatalog(records []Record) *StaticCatalog {
	c := &StaticCatalog{records: make(map[StorageID]Record, len(records))}
	for _, rec := range records {
		c.records[rec.UID] = rec
	}
	return c
}

// Lookup returns the record for id.
func (c *StaticCatalog) Lookup(_ context.Context, id StorageID) (Record, error) {
	rec, ok := c.records[id]
	if !ok {
		return Record{}, fmt.Errorf("storage %d: %w", id, ErrUnknownStorage)
	}
	return rec, nil
}

// List returns all records ordered by UID.
func (c *StaticCatalog) List(_ context.Context) ([]Record, error) {
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

// Close is a no-op for the static catalog.
func (c *StaticCatalog) Close() error {
	return nil
}
