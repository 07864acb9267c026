// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by a Bucket for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Bucket is a flat key/value blob namespace such as an S3 or GCS bucket.
// Keys use "/" as the hierarchy separator.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes keys. Keys that do not exist are ignored.
	Delete(ctx context.Context, keys ...string) error
	// List returns the objects whose key starts with prefix. Unless recursive
	// is set, keys containing a further "/" after prefix are rolled up into
	// the returned common prefixes instead.
	List(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, []string, error)
	Close(ctx context.Context) error
}
