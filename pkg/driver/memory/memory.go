// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides an in-memory object bucket and registers the
// "memory" storage driver on top of it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leseb/fal-drivertest/pkg/driver"
	"github.com/leseb/fal-drivertest/pkg/driver/objectstore"
)

func init() {
	driver.Drivers.Register("memory", func(_ context.Context, params map[string]string) (driver.Driver, error) {
		return objectstore.New(NewBucket(), params["prefix"]), nil
	})
}

// compile-time check
var _ objectstore.Bucket = (*Bucket)(nil)

type object struct {
	data    []byte
	modTime time.Time
}

// Bucket is an in-memory objectstore.Bucket. Stored bytes are copied on the
// way in and out, so callers never share backing arrays with the bucket.
type Bucket struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// NewBucket creates an empty bucket.
func NewBucket() *Bucket {
	return &Bucket{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

// New creates a storage driver backed by a fresh in-memory bucket.
func New() *objectstore.Driver {
	return objectstore.New(NewBucket(), "")
}

// Put stores a copy of data under key.
func (b *Bucket) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = object{data: clone(data), modTime: b.now()}
	return nil
}

// Get returns a copy of the object's bytes.
func (b *Bucket) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, objectstore.ErrObjectNotFound)
	}
	return clone(obj.data), nil
}

// Stat returns the object's size and modification time.
func (b *Bucket) Stat(_ context.Context, key string) (objectstore.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return objectstore.ObjectInfo{}, fmt.Errorf("key %s: %w", key, objectstore.ErrObjectNotFound)
	}
	return objectstore.ObjectInfo{Key: key, Size: int64(len(obj.data)), ModTime: obj.modTime}, nil
}

// Copy duplicates srcKey into dstKey.
func (b *Bucket) Copy(_ context.Context, srcKey, dstKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[srcKey]
	if !ok {
		return fmt.Errorf("key %s: %w", srcKey, objectstore.ErrObjectNotFound)
	}
	b.objects[dstKey] = object{data: clone(obj.data), modTime: b.now()}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (b *Bucket) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		delete(b.objects, key)
	}
	return nil
}

// List returns objects below prefix sorted by key.
func (b *Bucket) List(_ context.Context, prefix string, recursive bool) ([]objectstore.ObjectInfo, []string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var objects []objectstore.ObjectInfo
	seen := make(map[string]struct{})
	var prefixes []string
	for key, obj := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if idx := strings.Index(rest, "/"); !recursive && idx >= 0 {
			common := prefix + rest[:idx+1]
			if _, ok := seen[common]; !ok {
				seen[common] = struct{}{}
				prefixes = append(prefixes, common)
			}
			continue
		}
		objects = append(objects, objectstore.ObjectInfo{Key: key, Size: int64(len(obj.data)), ModTime: obj.modTime})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	sort.Strings(prefixes)
	return objects, prefixes, nil
}

// Len returns the number of stored objects.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Close is a no-op for the in-memory bucket.
func (b *Bucket) Close(_ context.Context) error {
	return nil
}

func clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
