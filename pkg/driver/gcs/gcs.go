// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package gcs provides a Google Cloud Storage object bucket and registers
// the "gcs" storage driver on top of it.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/leseb/fal-drivertest/pkg/driver"
	"github.com/leseb/fal-drivertest/pkg/driver/objectstore"
)

func init() {
	driver.Drivers.Register("gcs", func(ctx context.Context, params map[string]string) (driver.Driver, error) {
		bucket, err := NewBucket(ctx, Options{
			Bucket:   params["bucket"],
			Endpoint: params["endpoint"],
		})
		if err != nil {
			return nil, err
		}
		return objectstore.New(bucket, params["prefix"]), nil
	}, "bucket")
}

// compile-time check
var _ objectstore.Bucket = (*Bucket)(nil)

// Options configures the GCS bucket.
type Options struct {
	Bucket string // required
	// Endpoint points the client at an emulator such as fake-gcs-server.
	// Authentication is disabled when it is set.
	Endpoint string
}

// Bucket implements objectstore.Bucket backed by a GCS bucket.
type Bucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewBucket creates a GCS-backed Bucket. Without an endpoint the client
// authenticates through Application Default Credentials.
func NewBucket(ctx context.Context, opts Options) (*Bucket, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcs driver: bucket is required")
	}

	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &Bucket{
		client: client,
		bucket: client.Bucket(opts.Bucket),
	}, nil
}

// Put writes data to the object at key.
func (b *Bucket) Put(ctx context.Context, key string, data []byte) error {
	w := b.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer %s: %w", key, err)
	}
	return nil
}

// Get reads the object at key.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %s: %w", key, objectstore.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object body %s: %w", key, err)
	}
	return data, nil
}

// Stat returns the object's size and last update time.
func (b *Bucket) Stat(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	attrs, err := b.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return objectstore.ObjectInfo{}, fmt.Errorf("object %s: %w", key, objectstore.ErrObjectNotFound)
		}
		return objectstore.ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	return objectstore.ObjectInfo{Key: key, Size: attrs.Size, ModTime: attrs.Updated}, nil
}

// Copy performs a server-side copy of srcKey to dstKey.
func (b *Bucket) Copy(ctx context.Context, srcKey, dstKey string) error {
	src := b.bucket.Object(srcKey)
	if _, err := b.bucket.Object(dstKey).CopierFrom(src).Run(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("object %s: %w", srcKey, objectstore.ErrObjectNotFound)
		}
		return fmt.Errorf("copy object %s to %s: %w", srcKey, dstKey, err)
	}
	return nil
}

// Delete removes each key; missing objects are ignored.
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		err := b.bucket.Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete object %s: %w", key, err)
		}
	}
	return nil
}

// List iterates objects below prefix, using "/" as delimiter unless recursive.
func (b *Bucket) List(ctx context.Context, prefix string, recursive bool) ([]objectstore.ObjectInfo, []string, error) {
	query := &storage.Query{Prefix: prefix}
	if !recursive {
		query.Delimiter = "/"
	}

	var objects []objectstore.ObjectInfo
	var prefixes []string
	it := b.bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("list objects %s: %w", prefix, err)
		}
		if attrs.Prefix != "" {
			prefixes = append(prefixes, attrs.Prefix)
			continue
		}
		objects = append(objects, objectstore.ObjectInfo{
			Key:     attrs.Name,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
		})
	}
	return objects, prefixes, nil
}

// Close releases the GCS client.
func (b *Bucket) Close(_ context.Context) error {
	return b.client.Close()
}
