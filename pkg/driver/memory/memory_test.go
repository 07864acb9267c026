// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/fal-drivertest/pkg/conformance/conformancetest"
	"github.com/leseb/fal-drivertest/pkg/driver"
	"github.com/leseb/fal-drivertest/pkg/driver/memory"
	"github.com/leseb/fal-drivertest/pkg/driver/objectstore"
)

func TestMemoryConformance(t *testing.T) {
	conformancetest.Run(t, memory.New())
}

func TestMemoryRegistered(t *testing.T) {
	d, err := driver.Drivers.New(context.Background(), "memory", map[string]string{"prefix": "p"})
	require.NoError(t, err)
	assert.IsType(t, &objectstore.Driver{}, d)
}

func TestBucketCopiesData(t *testing.T) {
	ctx := context.Background()
	b := memory.NewBucket()

	data := []byte("abc")
	require.NoError(t, b.Put(ctx, "k", data))
	data[0] = 'x'

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[0] = 'y'
	again, _ := b.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestBucketMissingKeys(t *testing.T) {
	ctx := context.Background()
	b := memory.NewBucket()

	_, err := b.Get(ctx, "nope")
	assert.True(t, errors.Is(err, objectstore.ErrObjectNotFound))
	_, err = b.Stat(ctx, "nope")
	assert.True(t, errors.Is(err, objectstore.ErrObjectNotFound))
	assert.True(t, errors.Is(b.Copy(ctx, "nope", "dst"), objectstore.ErrObjectNotFound))
	assert.NoError(t, b.Delete(ctx, "nope"))
}

func TestBucketList(t *testing.T) {
	ctx := context.Background()
	b := memory.NewBucket()
	for _, key := range []string{"a/", "a/x", "a/b/", "a/b/y", "c"} {
		require.NoError(t, b.Put(ctx, key, []byte(key)))
	}

	objects, prefixes, err := b.List(ctx, "a/", false)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a/", objects[0].Key)
	assert.Equal(t, "a/x", objects[1].Key)
	assert.Equal(t, []string{"a/b/"}, prefixes)

	objects, prefixes, err = b.List(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, objects, 5)
	assert.Empty(t, prefixes)

	objects, prefixes, err = b.List(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "c", objects[0].Key)
	assert.Equal(t, []string{"a/"}, prefixes)

	assert.Equal(t, 5, b.Len())
}
