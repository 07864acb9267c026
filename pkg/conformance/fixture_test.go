// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package conformance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/fal-drivertest/pkg/conformance"
)

func TestFixtureLifecycle(t *testing.T) {
	ctx := context.Background()
	bucket, drv := newMemoryDriver()
	fixture := conformance.NewFixture(drv, func() string { return "abc123" })

	assert.Equal(t, "abc123", fixture.Name())
	assert.Equal(t, "/abc123/", fixture.Identifier())
	assert.False(t, fixture.Exists())
	assert.Zero(t, bucket.Len(), "nothing is written before CreateTestFolder")

	_, err := fixture.TestFolder(ctx)
	assert.True(t, errors.Is(err, conformance.ErrNoTestFolder))

	folder, err := fixture.CreateTestFolder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/abc123/", folder.Identifier)
	assert.True(t, fixture.Exists())

	again, err := fixture.CreateTestFolder(ctx)
	require.NoError(t, err)
	assert.Equal(t, folder, again)

	_, err = drv.CreateFile(ctx, "leftover", folder)
	require.NoError(t, err)

	require.NoError(t, fixture.End(ctx))
	assert.False(t, fixture.Exists())
	assert.Zero(t, bucket.Len())

	require.NoError(t, fixture.End(ctx), "ending twice is a no-op")
}

func TestFixtureDefaultToken(t *testing.T) {
	_, drv := newMemoryDriver()
	a := conformance.NewFixture(drv, nil)
	b := conformance.NewFixture(drv, nil)
	assert.NotEmpty(t, a.Name())
	assert.NotEqual(t, a.Name(), b.Name())
}

func TestStatusText(t *testing.T) {
	for _, status := range []conformance.Status{
		conformance.StatusPass,
		conformance.StatusFail,
		conformance.StatusError,
		conformance.StatusIncomplete,
	} {
		text, err := status.MarshalText()
		require.NoError(t, err)

		var decoded conformance.Status
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, status, decoded)
	}

	var s conformance.Status
	assert.Error(t, s.UnmarshalText([]byte("flaky")))
	assert.Equal(t, "status(9)", conformance.Status(9).String())
}

func TestFixtureCreationFailureLeavesNothingToTearDown(t *testing.T) {
	ctx := context.Background()
	_, drv := newMemoryDriver()
	deletes := 0
	fixture := conformance.NewFixture(folderlessDriver{Driver: drv, deletes: &deletes}, nil)

	_, err := fixture.CreateTestFolder(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoFolders))
	assert.False(t, fixture.Exists())

	require.NoError(t, fixture.End(ctx))
	assert.Zero(t, deletes)
}
