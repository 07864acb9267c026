// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/fal-drivertest/pkg/driver"
	"github.com/leseb/fal-drivertest/pkg/driver/memory"
	"github.com/leseb/fal-drivertest/pkg/driver/objectstore"
)

func newDriver(prefix string) (*memory.Bucket, *objectstore.Driver) {
	bucket := memory.NewBucket()
	return bucket, objectstore.New(bucket, prefix)
}

func keys(t *testing.T, bucket *memory.Bucket) []string {
	t.Helper()
	objects, _, err := bucket.List(context.Background(), "", true)
	require.NoError(t, err)
	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		out = append(out, obj.Key)
	}
	return out
}

func TestPrefixLayout(t *testing.T) {
	ctx := context.Background()
	bucket, d := newDriver("/tenant-a")
	root, err := d.RootLevelFolder(ctx)
	require.NoError(t, err)

	folder, err := d.CreateFolder(ctx, "docs", root)
	require.NoError(t, err)
	file, err := d.CreateFile(ctx, "readme", folder)
	require.NoError(t, err)
	require.NoError(t, d.SetFileContents(ctx, file, []byte("hello")))

	assert.Equal(t, []string{"tenant-a/docs/", "tenant-a/docs/readme"}, keys(t, bucket))
	assert.Equal(t, "/docs/readme", file.Identifier)
	assert.Equal(t, "readme", file.Name)
	assert.Equal(t, int64(5), file.Size)
	assert.False(t, file.ModTime.IsZero())
}

func TestImplicitFolders(t *testing.T) {
	ctx := context.Background()
	bucket, d := newDriver("")

	// objects written by other tools imply their parent folders
	require.NoError(t, bucket.Put(ctx, "a/b/c.txt", []byte("x")))

	for _, p := range []string{"/a", "/a/", "a/b", "/a/b/"} {
		ok, err := d.HasFolder(ctx, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
	ok, err := d.HasFolder(ctx, "/a/b/c.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := d.GetFileList(ctx, "/a/b")
	require.NoError(t, err)
	require.Contains(t, files, "c.txt")
	assert.Equal(t, "/a/b/c.txt", files["c.txt"].Identifier)

	files, err = d.GetFileList(ctx, "/a")
	require.NoError(t, err)
	assert.Empty(t, files, "subfolders are not listed as files")
}

func TestFolderErrors(t *testing.T) {
	ctx := context.Background()
	_, d := newDriver("")
	root, _ := d.RootLevelFolder(ctx)

	folder, err := d.CreateFolder(ctx, "a", root)
	require.NoError(t, err)

	_, err = d.CreateFolder(ctx, "a", root)
	assert.True(t, errors.Is(err, driver.ErrExists), "got %v", err)

	_, err = d.CreateFolder(ctx, "x", driver.Folder{Identifier: "/missing/"})
	assert.True(t, errors.Is(err, driver.ErrNotFound), "got %v", err)

	_, err = d.CreateFolder(ctx, "", root)
	assert.True(t, errors.Is(err, driver.ErrInvalidName), "got %v", err)

	_, err = d.GetFolder(ctx, "/nope")
	assert.True(t, errors.Is(err, driver.ErrNotFound), "got %v", err)

	_, err = d.CreateFile(ctx, "f", folder)
	require.NoError(t, err)
	assert.True(t, errors.Is(d.DeleteFolder(ctx, folder, false), driver.ErrNotEmpty))
	require.NoError(t, d.DeleteFolder(ctx, folder, true))

	assert.True(t, errors.Is(d.DeleteFolder(ctx, root, true), driver.ErrInvalidName))
}

func TestNameCollisions(t *testing.T) {
	ctx := context.Background()
	_, d := newDriver("")
	root, _ := d.RootLevelFolder(ctx)

	_, err := d.CreateFile(ctx, "shared", root)
	require.NoError(t, err)

	// a folder cannot take a file's name and the other way round
	_, err = d.CreateFolder(ctx, "shared", root)
	assert.True(t, errors.Is(err, driver.ErrExists), "got %v", err)

	_, err = d.CreateFolder(ctx, "dir", root)
	require.NoError(t, err)
	_, err = d.CreateFile(ctx, "dir", root)
	assert.True(t, errors.Is(err, driver.ErrExists), "got %v", err)
}

func TestFileRelocation(t *testing.T) {
	ctx := context.Background()
	bucket, d := newDriver("")
	root, _ := d.RootLevelFolder(ctx)
	src, _ := d.CreateFolder(ctx, "src", root)
	dst, _ := d.CreateFolder(ctx, "dst", root)

	file, err := d.CreateFile(ctx, "f", src)
	require.NoError(t, err)
	require.NoError(t, d.SetFileContents(ctx, file, []byte("content")))

	renamed, err := d.RenameFile(ctx, file, "g")
	require.NoError(t, err)
	assert.Equal(t, "/src/g", renamed.Identifier)

	moved, err := d.MoveFile(ctx, renamed, dst)
	require.NoError(t, err)
	assert.Equal(t, "/dst/g", moved.Identifier)

	copied, err := d.CopyFile(ctx, moved, src, "")
	require.NoError(t, err)
	assert.Equal(t, "/src/g", copied.Identifier)

	_, err = d.CopyFile(ctx, moved, src, "")
	assert.True(t, errors.Is(err, driver.ErrExists), "got %v", err)

	assert.Equal(t, []string{"dst/", "dst/g", "src/", "src/g"}, keys(t, bucket))

	data, err := d.GetFileContents(ctx, copied)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	_, err = d.RenameFile(ctx, &driver.File{Identifier: "/src/missing"}, "x")
	assert.True(t, errors.Is(err, driver.ErrNotFound), "got %v", err)
}

func TestFolderRelocation(t *testing.T) {
	ctx := context.Background()
	bucket, d := newDriver("")
	root, _ := d.RootLevelFolder(ctx)
	a, _ := d.CreateFolder(ctx, "a", root)
	b, _ := d.CreateFolder(ctx, "b", a)
	_, err := d.CreateFile(ctx, "f", b)
	require.NoError(t, err)
	target, _ := d.CreateFolder(ctx, "t", root)

	_, err = d.MoveFolder(ctx, a, b)
	assert.True(t, errors.Is(err, driver.ErrInvalidName), "moving into itself: %v", err)

	copied, err := d.CopyFolder(ctx, a, target, "a2")
	require.NoError(t, err)
	assert.Equal(t, "/t/a2/", copied.Identifier)

	moved, err := d.MoveFolder(ctx, a, target)
	require.NoError(t, err)
	assert.Equal(t, "/t/a/", moved.Identifier)

	renamed, err := d.RenameFolder(ctx, moved, "z")
	require.NoError(t, err)
	assert.Equal(t, "/t/z/", renamed.Identifier)

	assert.Equal(t, []string{
		"t/",
		"t/a2/", "t/a2/b/", "t/a2/b/f",
		"t/z/", "t/z/b/", "t/z/b/f",
	}, keys(t, bucket))

	_, err = d.RenameFolder(ctx, root, "x")
	assert.True(t, errors.Is(err, driver.ErrInvalidName), "got %v", err)
}

func TestAddAndReplaceFile(t *testing.T) {
	ctx := context.Background()
	_, d := newDriver("")
	root, _ := d.RootLevelFolder(ctx)

	local := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(local, []byte("first"), 0o644))

	file, err := d.AddFile(ctx, local, root, "up")
	require.NoError(t, err)
	assert.Equal(t, int64(5), file.Size)

	_, err = d.AddFile(ctx, local, root, "up")
	assert.True(t, errors.Is(err, driver.ErrExists), "got %v", err)

	require.NoError(t, os.WriteFile(local, []byte("second!"), 0o644))
	require.NoError(t, d.ReplaceFile(ctx, file, local))
	assert.Equal(t, int64(7), file.Size)

	sum, err := d.HashFile(ctx, file, "md5")
	require.NoError(t, err)
	want, err := driver.HashBytes("md5", []byte("second!"))
	require.NoError(t, err)
	assert.Equal(t, want, sum)

	_, err = d.AddFile(ctx, filepath.Join(t.TempDir(), "missing"), root, "other")
	assert.Error(t, err)
}

func TestFileLifecycleAndSha1(t *testing.T) {
	ctx := context.Background()
	_, d := newDriver("")
	root, _ := d.RootLevelFolder(ctx)

	folder, err := d.CreateFolder(ctx, "abc123", root)
	require.NoError(t, err)
	file, err := d.CreateFile(ctx, "testFile", folder)
	require.NoError(t, err)

	ok, err := d.HasFile(ctx, "/abc123/testFile")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, d.SetFileContents(ctx, file, []byte("xyz789")))
	sum := sha1.Sum([]byte("xyz789"))
	got, err := d.HashFile(ctx, file, "sha1")
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), got)

	require.NoError(t, d.DeleteFile(ctx, file))
	ok, err = d.HasFile(ctx, "/abc123/testFile")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, errors.Is(d.DeleteFile(ctx, file), driver.ErrNotFound))
}
