// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectstore implements driver.Driver on top of a flat object
// Bucket. Folders are zero-byte marker objects whose key ends in "/"; a
// folder also exists implicitly while any object lives below its prefix.
//
// Layout:
//
//	<prefix>a/b/          marker for folder /a/b/
//	<prefix>a/b/name      file /a/b/name
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/leseb/fal-drivertest/pkg/driver"
)

// compile-time check
var _ driver.Driver = (*Driver)(nil)

// Driver maps driver identifiers onto keys of a Bucket.
type Driver struct {
	bucket Bucket
	prefix string
}

// New creates a Driver storing everything below prefix in bucket.
func New(bucket Bucket, prefix string) *Driver {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Driver{bucket: bucket, prefix: prefix}
}

func (d *Driver) key(identifier string) string {
	return d.prefix + strings.TrimPrefix(identifier, "/")
}

func (d *Driver) identifier(key string) string {
	return "/" + strings.TrimPrefix(key, d.prefix)
}

func (d *Driver) fileFromInfo(info ObjectInfo) *driver.File {
	id := d.identifier(info.Key)
	return &driver.File{
		Identifier: id,
		Name:       path.Base(id),
		Size:       info.Size,
		ModTime:    info.ModTime,
	}
}

// RootLevelFolder returns the folder "/".
func (d *Driver) RootLevelFolder(_ context.Context) (driver.Folder, error) {
	return driver.Folder{Identifier: driver.RootIdentifier}, nil
}

// HasFolder reports whether a marker or any object below the folder exists.
func (d *Driver) HasFolder(ctx context.Context, p string) (bool, error) {
	id := driver.NormalizeFolderPath(p)
	if id == driver.RootIdentifier {
		return true, nil
	}
	key := d.key(id)
	if _, err := d.bucket.Stat(ctx, key); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrObjectNotFound) {
		return false, fmt.Errorf("stat folder %s: %w", id, err)
	}
	objects, _, err := d.bucket.List(ctx, key, true)
	if err != nil {
		return false, fmt.Errorf("list folder %s: %w", id, err)
	}
	return len(objects) > 0, nil
}

// GetFolder returns the folder at p or driver.ErrNotFound.
func (d *Driver) GetFolder(ctx context.Context, p string) (driver.Folder, error) {
	id := driver.NormalizeFolderPath(p)
	if err := d.requireFolder(ctx, id); err != nil {
		return driver.Folder{}, err
	}
	return driver.Folder{Identifier: id}, nil
}

// CreateFolder writes the marker object for parent/name.
func (d *Driver) CreateFolder(ctx context.Context, name string, parent driver.Folder) (driver.Folder, error) {
	if err := driver.ValidateName(name); err != nil {
		return driver.Folder{}, err
	}
	if err := d.requireFolder(ctx, parent.Identifier); err != nil {
		return driver.Folder{}, err
	}
	id := parent.FolderIdentifier(name)
	if err := d.requireFree(ctx, id); err != nil {
		return driver.Folder{}, err
	}
	if err := d.bucket.Put(ctx, d.key(id), nil); err != nil {
		return driver.Folder{}, fmt.Errorf("create folder %s: %w", id, err)
	}
	return driver.Folder{Identifier: id}, nil
}

// DeleteFolder removes the folder marker and, if recursive, everything below it.
func (d *Driver) DeleteFolder(ctx context.Context, folder driver.Folder, recursive bool) error {
	id := driver.NormalizeFolderPath(folder.Identifier)
	if id == driver.RootIdentifier {
		return fmt.Errorf("delete root folder: %w", driver.ErrInvalidName)
	}
	if err := d.requireFolder(ctx, id); err != nil {
		return err
	}
	key := d.key(id)
	objects, _, err := d.bucket.List(ctx, key, true)
	if err != nil {
		return fmt.Errorf("list folder %s: %w", id, err)
	}
	keys := []string{key}
	for _, obj := range objects {
		if obj.Key == key {
			continue
		}
		if !recursive {
			return fmt.Errorf("folder %s: %w", id, driver.ErrNotEmpty)
		}
		keys = append(keys, obj.Key)
	}
	if err := d.bucket.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	return nil
}

// HasFile reports whether an object exists for the file identifier.
func (d *Driver) HasFile(ctx context.Context, p string) (bool, error) {
	id := driver.NormalizeFilePath(p)
	if id == driver.RootIdentifier {
		return false, nil
	}
	_, err := d.bucket.Stat(ctx, d.key(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("stat file %s: %w", id, err)
}

// HasFileInFolder reports whether parent contains a file called name.
func (d *Driver) HasFileInFolder(ctx context.Context, name string, parent driver.Folder) (bool, error) {
	if err := driver.ValidateName(name); err != nil {
		return false, err
	}
	return d.HasFile(ctx, parent.FileIdentifier(name))
}

// GetFile returns the file at p with its current size and modification time.
func (d *Driver) GetFile(ctx context.Context, p string) (*driver.File, error) {
	return d.stat(ctx, driver.NormalizeFilePath(p))
}

// CreateFile writes an empty object for parent/name.
func (d *Driver) CreateFile(ctx context.Context, name string, parent driver.Folder) (*driver.File, error) {
	if err := driver.ValidateName(name); err != nil {
		return nil, err
	}
	if err := d.requireFolder(ctx, parent.Identifier); err != nil {
		return nil, err
	}
	id := parent.FileIdentifier(name)
	if err := d.requireFree(ctx, id); err != nil {
		return nil, err
	}
	if err := d.bucket.Put(ctx, d.key(id), []byte{}); err != nil {
		return nil, fmt.Errorf("create file %s: %w", id, err)
	}
	return d.stat(ctx, id)
}

// DeleteFile removes the file's object.
func (d *Driver) DeleteFile(ctx context.Context, file *driver.File) error {
	if _, err := d.stat(ctx, file.Identifier); err != nil {
		return err
	}
	if err := d.bucket.Delete(ctx, d.key(file.Identifier)); err != nil {
		return fmt.Errorf("delete file %s: %w", file.Identifier, err)
	}
	return nil
}

// GetFileList lists the files directly inside the folder at p.
func (d *Driver) GetFileList(ctx context.Context, p string) (map[string]*driver.File, error) {
	id := driver.NormalizeFolderPath(p)
	if err := d.requireFolder(ctx, id); err != nil {
		return nil, err
	}
	key := d.key(id)
	objects, _, err := d.bucket.List(ctx, key, false)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", id, err)
	}
	files := make(map[string]*driver.File, len(objects))
	for _, obj := range objects {
		if obj.Key == key {
			continue
		}
		f := d.fileFromInfo(obj)
		files[f.Name] = f
	}
	return files, nil
}

// SetFileContents overwrites the file's object and refreshes file's metadata.
func (d *Driver) SetFileContents(ctx context.Context, file *driver.File, contents []byte) error {
	if _, err := d.stat(ctx, file.Identifier); err != nil {
		return err
	}
	return d.write(ctx, file, contents)
}

// GetFileContents returns the file's bytes.
func (d *Driver) GetFileContents(ctx context.Context, file *driver.File) ([]byte, error) {
	data, err := d.bucket.Get(ctx, d.key(file.Identifier))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, fmt.Errorf("file %s: %w", file.Identifier, driver.ErrNotFound)
		}
		return nil, fmt.Errorf("get file %s: %w", file.Identifier, err)
	}
	return data, nil
}

// HashFile returns the hex digest of the file's bytes.
func (d *Driver) HashFile(ctx context.Context, file *driver.File, algorithm string) (string, error) {
	if _, err := driver.NewHash(algorithm); err != nil {
		return "", err
	}
	data, err := d.GetFileContents(ctx, file)
	if err != nil {
		return "", err
	}
	return driver.HashBytes(algorithm, data)
}

// AddFile uploads a local file as parent/name.
func (d *Driver) AddFile(ctx context.Context, localPath string, parent driver.Folder, name string) (*driver.File, error) {
	if err := driver.ValidateName(name); err != nil {
		return nil, err
	}
	if err := d.requireFolder(ctx, parent.Identifier); err != nil {
		return nil, err
	}
	id := parent.FileIdentifier(name)
	if err := d.requireFree(ctx, id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read local file: %w", err)
	}
	file := &driver.File{Identifier: id, Name: name}
	if err := d.write(ctx, file, data); err != nil {
		return nil, err
	}
	return file, nil
}

// ReplaceFile overwrites file with the contents of a local file.
func (d *Driver) ReplaceFile(ctx context.Context, file *driver.File, localPath string) error {
	if _, err := d.stat(ctx, file.Identifier); err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}
	return d.write(ctx, file, data)
}

// RenameFile gives file a new name in the same folder.
func (d *Driver) RenameFile(ctx context.Context, file *driver.File, newName string) (*driver.File, error) {
	if err := driver.ValidateName(newName); err != nil {
		return nil, err
	}
	return d.relocateFile(ctx, file, file.Folder().FileIdentifier(newName), true)
}

// MoveFile moves file into target, keeping its name.
func (d *Driver) MoveFile(ctx context.Context, file *driver.File, target driver.Folder) (*driver.File, error) {
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return nil, err
	}
	return d.relocateFile(ctx, file, target.FileIdentifier(path.Base(file.Identifier)), true)
}

// CopyFile copies file into target as newName. An empty newName keeps the
// original name.
func (d *Driver) CopyFile(ctx context.Context, file *driver.File, target driver.Folder, newName string) (*driver.File, error) {
	if newName == "" {
		newName = path.Base(file.Identifier)
	}
	if err := driver.ValidateName(newName); err != nil {
		return nil, err
	}
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return nil, err
	}
	return d.relocateFile(ctx, file, target.FileIdentifier(newName), false)
}

// RenameFolder gives folder a new name under the same parent.
func (d *Driver) RenameFolder(ctx context.Context, folder driver.Folder, newName string) (driver.Folder, error) {
	if err := driver.ValidateName(newName); err != nil {
		return driver.Folder{}, err
	}
	return d.relocateFolder(ctx, folder, folder.Parent().FolderIdentifier(newName), true)
}

// MoveFolder moves folder and its content into target.
func (d *Driver) MoveFolder(ctx context.Context, folder driver.Folder, target driver.Folder) (driver.Folder, error) {
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return driver.Folder{}, err
	}
	return d.relocateFolder(ctx, folder, target.FolderIdentifier(folder.Name()), true)
}

// CopyFolder copies folder and its content into target as newName.
func (d *Driver) CopyFolder(ctx context.Context, folder driver.Folder, target driver.Folder, newName string) (driver.Folder, error) {
	if newName == "" {
		newName = folder.Name()
	}
	if err := driver.ValidateName(newName); err != nil {
		return driver.Folder{}, err
	}
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return driver.Folder{}, err
	}
	return d.relocateFolder(ctx, folder, target.FolderIdentifier(newName), false)
}

// Close closes the bucket.
func (d *Driver) Close(ctx context.Context) error {
	return d.bucket.Close(ctx)
}

func (d *Driver) stat(ctx context.Context, id string) (*driver.File, error) {
	info, err := d.bucket.Stat(ctx, d.key(id))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, fmt.Errorf("file %s: %w", id, driver.ErrNotFound)
		}
		return nil, fmt.Errorf("stat file %s: %w", id, err)
	}
	return d.fileFromInfo(info), nil
}

func (d *Driver) write(ctx context.Context, file *driver.File, data []byte) error {
	if err := d.bucket.Put(ctx, d.key(file.Identifier), data); err != nil {
		return fmt.Errorf("put file %s: %w", file.Identifier, err)
	}
	fresh, err := d.stat(ctx, file.Identifier)
	if err != nil {
		return err
	}
	file.Name = fresh.Name
	file.Size = fresh.Size
	file.ModTime = fresh.ModTime
	return nil
}

func (d *Driver) requireFolder(ctx context.Context, id string) error {
	ok, err := d.HasFolder(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("folder %s: %w", driver.NormalizeFolderPath(id), driver.ErrNotFound)
	}
	return nil
}

// requireFree fails if either a file or a folder already occupies the name
// that id (file or folder form) would take.
func (d *Driver) requireFree(ctx context.Context, id string) error {
	base := strings.TrimSuffix(id, "/")
	if ok, err := d.HasFile(ctx, base); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%s: %w", base, driver.ErrExists)
	}
	if ok, err := d.HasFolder(ctx, base+"/"); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%s/: %w", base, driver.ErrExists)
	}
	return nil
}

func (d *Driver) relocateFile(ctx context.Context, file *driver.File, dst string, removeSource bool) (*driver.File, error) {
	src := driver.NormalizeFilePath(file.Identifier)
	if _, err := d.stat(ctx, src); err != nil {
		return nil, err
	}
	if dst == src {
		return d.stat(ctx, src)
	}
	if err := d.requireFree(ctx, dst); err != nil {
		return nil, err
	}
	if err := d.bucket.Copy(ctx, d.key(src), d.key(dst)); err != nil {
		return nil, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if removeSource {
		if err := d.bucket.Delete(ctx, d.key(src)); err != nil {
			return nil, fmt.Errorf("delete %s: %w", src, err)
		}
	}
	return d.stat(ctx, dst)
}

func (d *Driver) relocateFolder(ctx context.Context, folder driver.Folder, dst string, removeSource bool) (driver.Folder, error) {
	src := driver.NormalizeFolderPath(folder.Identifier)
	if src == driver.RootIdentifier {
		return driver.Folder{}, fmt.Errorf("relocate root folder: %w", driver.ErrInvalidName)
	}
	if err := d.requireFolder(ctx, src); err != nil {
		return driver.Folder{}, err
	}
	if dst == src {
		return driver.Folder{Identifier: src}, nil
	}
	if driver.IsWithin(dst, src) {
		return driver.Folder{}, fmt.Errorf("relocate %s into itself: %w", src, driver.ErrInvalidName)
	}
	if err := d.requireFree(ctx, dst); err != nil {
		return driver.Folder{}, err
	}

	srcKey, dstKey := d.key(src), d.key(dst)
	objects, _, err := d.bucket.List(ctx, srcKey, true)
	if err != nil {
		return driver.Folder{}, fmt.Errorf("list folder %s: %w", src, err)
	}
	if err := d.bucket.Put(ctx, dstKey, nil); err != nil {
		return driver.Folder{}, fmt.Errorf("create folder %s: %w", dst, err)
	}
	keys := []string{srcKey}
	for _, obj := range objects {
		if obj.Key == srcKey {
			continue
		}
		target := dstKey + strings.TrimPrefix(obj.Key, srcKey)
		if err := d.bucket.Copy(ctx, obj.Key, target); err != nil {
			return driver.Folder{}, fmt.Errorf("copy %s: %w", d.identifier(obj.Key), err)
		}
		keys = append(keys, obj.Key)
	}
	if removeSource {
		if err := d.bucket.Delete(ctx, keys...); err != nil {
			return driver.Folder{}, fmt.Errorf("delete folder %s: %w", src, err)
		}
	}
	return driver.Folder{Identifier: dst}, nil
}
