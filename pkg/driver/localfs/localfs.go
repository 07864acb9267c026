// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package localfs implements a storage driver rooted in a local directory
// and registers it as the "local" driver.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/leseb/fal-drivertest/pkg/driver"
)

func init() {
	driver.Drivers.Register("local", func(_ context.Context, params map[string]string) (driver.Driver, error) {
		return New(params["base_path"])
	}, "base_path")
}

// compile-time check
var _ driver.Driver = (*Driver)(nil)

// Driver stores folders as directories and files as regular files below
// basePath. Identifier "/a/b/name" maps to <basePath>/a/b/name.
type Driver struct {
	basePath string
}

// New creates a Driver, creating basePath if it does not exist.
func New(basePath string) (*Driver, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local driver: base_path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base path %s: %w", basePath, err)
	}
	return &Driver{basePath: basePath}, nil
}

// BasePath returns the directory the storage is rooted in.
func (d *Driver) BasePath() string {
	return d.basePath
}

// abs maps an identifier below basePath. Dot-dot elements cannot climb
// above the root level folder.
func (d *Driver) abs(identifier string) string {
	rel := strings.TrimPrefix(driver.NormalizeFilePath(identifier), "/")
	return filepath.Join(d.basePath, filepath.FromSlash(rel))
}

// RootLevelFolder returns the folder "/".
func (d *Driver) RootLevelFolder(_ context.Context) (driver.Folder, error) {
	return driver.Folder{Identifier: driver.RootIdentifier}, nil
}

// HasFolder reports whether a directory exists at p.
func (d *Driver) HasFolder(_ context.Context, p string) (bool, error) {
	info, err := os.Stat(d.abs(driver.NormalizeFolderPath(p)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat folder: %w", err)
	}
	return info.IsDir(), nil
}

// GetFolder returns the folder at p or driver.ErrNotFound.
func (d *Driver) GetFolder(ctx context.Context, p string) (driver.Folder, error) {
	id := driver.NormalizeFolderPath(p)
	if err := d.requireFolder(ctx, id); err != nil {
		return driver.Folder{}, err
	}
	return driver.Folder{Identifier: id}, nil
}

// CreateFolder creates the directory parent/name.
func (d *Driver) CreateFolder(ctx context.Context, name string, parent driver.Folder) (driver.Folder, error) {
	if err := driver.ValidateName(name); err != nil {
		return driver.Folder{}, err
	}
	if err := d.requireFolder(ctx, parent.Identifier); err != nil {
		return driver.Folder{}, err
	}
	id := parent.FolderIdentifier(name)
	if err := os.Mkdir(d.abs(id), 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return driver.Folder{}, fmt.Errorf("folder %s: %w", id, driver.ErrExists)
		}
		return driver.Folder{}, fmt.Errorf("create folder %s: %w", id, err)
	}
	return driver.Folder{Identifier: id}, nil
}

// DeleteFolder removes the directory; with recursive it removes its content too.
func (d *Driver) DeleteFolder(ctx context.Context, folder driver.Folder, recursive bool) error {
	id := driver.NormalizeFolderPath(folder.Identifier)
	if id == driver.RootIdentifier {
		return fmt.Errorf("delete root folder: %w", driver.ErrInvalidName)
	}
	if err := d.requireFolder(ctx, id); err != nil {
		return err
	}
	dir := d.abs(id)
	if recursive {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("delete folder %s: %w", id, err)
		}
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read folder %s: %w", id, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("folder %s: %w", id, driver.ErrNotEmpty)
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	return nil
}

// HasFile reports whether a regular file exists at p.
func (d *Driver) HasFile(_ context.Context, p string) (bool, error) {
	id := driver.NormalizeFilePath(p)
	if id == driver.RootIdentifier {
		return false, nil
	}
	info, err := os.Stat(d.abs(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// HasFileInFolder reports whether parent contains a file called name.
func (d *Driver) HasFileInFolder(ctx context.Context, name string, parent driver.Folder) (bool, error) {
	if err := driver.ValidateName(name); err != nil {
		return false, err
	}
	return d.HasFile(ctx, parent.FileIdentifier(name))
}

// GetFile returns the file at p.
func (d *Driver) GetFile(_ context.Context, p string) (*driver.File, error) {
	return d.stat(driver.NormalizeFilePath(p))
}

// CreateFile creates an empty regular file parent/name.
func (d *Driver) CreateFile(ctx context.Context, name string, parent driver.Folder) (*driver.File, error) {
	if err := driver.ValidateName(name); err != nil {
		return nil, err
	}
	if err := d.requireFolder(ctx, parent.Identifier); err != nil {
		return nil, err
	}
	id := parent.FileIdentifier(name)
	f, err := os.OpenFile(d.abs(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("file %s: %w", id, driver.ErrExists)
		}
		return nil, fmt.Errorf("create file %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file %s: %w", id, err)
	}
	return d.stat(id)
}

// DeleteFile removes the file.
func (d *Driver) DeleteFile(_ context.Context, file *driver.File) error {
	if _, err := d.stat(file.Identifier); err != nil {
		return err
	}
	if err := os.Remove(d.abs(file.Identifier)); err != nil {
		return fmt.Errorf("delete file %s: %w", file.Identifier, err)
	}
	return nil
}

// GetFileList lists the regular files directly inside the folder at p.
func (d *Driver) GetFileList(ctx context.Context, p string) (map[string]*driver.File, error) {
	id := driver.NormalizeFolderPath(p)
	if err := d.requireFolder(ctx, id); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.abs(id))
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", id, err)
	}
	files := make(map[string]*driver.File, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed while listing
		}
		files[entry.Name()] = fileFromInfo(id+entry.Name(), info)
	}
	return files, nil
}

// SetFileContents atomically overwrites the file.
func (d *Driver) SetFileContents(_ context.Context, file *driver.File, contents []byte) error {
	if _, err := d.stat(file.Identifier); err != nil {
		return err
	}
	return d.write(file, func(w io.Writer) error {
		_, err := w.Write(contents)
		return err
	})
}

// GetFileContents reads the whole file.
func (d *Driver) GetFileContents(_ context.Context, file *driver.File) ([]byte, error) {
	data, err := os.ReadFile(d.abs(file.Identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", file.Identifier, driver.ErrNotFound)
		}
		return nil, fmt.Errorf("read file %s: %w", file.Identifier, err)
	}
	return data, nil
}

// HashFile streams the file through the requested hash.
func (d *Driver) HashFile(_ context.Context, file *driver.File, algorithm string) (string, error) {
	if _, err := driver.NewHash(algorithm); err != nil {
		return "", err
	}
	f, err := os.Open(d.abs(file.Identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", file.Identifier, driver.ErrNotFound)
		}
		return "", fmt.Errorf("open file %s: %w", file.Identifier, err)
	}
	defer f.Close()
	return driver.HashReader(algorithm, f)
}

// AddFile copies a local file into parent as name.
func (d *Driver) AddFile(ctx context.Context, localPath string, parent driver.Folder, name string) (*driver.File, error) {
	if err := driver.ValidateName(name); err != nil {
		return nil, err
	}
	if err := d.requireFolder(ctx, parent.Identifier); err != nil {
		return nil, err
	}
	id := parent.FileIdentifier(name)
	if err := d.requireFree(id); err != nil {
		return nil, err
	}
	file := &driver.File{Identifier: id, Name: name}
	if err := d.writeFrom(file, localPath); err != nil {
		return nil, err
	}
	return file, nil
}

// ReplaceFile overwrites file with a local file's contents.
func (d *Driver) ReplaceFile(_ context.Context, file *driver.File, localPath string) error {
	if _, err := d.stat(file.Identifier); err != nil {
		return err
	}
	return d.writeFrom(file, localPath)
}

// RenameFile renames the file within its folder.
func (d *Driver) RenameFile(_ context.Context, file *driver.File, newName string) (*driver.File, error) {
	if err := driver.ValidateName(newName); err != nil {
		return nil, err
	}
	return d.rename(file.Identifier, file.Folder().FileIdentifier(newName))
}

// MoveFile moves the file into target.
func (d *Driver) MoveFile(ctx context.Context, file *driver.File, target driver.Folder) (*driver.File, error) {
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return nil, err
	}
	return d.rename(file.Identifier, target.FileIdentifier(path.Base(file.Identifier)))
}

// CopyFile copies the file into target as newName. An empty newName keeps
// the original name.
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
	if _, err := d.stat(file.Identifier); err != nil {
		return nil, err
	}
	id := target.FileIdentifier(newName)
	if err := d.requireFree(id); err != nil {
		return nil, err
	}
	copied := &driver.File{Identifier: id, Name: newName}
	if err := d.writeFrom(copied, d.abs(file.Identifier)); err != nil {
		return nil, err
	}
	return copied, nil
}

// RenameFolder renames the folder within its parent.
func (d *Driver) RenameFolder(ctx context.Context, folder driver.Folder, newName string) (driver.Folder, error) {
	if err := driver.ValidateName(newName); err != nil {
		return driver.Folder{}, err
	}
	return d.renameFolder(ctx, folder, folder.Parent().FolderIdentifier(newName))
}

// MoveFolder moves the folder into target.
func (d *Driver) MoveFolder(ctx context.Context, folder driver.Folder, target driver.Folder) (driver.Folder, error) {
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return driver.Folder{}, err
	}
	return d.renameFolder(ctx, folder, target.FolderIdentifier(folder.Name()))
}

// CopyFolder recursively copies the folder into target as newName.
func (d *Driver) CopyFolder(ctx context.Context, folder driver.Folder, target driver.Folder, newName string) (driver.Folder, error) {
	if newName == "" {
		newName = folder.Name()
	}
	if err := driver.ValidateName(newName); err != nil {
		return driver.Folder{}, err
	}
	src := driver.NormalizeFolderPath(folder.Identifier)
	if err := d.requireFolder(ctx, src); err != nil {
		return driver.Folder{}, err
	}
	if err := d.requireFolder(ctx, target.Identifier); err != nil {
		return driver.Folder{}, err
	}
	dst := target.FolderIdentifier(newName)
	if driver.IsWithin(dst, src) {
		return driver.Folder{}, fmt.Errorf("copy %s into itself: %w", src, driver.ErrInvalidName)
	}
	if err := d.requireFree(dst); err != nil {
		return driver.Folder{}, err
	}

	srcDir, dstDir := d.abs(src), d.abs(dst)
	err := filepath.WalkDir(srcDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dstDir, rel)
		if entry.IsDir() {
			return os.Mkdir(out, 0o755)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		return copyLocalFile(p, out)
	})
	if err != nil {
		return driver.Folder{}, fmt.Errorf("copy folder %s to %s: %w", src, dst, err)
	}
	return driver.Folder{Identifier: dst}, nil
}

// Close is a no-op for the local driver.
func (d *Driver) Close(_ context.Context) error {
	return nil
}

func (d *Driver) stat(id string) (*driver.File, error) {
	info, err := os.Stat(d.abs(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", id, driver.ErrNotFound)
		}
		return nil, fmt.Errorf("stat file %s: %w", id, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("file %s: %w", id, driver.ErrNotFound)
	}
	return fileFromInfo(id, info), nil
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

func (d *Driver) requireFree(id string) error {
	if _, err := os.Lstat(d.abs(id)); err == nil {
		return fmt.Errorf("%s: %w", id, driver.ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", id, err)
	}
	return nil
}

func (d *Driver) rename(src, dst string) (*driver.File, error) {
	src = driver.NormalizeFilePath(src)
	if _, err := d.stat(src); err != nil {
		return nil, err
	}
	if src == dst {
		return d.stat(src)
	}
	if err := d.requireFree(dst); err != nil {
		return nil, err
	}
	if err := os.Rename(d.abs(src), d.abs(dst)); err != nil {
		return nil, fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}
	return d.stat(dst)
}

func (d *Driver) renameFolder(ctx context.Context, folder driver.Folder, dst string) (driver.Folder, error) {
	src := driver.NormalizeFolderPath(folder.Identifier)
	if src == driver.RootIdentifier {
		return driver.Folder{}, fmt.Errorf("rename root folder: %w", driver.ErrInvalidName)
	}
	if err := d.requireFolder(ctx, src); err != nil {
		return driver.Folder{}, err
	}
	if src == dst {
		return driver.Folder{Identifier: src}, nil
	}
	if driver.IsWithin(dst, src) {
		return driver.Folder{}, fmt.Errorf("move %s into itself: %w", src, driver.ErrInvalidName)
	}
	if err := d.requireFree(dst); err != nil {
		return driver.Folder{}, err
	}
	if err := os.Rename(d.abs(src), d.abs(dst)); err != nil {
		return driver.Folder{}, fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}
	return driver.Folder{Identifier: dst}, nil
}

// write replaces the file's contents atomically (temp file + rename) and
// refreshes file's metadata.
func (d *Driver) write(file *driver.File, fill func(io.Writer) error) error {
	target := d.abs(file.Identifier)
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename content: %w", err)
	}

	fresh, err := d.stat(file.Identifier)
	if err != nil {
		return err
	}
	file.Name = fresh.Name
	file.Size = fresh.Size
	file.ModTime = fresh.ModTime
	return nil
}

func (d *Driver) writeFrom(file *driver.File, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()
	return d.write(file, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}

func copyLocalFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func fileFromInfo(id string, info fs.FileInfo) *driver.File {
	return &driver.File{
		Identifier: id,
		Name:       path.Base(id),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
	}
}
