// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package driver defines the capability interface a storage driver must
// expose to be checked by the conformance suite, together with the folder
// and file references it hands out.
package driver

import (
	"context"
	"time"

	"github.com/leseb/fal-drivertest/pkg/provider"
)

// Drivers is the registry of storage driver implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/fal-drivertest/pkg/driver/memory"
//	import _ "github.com/leseb/fal-drivertest/pkg/driver/localfs"
//	import _ "github.com/leseb/fal-drivertest/pkg/driver/s3"
//	import _ "github.com/leseb/fal-drivertest/pkg/driver/gcs"
var Drivers = provider.NewRegistry[Driver]("storage driver")

// Folder references a folder by its normalized identifier, e.g. "/a/b/".
type Folder struct {
	Identifier string
}

// Name returns the last path element of the folder, or "" for the root.
func (f Folder) Name() string {
	return baseName(f.Identifier)
}

// Parent returns the folder containing f. The root is its own parent.
func (f Folder) Parent() Folder {
	return Folder{Identifier: parentIdentifier(f.Identifier)}
}

// IsRoot reports whether f is the storage root.
func (f Folder) IsRoot() bool {
	return f.Identifier == RootIdentifier
}

// FileIdentifier returns the identifier of a file called name inside f.
func (f Folder) FileIdentifier(name string) string {
	return f.Identifier + name
}

// FolderIdentifier returns the identifier of a subfolder called name inside f.
func (f Folder) FolderIdentifier(name string) string {
	return f.Identifier + name + "/"
}

// File references a file by identifier, e.g. "/a/b/name". Size and ModTime
// reflect the last state the driver observed or wrote through this reference.
type File struct {
	Identifier string
	Name       string
	Size       int64
	ModTime    time.Time
}

// Folder returns the folder containing the file.
func (f *File) Folder() Folder {
	return Folder{Identifier: parentIdentifier(f.Identifier)}
}

// Driver is the capability set every storage driver provides. Paths passed
// to Has*/Get* methods are normalized by the driver, so "/a/b" and "/a/b/"
// address the same folder.
//
// Calls are synchronous; a driver is not required to be safe for concurrent
// use unless its documentation says so.
type Driver interface {
	RootLevelFolder(ctx context.Context) (Folder, error)

	HasFolder(ctx context.Context, path string) (bool, error)
	GetFolder(ctx context.Context, path string) (Folder, error)
	CreateFolder(ctx context.Context, name string, parent Folder) (Folder, error)
	DeleteFolder(ctx context.Context, folder Folder, recursive bool) error

	HasFile(ctx context.Context, path string) (bool, error)
	HasFileInFolder(ctx context.Context, name string, parent Folder) (bool, error)
	GetFile(ctx context.Context, path string) (*File, error)
	CreateFile(ctx context.Context, name string, parent Folder) (*File, error)
	DeleteFile(ctx context.Context, file *File) error

	// GetFileList maps file names directly inside the folder at path to
	// their metadata. Subfolders are not included.
	GetFileList(ctx context.Context, path string) (map[string]*File, error)

	SetFileContents(ctx context.Context, file *File, contents []byte) error
	GetFileContents(ctx context.Context, file *File) ([]byte, error)
	HashFile(ctx context.Context, file *File, algorithm string) (string, error)

	// AddFile uploads the local file at localPath as parent/name.
	AddFile(ctx context.Context, localPath string, parent Folder, name string) (*File, error)
	// ReplaceFile overwrites file's contents with the local file at localPath.
	ReplaceFile(ctx context.Context, file *File, localPath string) error

	RenameFile(ctx context.Context, file *File, newName string) (*File, error)
	MoveFile(ctx context.Context, file *File, target Folder) (*File, error)
	CopyFile(ctx context.Context, file *File, target Folder, newName string) (*File, error)

	RenameFolder(ctx context.Context, folder Folder, newName string) (Folder, error)
	MoveFolder(ctx context.Context, folder Folder, target Folder) (Folder, error)
	CopyFolder(ctx context.Context, folder Folder, target Folder, newName string) (Folder, error)

	Close(ctx context.Context) error
}
