// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/leseb/fal-drivertest/pkg/driver"
)

// ErrNoTestFolder is returned when the test folder is used before it was created.
var ErrNoTestFolder = errors.New("test folder has not been created")

// Fixture owns the ephemeral folder a single scenario works in. The folder
// name is fixed when the fixture is created but nothing is written to the
// storage until CreateTestFolder is called.
type Fixture struct {
	driver driver.Driver
	name   string
	exists bool
}

// NewUUIDToken returns a random folder name token.
func NewUUIDToken() string {
	return uuid.NewString()
}

// NewFixture begins a scenario: it picks a fresh token from newToken, or a
// UUID when newToken is nil.
func NewFixture(drv driver.Driver, newToken func() string) *Fixture {
	if newToken == nil {
		newToken = NewUUIDToken
	}
	return &Fixture{driver: drv, name: newToken()}
}

// Name returns the test folder's name below the storage root.
func (f *Fixture) Name() string {
	return f.name
}

// Identifier returns the test folder's identifier, "/<name>/".
func (f *Fixture) Identifier() string {
	return driver.FolderPath(f.name)
}

// Exists reports whether the test folder was created and not yet deleted.
func (f *Fixture) Exists() bool {
	return f.exists
}

// CreateTestFolder creates the test folder directly below the root level
// folder. Calling it again while the folder exists returns the same folder.
func (f *Fixture) CreateTestFolder(ctx context.Context) (driver.Folder, error) {
	if f.exists {
		return f.TestFolder(ctx)
	}
	root, err := f.driver.RootLevelFolder(ctx)
	if err != nil {
		return driver.Folder{}, fmt.Errorf("get root level folder: %w", err)
	}
	folder, err := f.driver.CreateFolder(ctx, f.name, root)
	if err != nil {
		return driver.Folder{}, fmt.Errorf("create test folder %s: %w", f.Identifier(), err)
	}
	f.exists = true
	return folder, nil
}

// TestFolder resolves the test folder through the driver.
func (f *Fixture) TestFolder(ctx context.Context) (driver.Folder, error) {
	if !f.exists {
		return driver.Folder{}, ErrNoTestFolder
	}
	folder, err := f.driver.GetFolder(ctx, f.Identifier())
	if err != nil {
		return driver.Folder{}, fmt.Errorf("get test folder %s: %w", f.Identifier(), err)
	}
	return folder, nil
}

// DeleteTestFolder removes the test folder and everything in it.
func (f *Fixture) DeleteTestFolder(ctx context.Context) error {
	folder, err := f.TestFolder(ctx)
	if err != nil {
		return err
	}
	if err := f.driver.DeleteFolder(ctx, folder, true); err != nil {
		return fmt.Errorf("delete test folder %s: %w", f.Identifier(), err)
	}
	f.exists = false
	return nil
}

// End finishes the scenario. The test folder is deleted if, and only if, it
// still exists. A non-nil error means the storage was left dirty.
func (f *Fixture) End(ctx context.Context) error {
	if !f.exists {
		return nil
	}
	return f.DeleteTestFolder(ctx)
}
