// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/leseb/fal-drivertest/pkg/driver"
)

// tempFilePrefix names the scratch files staged on the local filesystem.
const tempFilePrefix = "fal-drivertest-"

// abort unwinds a scenario body once its outcome is settled.
type abort struct{}

// Session is handed to each scenario. It records the outcome and satisfies
// testify's require.TestingT, so scenarios assert with assert/require
// passing the session as the test handle.
//
// Every helper that talks to the driver turns a driver error into a fault:
// the scenario stops with StatusError rather than StatusFail.
type Session struct {
	ctx      context.Context
	driver   driver.Driver
	fixture  *Fixture
	status   Status
	messages []string
	err      error
	cleanups []func()
}

func newSession(ctx context.Context, drv driver.Driver, fixture *Fixture) *Session {
	return &Session{ctx: ctx, driver: drv, fixture: fixture}
}

// Context returns the context driver calls should use.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Driver returns the storage driver under test.
func (s *Session) Driver() driver.Driver {
	return s.driver
}

// Helper is a no-op; it lets testify treat Session like *testing.T.
func (s *Session) Helper() {}

// Errorf records an assertion failure and lets the scenario continue.
func (s *Session) Errorf(format string, args ...any) {
	if s.status == StatusPass || s.status == StatusIncomplete {
		s.status = StatusFail
	}
	s.messages = append(s.messages, fmt.Sprintf(format, args...))
}

// FailNow stops the scenario. It is called by require after Errorf.
func (s *Session) FailNow() {
	if s.status == StatusPass {
		s.status = StatusFail
	}
	panic(abort{})
}

// Incomplete stops the scenario and reports it as not yet verified, unless
// an earlier assertion already failed.
func (s *Session) Incomplete(reason string) {
	if s.status == StatusPass {
		s.status = StatusIncomplete
	}
	s.messages = append(s.messages, reason)
	panic(abort{})
}

// Must stops the scenario with StatusError if err is non-nil.
func (s *Session) Must(err error, op string) {
	if err == nil {
		return
	}
	s.fault(fmt.Errorf("%s: %w", op, err))
}

func (s *Session) fault(err error) {
	s.status = StatusError
	s.err = err
	panic(abort{})
}

// Cleanup registers fn to run after the scenario body, whatever its outcome.
// Cleanups run in reverse registration order before the test folder is
// removed.
func (s *Session) Cleanup(fn func()) {
	s.cleanups = append(s.cleanups, fn)
}

func (s *Session) runCleanups() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

// UniqueName returns a fresh name usable for files, folders or content.
func (s *Session) UniqueName() string {
	return uuid.NewString()
}

// CreateTestFolder creates the scenario's test folder and returns it.
func (s *Session) CreateTestFolder() driver.Folder {
	folder, err := s.fixture.CreateTestFolder(s.ctx)
	s.Must(err, "arrange")
	return folder
}

// TestFolder resolves the scenario's test folder.
func (s *Session) TestFolder() driver.Folder {
	folder, err := s.fixture.TestFolder(s.ctx)
	s.Must(err, "resolve test folder")
	return folder
}

// DeleteTestFolder removes the test folder recursively.
func (s *Session) DeleteTestFolder() {
	s.Must(s.fixture.DeleteTestFolder(s.ctx), "delete test folder")
}

// FolderPath returns the identifier of a folder below the test folder.
func (s *Session) FolderPath(elem ...string) string {
	return driver.FolderPath(append([]string{s.fixture.Name()}, elem...)...)
}

// FilePath returns the identifier of a file below the test folder.
func (s *Session) FilePath(elem ...string) string {
	return driver.FilePath(append([]string{s.fixture.Name()}, elem...)...)
}

// CreateFolder creates name in parent.
func (s *Session) CreateFolder(name string, parent driver.Folder) driver.Folder {
	folder, err := s.driver.CreateFolder(s.ctx, name, parent)
	s.Must(err, "create folder "+parent.FolderIdentifier(name))
	return folder
}

// CreateFile creates an empty file name in parent.
func (s *Session) CreateFile(name string, parent driver.Folder) *driver.File {
	file, err := s.driver.CreateFile(s.ctx, name, parent)
	s.Must(err, "create file "+parent.FileIdentifier(name))
	return file
}

// GetFile resolves a file by identifier.
func (s *Session) GetFile(path string) *driver.File {
	file, err := s.driver.GetFile(s.ctx, path)
	s.Must(err, "get file "+path)
	return file
}

// SetContents writes contents to file.
func (s *Session) SetContents(file *driver.File, contents []byte) {
	s.Must(s.driver.SetFileContents(s.ctx, file, contents), "set contents of "+file.Identifier)
}

// Contents reads file's contents.
func (s *Session) Contents(file *driver.File) []byte {
	data, err := s.driver.GetFileContents(s.ctx, file)
	s.Must(err, "get contents of "+file.Identifier)
	return data
}

// HasFolder queries folder existence.
func (s *Session) HasFolder(path string) bool {
	ok, err := s.driver.HasFolder(s.ctx, path)
	s.Must(err, "has folder "+path)
	return ok
}

// HasFile queries file existence.
func (s *Session) HasFile(path string) bool {
	ok, err := s.driver.HasFile(s.ctx, path)
	s.Must(err, "has file "+path)
	return ok
}

// HasFileInFolder queries file existence by name within parent.
func (s *Session) HasFileInFolder(name string, parent driver.Folder) bool {
	ok, err := s.driver.HasFileInFolder(s.ctx, name, parent)
	s.Must(err, "has file in folder "+parent.FileIdentifier(name))
	return ok
}

// TempFile stages contents in a scratch file on the local filesystem and
// returns its path. The file is removed when the scenario ends.
func (s *Session) TempFile(contents []byte) string {
	f, err := os.CreateTemp("", tempFilePrefix)
	s.Must(err, "create temporary file")
	s.Cleanup(func() { os.Remove(f.Name()) })

	_, err = f.Write(contents)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	s.Must(err, "write temporary file")
	return f.Name()
}
