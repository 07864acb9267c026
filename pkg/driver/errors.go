// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import "errors"

var (
	// ErrNotFound is returned when a file or folder does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when the target name is already taken.
	ErrExists = errors.New("already exists")
	// ErrNotEmpty is returned by a non-recursive DeleteFolder on a folder with content.
	ErrNotEmpty = errors.New("folder not empty")
	// ErrInvalidName is returned for empty names, "." and "..", or names containing "/".
	ErrInvalidName = errors.New("invalid name")
	// ErrUnsupportedHash is returned by HashFile for unknown algorithms.
	ErrUnsupportedHash = errors.New("unsupported hash algorithm")
)
