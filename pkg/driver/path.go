// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"path"
	"strings"
)

// RootIdentifier identifies the root level folder of every storage.
const RootIdentifier = "/"

// NormalizeFolderPath returns the canonical folder identifier for p:
// a leading and trailing slash, no empty or dot elements.
func NormalizeFolderPath(p string) string {
	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return RootIdentifier
	}
	return cleaned + "/"
}

// NormalizeFilePath returns the canonical file identifier for p.
func NormalizeFilePath(p string) string {
	return path.Clean("/" + p)
}

// FolderPath builds a folder identifier from path elements.
func FolderPath(elem ...string) string {
	return NormalizeFolderPath(strings.Join(elem, "/"))
}

// FilePath builds a file identifier from path elements.
func FilePath(elem ...string) string {
	return NormalizeFilePath(strings.Join(elem, "/"))
}

// ValidateName checks that name can be used as a single path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// IsWithin reports whether identifier lies at or below the folder identifier.
func IsWithin(identifier, folder string) bool {
	return strings.HasPrefix(identifier, folder)
}

func baseName(identifier string) string {
	trimmed := strings.TrimSuffix(identifier, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}

func parentIdentifier(identifier string) string {
	trimmed := strings.TrimSuffix(identifier, "/")
	if trimmed == "" {
		return RootIdentifier
	}
	return NormalizeFolderPath(path.Dir(trimmed))
}
