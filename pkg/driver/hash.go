// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// NewHash returns a fresh hash for one of the algorithms HashFile accepts.
func NewHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	case "sha256":
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%q: %w", algorithm, ErrUnsupportedHash)
	}
}

// HashReader returns the lowercase hex digest of everything read from r.
func HashReader(algorithm string, r io.Reader) (string, error) {
	h, err := NewHash(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash %s: %w", algorithm, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the lowercase hex digest of data.
func HashBytes(algorithm string, data []byte) (string, error) {
	return HashReader(algorithm, bytes.NewReader(data))
}
