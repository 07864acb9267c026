// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytes(t *testing.T) {
	tests := []struct {
		algorithm string
		data      string
		want      string
	}{
		{"sha1", "abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha1", "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"SHA1", "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"md5", "abc", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha256", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tt := range tests {
		got, err := HashBytes(tt.algorithm, []byte(tt.data))
		require.NoError(t, err, tt.algorithm)
		assert.Equal(t, tt.want, got, "%s(%q)", tt.algorithm, tt.data)
	}
}

func TestHashBytes_Unsupported(t *testing.T) {
	_, err := HashBytes("crc32", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedHash), "got %v", err)
}
