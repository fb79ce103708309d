package hashstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_FileHashes_Translates(t *testing.T) {
	s := NewStatic()
	sha := []byte{1, 2, 3}
	s.Put(sha, MD5, []byte{9, 9, 9})

	out, err := s.FileHashes([][]byte{sha}, SHA256, MD5)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{9, 9, 9}}, out)
}

func TestStatic_FileHashes_UnknownHash(t *testing.T) {
	s := NewStatic()
	_, err := s.FileHashes([][]byte{{1, 2, 3}}, SHA256, MD5)

	var unknown *ErrUnknownHash
	assert.True(t, errors.As(err, &unknown))
}

func TestStatic_FileHashes_RejectsNonSHA256Source(t *testing.T) {
	s := NewStatic()
	_, err := s.FileHashes([][]byte{{1}}, MD5, SHA1)
	assert.Error(t, err)
}
