package filestore

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_GetFilePath_Found(t *testing.T) {
	hash := []byte{0xab, 0xcd, 0xef}
	fsys := fstest.MapFS{
		"ab/abcdef.jpg": &fstest.MapFile{Data: []byte("img")},
	}
	l := NewLocal(fsys, map[string]string{"image/jpeg": "jpg"})

	path, err := l.GetFilePath(hash, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "ab/abcdef.jpg", path)
}

func TestLocal_GetFilePath_UnknownMimeDefaultsToBin(t *testing.T) {
	hash := []byte{0x01, 0x02}
	fsys := fstest.MapFS{
		"01/0102.bin": &fstest.MapFile{Data: []byte("x")},
	}
	l := NewLocal(fsys, nil)

	path, err := l.GetFilePath(hash, "application/x-unknown")
	require.NoError(t, err)
	assert.Equal(t, "01/0102.bin", path)
}

func TestLocal_GetFilePath_Missing(t *testing.T) {
	l := NewLocal(fstest.MapFS{}, nil)
	_, err := l.GetFilePath([]byte{0x01}, "image/jpeg")
	assert.True(t, errors.Is(err, ErrFileMissing))
}

func TestLocal_GetFilePath_EmptyHash(t *testing.T) {
	l := NewLocal(fstest.MapFS{}, nil)
	_, err := l.GetFilePath(nil, "image/jpeg")
	assert.True(t, errors.Is(err, ErrFileMissing))
}
