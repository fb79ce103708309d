// Package filestore defines the file-content store collaborator consumed
// by filelookup.Root when a FILE identifier is requested (spec.md §6), and
// ships a default implementation backed by an fs.FS, in the spirit of the
// teacher's pages.Handler.FileSystem / AssetCollector pairing.
package filestore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// ErrFileMissing is returned by Store.GetFilePath when no file is known
// for the given hash.
var ErrFileMissing = errors.New("file missing")

// Store resolves a content hash (plus its declared mime type, used only to
// pick a file extension) to a local path.
type Store interface {
	GetFilePath(hash []byte, mime string) (string, error)
}

// Local is a Store backed by a content-addressed directory tree: files are
// stored as <root>/<first-byte-hex>/<full-hex>.<ext>, analogous to hydrus's
// own on-disk client_files layout.
type Local struct {
	FS  fs.FS
	Ext map[string]string // mime type -> file extension, e.g. "image/jpeg" -> "jpg"
}

func NewLocal(fsys fs.FS, ext map[string]string) *Local {
	if ext == nil {
		ext = map[string]string{}
	}
	return &Local{FS: fsys, Ext: ext}
}

func (l *Local) GetFilePath(hash []byte, mime string) (string, error) {
	if len(hash) == 0 {
		return "", fmt.Errorf("get file path: %w", ErrFileMissing)
	}
	h := hex.EncodeToString(hash)
	ext := l.Ext[mime]
	if ext == "" {
		ext = "bin"
	}
	p := path.Join(h[:2], h+"."+ext)

	if _, err := fs.Stat(l.FS, p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("get file path for %s: %w", h, ErrFileMissing)
		}
		return "", fmt.Errorf("get file path for %s: %w", h, err)
	}
	return p, nil
}
