package store

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdassow/atomic"
)

// JSONFileBackend stores the snapshot as a single JSON file on disk.
//
// Layout:
//
//	data_dir/
//	  dragdrop_storage.json   # snapshot
//	  dragdrop_storage.lock   # single-writer lock, see Open
//
// Saves write a temporary file in the same directory and rename it over the
// snapshot, so a crash mid-write leaves the previous snapshot intact.
type JSONFileBackend struct {
	path string
}

func NewJSONFileBackend(dir, name string) (*JSONFileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONFileBackend{path: filepath.Join(dir, name+".json")}, nil
}

// Path returns the snapshot file path.
func (b *JSONFileBackend) Path() string { return b.path }

func (b *JSONFileBackend) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (b *JSONFileBackend) Save(_ context.Context, data []byte) error {
	return atomic.WriteFile(b.path, bytes.NewReader(data), atomic.DefaultFileMode(0o644))
}

func (b *JSONFileBackend) Close() error { return nil }
