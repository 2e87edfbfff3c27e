package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Open creates a Backend based on the backend name.
//
// Supported backends:
//
//	"json"   - JSON file at dataDir/<name>.json (default)
//	"sqlite" - SQLite database at dataDir/<name>.db
//	"memory" - In-memory (ephemeral, for testing)
//
// Disk backends hold an exclusive lock on dataDir/<name>.lock until Close, so
// a second process pointed at the same snapshot fails to open it.
func Open(backend, dataDir, name string) (Backend, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid store name: %q", name)
	}
	switch backend {
	case "json", "":
		return openLocked(dataDir, name, func() (Backend, error) {
			return NewJSONFileBackend(dataDir, name)
		})
	case "sqlite":
		return openLocked(dataDir, name, func() (Backend, error) {
			return NewSqliteBackend(filepath.Join(dataDir, name+".db"), name)
		})
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, memory)", backend)
	}
}

// lockedBackend releases its lock file on Close.
type lockedBackend struct {
	Backend
	lock *flock.Flock
}

func (b *lockedBackend) Close() error {
	return errors.Join(b.Backend.Close(), b.lock.Unlock())
}

func openLocked(dataDir, name string, open func() (Backend, error)) (Backend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(dataDir, name+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("store %q is in use by another process", name)
	}
	b, err := open()
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return &lockedBackend{Backend: b, lock: lock}, nil
}
