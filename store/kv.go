package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// DefaultName is the snapshot name used when none is configured.
const DefaultName = "dragdrop_storage"

// KV is a durable key -> JSON document store. The whole map is held in memory
// and every mutation rewrites the entire snapshot through the Backend before
// it becomes visible.
//
// Safe for concurrent use. Mutations are serialized; reads never block on a
// mutation once the snapshot has been loaded.
type KV struct {
	name    string
	backend Backend
	logger  logr.Logger

	loadOnce sync.Once
	current  atomic.Pointer[snapshot]

	// mu is held for the whole read-modify-persist cycle of a mutation.
	mu sync.Mutex
}

// NewKV constructs an unloaded store. The snapshot is read from the backend
// on first access.
func NewKV(name string, backend Backend, logger logr.Logger) *KV {
	return &KV{
		name:    name,
		backend: backend,
		logger:  logger.WithValues("store", name),
	}
}

// Name returns the snapshot name.
func (s *KV) Name() string { return s.name }

func (s *KV) load(ctx context.Context) *snapshot {
	s.loadOnce.Do(func() {
		snap, err := s.readSnapshot(context.WithoutCancel(ctx))
		if err != nil {
			s.logger.Error(err, "unreadable snapshot, starting empty")
			snap = newSnapshot()
		}
		s.current.Store(snap)
		s.logger.V(1).Info("loaded snapshot", "keys", len(snap.keys))
	})
	return s.current.Load()
}

func (s *KV) readSnapshot(ctx context.Context) (*snapshot, error) {
	b, err := s.backend.Load(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	if b == nil {
		return newSnapshot(), nil
	}
	snap, err := decodeSnapshot(b)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return snap, nil
}

// Keys returns every key in insertion order.
func (s *KV) Keys(ctx context.Context) []string {
	keys := s.load(ctx).keys
	return append(make([]string, 0, len(keys)), keys...)
}

// Len returns the number of keys.
func (s *KV) Len(ctx context.Context) int {
	return len(s.load(ctx).keys)
}

// Get returns the document stored under key, or ErrNotFound.
func (s *KV) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	doc, ok := s.load(ctx).docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(doc), nil
}

// Set stores value under key verbatim, persisting the whole store before
// returning.
func (s *KV) Set(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return ErrInvalidKey
	}
	if !json.Valid(value) {
		return ErrInvalidInput
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	_, err := s.mutate(ctx, "set", func(next *snapshot) bool {
		next.set(key, buf.Bytes())
		return true
	})
	return err
}

// Delete removes key and persists the result. It reports whether the key
// existed; nothing is written when it did not.
func (s *KV) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}
	return s.mutate(ctx, "delete", func(next *snapshot) bool {
		return next.delete(key)
	})
}

// mutate applies fn to a clone of the current snapshot, persists the clone and
// only then publishes it. If fn reports no change nothing is persisted.
func (s *KV) mutate(ctx context.Context, op string, fn func(next *snapshot) bool) (bool, error) {
	s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().clone()
	if !fn(next) {
		return false, nil
	}

	b, err := encodeSnapshot(s.name, next)
	if err != nil {
		mutationsMetric.WithLabelValues(op, "error").Inc()
		return false, &PersistenceError{Op: "encode", Err: err}
	}
	// A client going away must not abandon a write that has started.
	if err := s.backend.Save(context.WithoutCancel(ctx), b); err != nil {
		mutationsMetric.WithLabelValues(op, "error").Inc()
		s.logger.Error(err, "persisting snapshot", "op", op)
		return false, &PersistenceError{Op: "save", Err: err}
	}
	s.current.Store(next)

	mutationsMetric.WithLabelValues(op, "ok").Inc()
	keysMetric.WithLabelValues(s.name).Set(float64(len(next.keys)))
	snapshotBytesMetric.WithLabelValues(s.name).Set(float64(len(b)))
	s.logger.V(2).Info("persisted snapshot", "op", op, "keys", len(next.keys), "bytes", len(b))
	return true, nil
}
