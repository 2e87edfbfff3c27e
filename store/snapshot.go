package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// StorageVersion is the format version written into every snapshot.
const StorageVersion = 1

// snapshot is an immutable view of the store once published. Mutations are
// applied to a clone.
type snapshot struct {
	keys []string
	docs map[string]json.RawMessage
}

func newSnapshot() *snapshot {
	return &snapshot{docs: make(map[string]json.RawMessage)}
}

func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		keys: slices.Clone(s.keys),
		docs: make(map[string]json.RawMessage, len(s.docs)),
	}
	for k, v := range s.docs {
		next.docs[k] = v
	}
	return next
}

// set inserts or overwrites key. An overwritten key keeps its position.
func (s *snapshot) set(key string, value json.RawMessage) {
	if _, ok := s.docs[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.docs[key] = value
}

func (s *snapshot) delete(key string) bool {
	if _, ok := s.docs[key]; !ok {
		return false
	}
	delete(s.docs, key)
	if i := slices.Index(s.keys, key); i >= 0 {
		s.keys = slices.Delete(s.keys, i, i+1)
	}
	return true
}

// envelope is the on-disk layout:
//
//	{"version": 1, "key": "dragdrop_storage", "data": {"k1": ..., "k2": ...}}
type envelope struct {
	Version int             `json:"version"`
	Key     string          `json:"key"`
	Data    json.RawMessage `json:"data"`
}

// encodeSnapshot serializes the snapshot with data members in insertion order.
func encodeSnapshot(name string, s *snapshot) ([]byte, error) {
	var data bytes.Buffer
	data.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			data.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		data.Write(kb)
		data.WriteByte(':')
		data.Write(s.docs[k])
	}
	data.WriteByte('}')

	b, err := json.MarshalIndent(envelope{
		Version: StorageVersion,
		Key:     name,
		Data:    data.Bytes(),
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// decodeSnapshot parses a snapshot, keeping the order of data members.
func decodeSnapshot(b []byte) (*snapshot, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Version < 1 || env.Version > StorageVersion {
		return nil, fmt.Errorf("unsupported storage version: %d", env.Version)
	}

	s := newSnapshot()
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return s, nil
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, fmt.Errorf("data must be an object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token in data: %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		var compacted bytes.Buffer
		if err := json.Compact(&compacted, raw); err != nil {
			return nil, err
		}
		s.set(key, compacted.Bytes())
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}
