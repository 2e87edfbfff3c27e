package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot(t *testing.T) {
	s := newSnapshot()
	s.set("b", json.RawMessage(`{"x":1}`))
	s.set("a", json.RawMessage(`[true,null]`))

	got, err := encodeSnapshot("dragdrop_storage", s)
	require.NoError(t, err)

	want := `{
  "version": 1,
  "key": "dragdrop_storage",
  "data": {
    "b": {
      "x": 1
    },
    "a": [
      true,
      null
    ]
  }
}
`
	assert.Equal(t, want, string(got))
}

func TestDecodeSnapshot(t *testing.T) {
	t.Run("keeps order", func(t *testing.T) {
		s, err := decodeSnapshot([]byte(`{"version":1,"key":"x","data":{"z":1,"a":{"n": [1, 2]},"m":null}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a", "m"}, s.keys)
		assert.Equal(t, `{"n":[1,2]}`, string(s.docs["a"]))
		assert.Equal(t, `null`, string(s.docs["m"]))
	})

	t.Run("round trip", func(t *testing.T) {
		s := newSnapshot()
		s.set("k\"ey", json.RawMessage(`"v"`))
		s.set("other", json.RawMessage(`{}`))
		b, err := encodeSnapshot("x", s)
		require.NoError(t, err)

		got, err := decodeSnapshot(b)
		require.NoError(t, err)
		assert.Equal(t, s.keys, got.keys)
		assert.Equal(t, s.docs, got.docs)
	})

	t.Run("no data", func(t *testing.T) {
		for _, src := range []string{`{"version":1}`, `{"version":1,"data":null}`, `{"version":1,"data":{}}`} {
			s, err := decodeSnapshot([]byte(src))
			require.NoError(t, err, src)
			assert.Empty(t, s.keys)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, src := range []string{
			`{corrupt`,
			`{"data":{}}`,
			`{"version":2,"data":{}}`,
			`{"version":1,"data":[1]}`,
		} {
			_, err := decodeSnapshot([]byte(src))
			assert.Error(t, err, src)
		}
	})
}

func TestSnapshotClone(t *testing.T) {
	s := newSnapshot()
	s.set("a", json.RawMessage(`1`))

	next := s.clone()
	next.set("b", json.RawMessage(`2`))
	assert.True(t, next.delete("a"))
	assert.False(t, next.delete("a"))

	assert.Equal(t, []string{"a"}, s.keys)
	assert.Len(t, s.docs, 1)
	assert.Equal(t, []string{"b"}, next.keys)
}
