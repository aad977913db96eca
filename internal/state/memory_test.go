package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, it Iterator) []*KV {
	t.Helper()
	defer it.Close()

	var kvs []*KV
	for {
		kv, err := it.Next()
		require.NoError(t, err)
		if kv == nil {
			return kvs
		}
		kvs = append(kvs, kv)
	}
}

func TestMemoryStateGetPut(t *testing.T) {
	m := NewMemoryState()

	v, err := m.GetState("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, m.PutState("k", []byte("v1")))
	v, err = m.GetState("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, m.PutState("k", []byte("v2")))
	v, err = m.GetState("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

func TestMemoryStateDelete(t *testing.T) {
	m := NewMemoryState()
	require.NoError(t, m.PutState("k", []byte("v")))
	require.NoError(t, m.DelState("k"))

	v, err := m.GetState("k")
	require.NoError(t, err)
	assert.Nil(t, v)

	// Deleting an absent key is a no-op.
	require.NoError(t, m.DelState("never-existed"))
}

func TestMemoryStateVersions(t *testing.T) {
	m := NewMemoryState()

	v, err := m.StateVersion("k")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	require.NoError(t, m.PutState("k", []byte("a")))
	v, err = m.StateVersion("k")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	require.NoError(t, m.PutState("k", []byte("b")))
	v, err = m.StateVersion("k")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	// Tombstones keep counting so delete+recreate is observable.
	require.NoError(t, m.DelState("k"))
	v, err = m.StateVersion("k")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func TestMemoryStateRangeScan(t *testing.T) {
	m := NewMemoryState()
	require.NoError(t, m.PutState("flight:BS015", []byte("b")))
	require.NoError(t, m.PutState("flight:EC001", []byte("a")))
	require.NoError(t, m.PutState("flight:EC002", []byte("c")))
	require.NoError(t, m.PutState("other:1", []byte("x")))

	t.Run("bounded", func(t *testing.T) {
		it, err := m.GetStateByRange("flight:", "flight:~")
		require.NoError(t, err)
		kvs := collect(t, it)
		require.Len(t, kvs, 3)
		assert.Equal(t, "flight:BS015", kvs[0].Key)
		assert.Equal(t, "flight:EC001", kvs[1].Key)
		assert.Equal(t, "flight:EC002", kvs[2].Key)
	})

	t.Run("end key exclusive", func(t *testing.T) {
		it, err := m.GetStateByRange("flight:BS015", "flight:EC002")
		require.NoError(t, err)
		kvs := collect(t, it)
		require.Len(t, kvs, 2)
		assert.Equal(t, "flight:BS015", kvs[0].Key)
		assert.Equal(t, "flight:EC001", kvs[1].Key)
	})

	t.Run("unbounded", func(t *testing.T) {
		it, err := m.GetStateByRange("", "")
		require.NoError(t, err)
		assert.Len(t, collect(t, it), 4)
	})

	t.Run("tombstones excluded", func(t *testing.T) {
		require.NoError(t, m.DelState("flight:EC001"))
		it, err := m.GetStateByRange("flight:", "flight:~")
		require.NoError(t, err)
		kvs := collect(t, it)
		require.Len(t, kvs, 2)
		assert.Equal(t, "flight:BS015", kvs[0].Key)
		assert.Equal(t, "flight:EC002", kvs[1].Key)
	})
}

func TestMemoryStateCommitBatch(t *testing.T) {
	m := NewMemoryState()
	require.NoError(t, m.PutState("a", []byte("1")))

	err := m.CommitBatch(
		map[string]uint64{"a": 1, "b": 0},
		[]Write{
			{Key: "a", Value: []byte("2")},
			{Key: "b", Value: []byte("new")},
		},
	)
	require.NoError(t, err)

	v, err := m.GetState("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	v, err = m.GetState("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestMemoryStateCommitBatchConflict(t *testing.T) {
	m := NewMemoryState()
	require.NoError(t, m.PutState("a", []byte("1")))

	// Read at version 1, then the key moves to version 2.
	require.NoError(t, m.PutState("a", []byte("2")))

	err := m.CommitBatch(
		map[string]uint64{"a": 1},
		[]Write{{Key: "a", Value: []byte("stale")}},
	)
	require.ErrorIs(t, err, ErrConflict)

	// Nothing applied.
	v, err := m.GetState("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestMemoryStateCommitBatchDeleteConflict(t *testing.T) {
	m := NewMemoryState()
	require.NoError(t, m.PutState("a", []byte("1")))
	require.NoError(t, m.DelState("a"))

	// A reader that saw the key absent before it ever existed recorded
	// version 0; the tombstone is at version 2, so the commit conflicts.
	err := m.CommitBatch(map[string]uint64{"a": 0}, nil)
	require.ErrorIs(t, err, ErrConflict)
}
