package state

import (
	"sort"
	"sync"
)

type memEntry struct {
	value   []byte
	version uint64
}

// MemoryState is an in-memory VersionedState. Used by tests, the
// conformance harness, and journal replay. Safe for concurrent use.
type MemoryState struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

// NewMemoryState creates an empty in-memory world state.
func NewMemoryState() *MemoryState {
	return &MemoryState{entries: make(map[string]memEntry)}
}

// GetState returns the value for a key, or nil if absent.
func (m *MemoryState) GetState(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || e.value == nil {
		return nil, nil
	}
	// Copy so callers cannot mutate stored bytes.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// PutState stores a value and bumps the key's version.
func (m *MemoryState) PutState(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, value)
	return nil
}

// DelState removes a key. Deleting an absent key is a no-op.
func (m *MemoryState) DelState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.del(key)
	return nil
}

// put and del assume the write lock is held.
// Deleted keys keep their version counter so a delete+recreate is
// visible to conflict detection.
func (m *MemoryState) put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = memEntry{value: stored, version: m.entries[key].version + 1}
}

func (m *MemoryState) del(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	m.entries[key] = memEntry{value: nil, version: e.version + 1}
}

// GetStateByRange returns a snapshot iterator over [startKey, endKey)
// in ascending key order. Empty bounds are unbounded.
func (m *MemoryState) GetStateByRange(startKey, endKey string) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if e.value == nil {
			continue // tombstone
		}
		if startKey != "" && k < startKey {
			continue
		}
		if endKey != "" && k >= endKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]*KV, len(keys))
	for i, k := range keys {
		v := make([]byte, len(m.entries[k].value))
		copy(v, m.entries[k].value)
		kvs[i] = &KV{Key: k, Value: v}
	}
	return &sliceIterator{kvs: kvs}, nil
}

// StateVersion returns the version of a key, 0 if never written.
// Tombstoned keys report their version so conflict checks see deletes.
func (m *MemoryState) StateVersion(key string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return 0, nil
	}
	return e.version, nil
}

// CommitBatch implements VersionedState. The whole batch applies under
// one lock, so readers never observe a partial invocation.
func (m *MemoryState) CommitBatch(reads map[string]uint64, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, version := range reads {
		e, ok := m.entries[key]
		current := uint64(0)
		if ok {
			current = e.version
		}
		if current != version {
			return ErrConflict
		}
	}

	sort.Slice(writes, func(i, j int) bool { return writes[i].Key < writes[j].Key })
	for _, w := range writes {
		if w.Delete {
			m.del(w.Key)
		} else {
			m.put(w.Key, w.Value)
		}
	}
	return nil
}

type sliceIterator struct {
	kvs []*KV
	pos int
}

func (it *sliceIterator) Next() (*KV, error) {
	if it.pos >= len(it.kvs) {
		return nil, nil
	}
	kv := it.kvs[it.pos]
	it.pos++
	return kv, nil
}

func (it *sliceIterator) Close() error { return nil }
