// Package state provides the world-state accessor: a flat, versioned
// key-value namespace the contract reads and writes through. Backends are
// an in-memory store (tests, replay) and a SQLite store (durable ledger).
//
// Atomicity is per invocation, not per call: the host runs every
// invocation against a buffered Tx view and commits all of its writes as
// one unit, or none. Versions exist so the commit can detect that a key
// read during the invocation changed underneath it (optimistic
// concurrency); conflicted invocations are retried by the submission
// layer, never patched up mid-flight.
package state

import "errors"

// ErrConflict is returned by CommitBatch when a key read during the
// invocation has a different version at commit time.
var ErrConflict = errors.New("state: read-set version conflict")

// KV is one key/value entry yielded by a range scan.
type KV struct {
	Key   string
	Value []byte
}

// Iterator walks range-scan results in the store's native key order.
// It is not restartable; a fresh scan re-reads from the store.
type Iterator interface {
	// Next returns the next entry, or nil when the scan is exhausted.
	Next() (*KV, error)
	Close() error
}

// WorldState is the key-value surface exposed to contract code.
// GetState returns a nil value (and nil error) for an absent key.
// An empty startKey/endKey pair denotes an unbounded scan of the whole
// namespace; endKey is exclusive.
type WorldState interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	DelState(key string) error
	GetStateByRange(startKey, endKey string) (Iterator, error)
}

// Write is one buffered mutation applied at commit time.
// A Delete write removes the key; Value is ignored for deletes.
type Write struct {
	Key    string
	Value  []byte
	Delete bool
}

// VersionedState is a WorldState backend that tracks a monotonically
// increasing version per key, enabling optimistic-concurrency commits.
type VersionedState interface {
	WorldState

	// StateVersion returns the current version of a key, 0 if absent.
	StateVersion(key string) (uint64, error)

	// CommitBatch atomically applies writes if and only if every entry
	// of reads still has the recorded version. Returns ErrConflict
	// (and applies nothing) otherwise. Writes are applied in ascending
	// key order.
	CommitBatch(reads map[string]uint64, writes []Write) error
}
