package state

import "fmt"

// Tx is the per-invocation view of the world state. All reads are
// version-tracked against the backing store and all writes are buffered
// locally; nothing touches the store until Commit. A failed invocation
// simply discards the Tx, so partial writes cannot exist.
//
// Read-your-writes applies to GetState. Range scans deliberately read the
// committed store only (a scan never observes the invocation's own
// buffered writes), matching the execution model the contract is written
// against.
type Tx struct {
	base      VersionedState
	reads     map[string]uint64
	writes    map[string]Write
	committed bool
}

// NewTx opens a buffered transaction view over a versioned store.
func NewTx(base VersionedState) *Tx {
	return &Tx{
		base:   base,
		reads:  make(map[string]uint64),
		writes: make(map[string]Write),
	}
}

// GetState returns the buffered value if the invocation wrote the key,
// otherwise reads the backing store and records the observed version.
func (tx *Tx) GetState(key string) ([]byte, error) {
	if w, ok := tx.writes[key]; ok {
		if w.Delete {
			return nil, nil
		}
		return w.Value, nil
	}

	if err := tx.recordRead(key); err != nil {
		return nil, err
	}
	return tx.base.GetState(key)
}

// PutState buffers a write. Visible to later GetState calls in the same
// invocation, invisible to the store until Commit.
func (tx *Tx) PutState(key string, value []byte) error {
	tx.writes[key] = Write{Key: key, Value: value}
	return nil
}

// DelState buffers a delete.
func (tx *Tx) DelState(key string) error {
	tx.writes[key] = Write{Key: key, Delete: true}
	return nil
}

// GetStateByRange scans the committed store, recording the version of
// every yielded key so a concurrent rewrite of any scanned record
// conflicts the commit.
func (tx *Tx) GetStateByRange(startKey, endKey string) (Iterator, error) {
	it, err := tx.base.GetStateByRange(startKey, endKey)
	if err != nil {
		return nil, err
	}
	return &trackingIterator{tx: tx, inner: it}, nil
}

// Commit atomically applies all buffered writes, provided every key read
// during the invocation is still at its observed version. Returns
// ErrConflict otherwise; the caller retries the whole invocation.
func (tx *Tx) Commit() error {
	if tx.committed {
		return fmt.Errorf("state: transaction already committed")
	}

	writes := make([]Write, 0, len(tx.writes))
	for _, w := range tx.writes {
		writes = append(writes, w)
	}
	if err := tx.base.CommitBatch(tx.reads, writes); err != nil {
		return err
	}
	tx.committed = true
	return nil
}

func (tx *Tx) recordRead(key string) error {
	if _, ok := tx.reads[key]; ok {
		return nil
	}
	v, err := tx.base.StateVersion(key)
	if err != nil {
		return err
	}
	tx.reads[key] = v
	return nil
}

type trackingIterator struct {
	tx    *Tx
	inner Iterator
}

func (it *trackingIterator) Next() (*KV, error) {
	kv, err := it.inner.Next()
	if err != nil || kv == nil {
		return kv, err
	}
	if err := it.tx.recordRead(kv.Key); err != nil {
		return nil, err
	}
	return kv, nil
}

func (it *trackingIterator) Close() error { return it.inner.Close() }
