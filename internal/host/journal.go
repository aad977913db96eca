package host

import "sync"

// Entry is one committed transaction in the journal. The journal records
// the agreed inputs only - replaying the entries in seq order against an
// empty world state reproduces the ledger byte for byte.
type Entry struct {
	// Seq is the position assigned at commit. Gapless, starting at 1.
	Seq int64

	// TxID is the content-addressed transaction id, derived from
	// (seq, org, op, args). Identical on every replica.
	TxID string

	// SubmitID is the platform-assigned correlation id for this
	// submission. Random by design and excluded from all hashing.
	SubmitID string

	Org  string
	Op   string
	Args []string
}

// Journal is an append-only log of committed transactions.
type Journal interface {
	Append(e Entry) error
	Entries() ([]Entry, error)
}

// MemoryJournal is an in-memory Journal for tests and the conformance
// harness. Safe for concurrent use.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append adds an entry to the log.
func (j *MemoryJournal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	args := make([]string, len(e.Args))
	copy(args, e.Args)
	e.Args = args
	j.entries = append(j.entries, e)
	return nil
}

// Entries returns all entries in append order.
func (j *MemoryJournal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out, nil
}
