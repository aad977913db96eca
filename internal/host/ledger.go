// Package host is the reference submission layer around the contract.
// The contract itself assumes the platform already agreed on transaction
// order and provides per-invocation atomicity; this package is that
// platform in miniature: a single-writer ledger that runs each
// invocation against a buffered state view, commits all of its writes
// atomically or none, retries on optimistic-concurrency conflicts, and
// journals every committed transaction for deterministic replay.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/flynet/internal/canonical"
	"github.com/roach88/flynet/internal/contract"
	"github.com/roach88/flynet/internal/identity"
	"github.com/roach88/flynet/internal/state"
)

// maxCommitRetries bounds re-execution of an invocation whose read set
// went stale. With the in-process single-writer lock conflicts only
// occur when another process shares the store file.
const maxCommitRetries = 5

// Ledger serializes invocations against a world state.
//
// Thread-safety: Submit may be called from any goroutine; invocations
// are executed one at a time under the ledger's writer lock.
type Ledger struct {
	mu       sync.Mutex
	base     state.VersionedState
	journal  Journal
	contract *contract.Contract
	network  *identity.Network
	logger   *slog.Logger
	seq      int64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// NewLedger creates a ledger over a versioned store and journal.
// The commit sequence resumes after the journal's last entry.
func NewLedger(base state.VersionedState, journal Journal, network *identity.Network, opts ...Option) (*Ledger, error) {
	entries, err := journal.Entries()
	if err != nil {
		return nil, fmt.Errorf("new ledger: %w", err)
	}

	var seq int64
	if len(entries) > 0 {
		seq = entries[len(entries)-1].Seq
	}

	l := &Ledger{
		base:     base,
		journal:  journal,
		contract: contract.New(network),
		network:  network,
		logger:   slog.Default(),
		seq:      seq,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Submit runs one invocation to completion. On success every buffered
// write is committed atomically and the transaction is journaled; on
// failure nothing is persisted and the contract error is returned
// verbatim. Stale read sets retry the whole invocation from scratch.
func (l *Ledger) Submit(org, op string, args []string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	submitID := uuid.NewString()
	logger := l.logger.With("submit_id", submitID, "org", org, "op", op)

	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		tx := state.NewTx(l.base)
		tc := contract.NewTransactionContext(tx, l.network, org)

		payload, err := l.contract.Invoke(tc, op, args)
		if err != nil {
			logger.Warn("invocation failed", "code", contract.CodeOf(err), "error", err)
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			if errors.Is(err, state.ErrConflict) {
				logger.Info("commit conflict, retrying", "attempt", attempt+1)
				continue
			}
			return nil, fmt.Errorf("submit %s: %w", op, err)
		}

		seq := l.seq + 1
		txID, err := canonical.TransactionID(seq, org, op, args)
		if err != nil {
			return nil, fmt.Errorf("submit %s: %w", op, err)
		}
		if err := l.journal.Append(Entry{
			Seq:      seq,
			TxID:     txID,
			SubmitID: submitID,
			Org:      org,
			Op:       op,
			Args:     args,
		}); err != nil {
			return nil, fmt.Errorf("submit %s: %w", op, err)
		}
		l.seq = seq

		logger.Info("transaction committed", "seq", seq, "tx_id", txID)
		return payload, nil
	}

	return nil, fmt.Errorf("submit %s: gave up after %d conflicted attempts", op, maxCommitRetries)
}

// Query runs a read-only invocation without committing or journaling
// anything. Writes issued by the operation are discarded.
func (l *Ledger) Query(org, op string, args []string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := state.NewTx(l.base)
	tc := contract.NewTransactionContext(tx, l.network, org)
	return l.contract.Invoke(tc, op, args)
}
