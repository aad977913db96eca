package host

import (
	"fmt"

	"github.com/roach88/flynet/internal/canonical"
	"github.com/roach88/flynet/internal/contract"
	"github.com/roach88/flynet/internal/identity"
	"github.com/roach88/flynet/internal/state"
)

// ReplayResult summarizes one replay of a journal from genesis.
type ReplayResult struct {
	Transactions int    `json:"transactions"`
	StateHash    string `json:"state_hash"`
}

// Replay re-executes a journal in seq order against a fresh in-memory
// world state and returns the resulting state hash. The journal holds
// only committed transactions, so every entry must succeed; an error
// during replay means the journal and the contract have diverged.
func Replay(journal Journal, network *identity.Network) (*ReplayResult, error) {
	entries, err := journal.Entries()
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	ws := state.NewMemoryState()
	c := contract.New(network)

	for _, e := range entries {
		tx := state.NewTx(ws)
		tc := contract.NewTransactionContext(tx, network, e.Org)
		if _, err := c.Invoke(tc, e.Op, e.Args); err != nil {
			return nil, fmt.Errorf("replay: tx %d (%s) failed: %w", e.Seq, e.Op, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("replay: tx %d (%s) commit: %w", e.Seq, e.Op, err)
		}
	}

	hash, err := StateHash(ws)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return &ReplayResult{Transactions: len(entries), StateHash: hash}, nil
}

// StateHash computes the domain-separated hash of an entire world state.
func StateHash(ws state.WorldState) (string, error) {
	it, err := ws.GetStateByRange("", "")
	if err != nil {
		return "", fmt.Errorf("state hash: %w", err)
	}
	defer it.Close()

	var pairs []canonical.StatePair
	for {
		kv, err := it.Next()
		if err != nil {
			return "", fmt.Errorf("state hash: %w", err)
		}
		if kv == nil {
			break
		}
		pairs = append(pairs, canonical.StatePair{Key: kv.Key, Value: string(kv.Value)})
	}
	return canonical.StateHash(pairs)
}

// Report is the outcome of a determinism verification.
type Report struct {
	Transactions  int    `json:"transactions"`
	LiveHash      string `json:"live_hash"`
	ReplayHash    string `json:"replay_hash"`
	Deterministic bool   `json:"deterministic"`
	MatchesStore  bool   `json:"matches_store"`
}

// VerifyDeterminism replays the journal twice and compares the hashes
// with each other and with the live store. Deterministic means the two
// replays agree; MatchesStore means they also reproduce the live state.
func VerifyDeterminism(journal Journal, network *identity.Network, live state.WorldState) (*Report, error) {
	first, err := Replay(journal, network)
	if err != nil {
		return nil, err
	}
	second, err := Replay(journal, network)
	if err != nil {
		return nil, err
	}

	liveHash, err := StateHash(live)
	if err != nil {
		return nil, err
	}

	return &Report{
		Transactions:  first.Transactions,
		LiveHash:      liveHash,
		ReplayHash:    first.StateHash,
		Deterministic: first.StateHash == second.StateHash,
		MatchesStore:  first.StateHash == liveHash,
	}, nil
}
