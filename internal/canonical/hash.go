package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed hashing.
// The version suffix enables future algorithm migration.
const (
	DomainState       = "flynet/state/v1"
	DomainTransaction = "flynet/tx/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain || 0x00 || data). The null byte prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash computes the hash of an entire world state from its key/value
// pairs. Pairs must be supplied in ascending key order; the hash covers a
// canonical object mapping each key to its stored value bytes, so two
// states with identical contents hash identically regardless of how they
// were produced.
func StateHash(pairs []StatePair) (string, error) {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = String(p.Value)
	}
	data, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("state hash: %w", err)
	}
	return HashWithDomain(DomainState, data), nil
}

// StatePair is one key/value entry of a world state snapshot.
type StatePair struct {
	Key   string
	Value string
}

// TransactionID computes the content-addressed id of a committed
// transaction from its agreed inputs. Stable across replicas and replays.
func TransactionID(seq int64, org, op string, args []string) (string, error) {
	argVals := make(Array, len(args))
	for i, a := range args {
		argVals[i] = String(a)
	}
	obj := Object{
		"seq":  Int(seq),
		"org":  String(org),
		"op":   String(op),
		"args": argVals,
	}
	data, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("transaction id: %w", err)
	}
	return HashWithDomain(DomainTransaction, data), nil
}
