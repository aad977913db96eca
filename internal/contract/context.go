package contract

import (
	"github.com/roach88/flynet/internal/identity"
	"github.com/roach88/flynet/internal/state"
)

// TransactionContext carries everything one invocation may touch: the
// per-invocation world-state view and the resolved caller identity.
// The role is decided exactly once, here, so business logic never
// compares organization strings.
type TransactionContext struct {
	ws      state.WorldState
	mspID   string
	role    identity.Role
	carrier string
}

// NewTransactionContext resolves the caller against the network config
// and binds the invocation's state view.
func NewTransactionContext(ws state.WorldState, network *identity.Network, mspID string) *TransactionContext {
	carrier, _ := network.CarrierCode(mspID)
	return &TransactionContext{
		ws:      ws,
		mspID:   mspID,
		role:    network.Resolve(mspID),
		carrier: carrier,
	}
}

// State returns the invocation's world-state view.
func (tc *TransactionContext) State() state.WorldState { return tc.ws }

// MSPID returns the caller's organization tag.
func (tc *TransactionContext) MSPID() string { return tc.mspID }

// Role returns the caller's resolved role.
func (tc *TransactionContext) Role() identity.Role { return tc.role }

// requireRole fails with UNAUTHORIZED unless the caller holds one of
// the given roles.
func (tc *TransactionContext) requireRole(roles ...identity.Role) error {
	for _, r := range roles {
		if tc.role == r {
			return nil
		}
	}
	return errUnauthorizedf("organization %q (role %s) may not perform this operation", tc.mspID, tc.role)
}
