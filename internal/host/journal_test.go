package host

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flynet/internal/identity"
	"github.com/roach88/flynet/internal/state"
)

func TestMemoryJournal(t *testing.T) {
	j := NewMemoryJournal()

	entries, err := j.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	args := []string{"EC001", "10"}
	require.NoError(t, j.Append(Entry{Seq: 1, TxID: "t1", SubmitID: "s1", Org: "Org3MSP", Op: "ReserveSeats", Args: args}))

	// Mutating the caller's slice must not leak into the journal.
	args[0] = "mutated"

	entries, err = j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"EC001", "10"}, entries[0].Args)
}

func TestSQLiteJournal(t *testing.T) {
	s, err := state.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	j, err := NewSQLiteJournal(s.DB())
	require.NoError(t, err)

	require.NoError(t, j.Append(Entry{Seq: 1, TxID: "t1", SubmitID: "s1", Org: "Org1MSP", Op: "InitLedger", Args: []string{}}))
	require.NoError(t, j.Append(Entry{Seq: 2, TxID: "t2", SubmitID: "s2", Org: "Org3MSP", Op: "ReserveSeats", Args: []string{"EC001", "10"}}))

	// Re-appending an existing seq is a no-op.
	require.NoError(t, j.Append(Entry{Seq: 2, TxID: "other", SubmitID: "other", Org: "X", Op: "Y", Args: []string{}}))

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, "InitLedger", entries[0].Op)
	assert.Equal(t, "t2", entries[1].TxID)
	assert.Equal(t, []string{"EC001", "10"}, entries[1].Args)
}

func TestLedgerOverSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	open := func() (*Ledger, *state.SQLiteState, *SQLiteJournal) {
		s, err := state.OpenSQLite(path)
		require.NoError(t, err)
		j, err := NewSQLiteJournal(s.DB())
		require.NoError(t, err)
		ledger, err := NewLedger(s, j, identity.DefaultNetwork())
		require.NoError(t, err)
		return ledger, s, j
	}

	ledger, s, _ := open()
	require.NoError(t, submit(t, ledger, "Org1MSP", "InitLedger"))
	require.NoError(t, submit(t, ledger, "Org3MSP", "ReserveSeats", "EC001", "10"))
	require.NoError(t, s.Close())

	// Everything survives a reopen: state, journal, and the sequence.
	ledger, s, j := open()
	defer s.Close()
	require.NoError(t, submit(t, ledger, "Org1MSP", "SettleReservations", "EC001"))

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[2].Seq)

	report, err := VerifyDeterminism(j, identity.DefaultNetwork(), s)
	require.NoError(t, err)
	assert.True(t, report.Deterministic)
	assert.True(t, report.MatchesStore)
}
