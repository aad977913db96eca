package cli

import (
	"log/slog"

	"github.com/roach88/flynet/internal/host"
	"github.com/roach88/flynet/internal/identity"
	"github.com/roach88/flynet/internal/state"
)

// openLedger wires a SQLite-backed ledger from command flags: world
// state and journal share one database file, the network config comes
// from --network or the compiled-in default.
func openLedger(dbPath, networkPath string) (*host.Ledger, *state.SQLiteState, *host.SQLiteJournal, error) {
	network := identity.DefaultNetwork()
	if networkPath != "" {
		loaded, err := identity.LoadNetwork(networkPath)
		if err != nil {
			return nil, nil, nil, WrapExitError(ExitCommandError, "failed to load network config", err)
		}
		network = loaded
	}

	st, err := state.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open ledger database", err)
	}

	journal, err := host.NewSQLiteJournal(st.DB())
	if err != nil {
		st.Close()
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}

	ledger, err := host.NewLedger(st, journal, network, host.WithLogger(slog.Default()))
	if err != nil {
		st.Close()
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return ledger, st, journal, nil
}
