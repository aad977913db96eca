package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flynet/internal/host"
	"github.com/roach88/flynet/internal/identity"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Network  string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the transaction journal and verify determinism",
		Long: `Re-execute the journal from genesis on a fresh world state, twice,
and compare the resulting state hashes with each other and with the
live store.

Exit codes:
  0 - replays agree and reproduce the live state
  1 - divergence detected
  2 - command error (database not found, etc.)

Examples:
  flynet replay --db ./flynet.db
  flynet replay --db ./flynet.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to ledger database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Network, "network", "", "path to network config YAML (default: built-in network)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	network := identity.DefaultNetwork()
	if opts.Network != "" {
		loaded, err := identity.LoadNetwork(opts.Network)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load network config", err)
		}
		network = loaded
	}

	_, st, journal, err := openLedger(opts.Database, opts.Network)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := host.VerifyDeterminism(journal, network, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		if err := out.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "transactions:  %d\n", report.Transactions)
		fmt.Fprintf(cmd.OutOrStdout(), "replay hash:   %s\n", report.ReplayHash)
		fmt.Fprintf(cmd.OutOrStdout(), "live hash:     %s\n", report.LiveHash)
		fmt.Fprintf(cmd.OutOrStdout(), "deterministic: %v\n", report.Deterministic)
		fmt.Fprintf(cmd.OutOrStdout(), "matches store: %v\n", report.MatchesStore)
	}

	if !report.Deterministic || !report.MatchesStore {
		return NewExitError(ExitFailure, "replay diverged from live state")
	}
	return nil
}
