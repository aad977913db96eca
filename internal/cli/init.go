package cli

import (
	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
	Network  string
	As       string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a ledger and write the seed flight records",
		Long: `Create (or open) a ledger database and submit InitLedger.

Examples:
  flynet init --db ./flynet.db
  flynet init --db ./flynet.db --network ./network.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to ledger database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Network, "network", "", "path to network config YAML (default: built-in network)")
	cmd.Flags().StringVar(&opts.As, "as", "Org1MSP", "submitting organization")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ledger, st, _, err := openLedger(opts.Database, opts.Network)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := ledger.Submit(opts.As, "InitLedger", nil); err != nil {
		return WrapExitError(ExitCommandError, "InitLedger failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success("ledger initialized")
}
