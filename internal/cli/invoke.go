package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/flynet/internal/contract"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	Network  string
	As       string
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	names := contract.Operations()
	sort.Strings(names)

	cmd := &cobra.Command{
		Use:   "invoke <operation> [args...]",
		Short: "Submit an invocation to the ledger",
		Long: `Submit an invocation as the given organization.

Operations: ` + strings.Join(names, ", ") + `

Examples:
  flynet invoke CreateFlight BUD TXL 05032021-1034 100 --db ./flynet.db --as Org1MSP
  flynet invoke ReserveSeats EC001 60 --db ./flynet.db --as Org3MSP
  flynet invoke SettleReservations EC001 --db ./flynet.db --as Org1MSP
  flynet invoke ListFlights --db ./flynet.db --as Org3MSP`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, cmd, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to ledger database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Network, "network", "", "path to network config YAML (default: built-in network)")
	cmd.Flags().StringVar(&opts.As, "as", "", "submitting organization (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func runInvoke(opts *InvokeOptions, cmd *cobra.Command, op string, args []string) error {
	ledger, st, _, err := openLedger(opts.Database, opts.Network)
	if err != nil {
		return err
	}
	defer st.Close()

	payload, err := ledger.Submit(opts.As, op, args)
	if err != nil {
		if code := contract.CodeOf(err); code != "" {
			return WrapExitError(ExitFailure, string(code), err)
		}
		return WrapExitError(ExitCommandError, "invocation failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Payload(payload)
}
