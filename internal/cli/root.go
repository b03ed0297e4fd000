// Package cli is the local ledger host: each command loads configuration, opens
// the configured instance storage, runs one registry call and prints the result
// as JSON.
package cli

import (
	"github.com/spf13/cobra"

	"bloodledger/internal/platform/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	RequestID  string
	LedgerTime uint64

	// LoadConfig is swapped out in tests.
	LoadConfig func() (config.Config, error)
}

// NewRootCommand creates the root command for the ledger CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.FromEnv})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Blood donation registry host",
		Long: `Runs blood donation registry calls against the configured instance storage.

Backends are chosen with LEDGER_BACKEND (memory, redis, postgres). Calls that need
a party's approval take signed tokens via --approval; mint one locally with
'ledger approve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.RequestID, "request-id", "", "request id for logs and audit (generated if empty)")
	cmd.PersistentFlags().Uint64Var(&opts.LedgerTime, "ledger-time", 0, "pin the ledger timestamp (unix seconds) for this call")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewUpdateStorageCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewApproveCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewAuditConsumeCommand(opts))
	cmd.AddCommand(NewOpsCommand(opts))

	return cmd
}
