package cli

import (
	"context"

	"github.com/spf13/cobra"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/service"
)

// TransferOptions holds flags for the transfer command.
type TransferOptions struct {
	*RootOptions
	ID        string
	Recipient string
	Approvals []string
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Deliver a donation to a recipient",
		Long: `Deliver an active donation to a recipient. The recipient must approve the
call; contaminated or already delivered donations are refused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := models.ParseDonationID(opts.ID)
			if err != nil {
				return commandError("invalid --id", err)
			}
			recipient, err := models.ParseIdentity(opts.Recipient)
			if err != nil {
				return commandError("invalid --recipient", err)
			}
			return runCall(cmd, opts.RootOptions, opts.Approvals, func(ctx context.Context, r *service.Registry) (any, error) {
				if err := r.Transfer(ctx, id, recipient); err != nil {
					return nil, err
				}
				record, _, err := r.ViewRecord(ctx, id)
				return record, err
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "donation id")
	cmd.Flags().StringVar(&opts.Recipient, "recipient", "", "recipient identity")
	cmd.Flags().StringSliceVar(&opts.Approvals, "approval", nil, "signed approval token (repeatable)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("recipient")

	return cmd
}
