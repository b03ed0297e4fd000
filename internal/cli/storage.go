package cli

import (
	"context"

	"github.com/spf13/cobra"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/service"
)

// UpdateStorageOptions holds flags for the update-storage command.
type UpdateStorageOptions struct {
	*RootOptions
	ID   string
	Temp int32
}

// NewUpdateStorageCommand creates the update-storage command.
func NewUpdateStorageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateStorageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update-storage",
		Short: "Report a storage temperature reading",
		Long: `Report a storage temperature reading for a donation still in custody.

A reading outside 2..6 °C marks an active donation as contaminated. The call
needs no approval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := models.ParseDonationID(opts.ID)
			if err != nil {
				return commandError("invalid --id", err)
			}
			return runCall(cmd, opts.RootOptions, nil, func(ctx context.Context, r *service.Registry) (any, error) {
				if err := r.UpdateStorage(ctx, id, opts.Temp); err != nil {
					return nil, err
				}
				record, _, err := r.ViewRecord(ctx, id)
				return record, err
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "donation id")
	cmd.Flags().Int32Var(&opts.Temp, "temp", 0, "storage temperature in °C")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("temp")

	return cmd
}
