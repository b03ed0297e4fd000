package cli

import (
	"context"

	"github.com/spf13/cobra"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/service"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Donor     string
	BloodType string
	Temp      int32
	Approvals []string
}

type registerResult struct {
	ID models.DonationID `json:"id"`
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a newly collected donation",
		Long: `Register a newly collected donation and print its id.

The donor must approve the call:
  ledger register --donor GDONOR --blood-type O+ --temp 4 \
    --approval "$(ledger approve --identity GDONOR --raw)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			donor, err := models.ParseIdentity(opts.Donor)
			if err != nil {
				return commandError("invalid --donor", err)
			}
			bloodType := models.BloodType(opts.BloodType)
			return runCall(cmd, opts.RootOptions, opts.Approvals, func(ctx context.Context, r *service.Registry) (any, error) {
				id, err := r.Register(ctx, donor, bloodType, opts.Temp)
				if err != nil {
					return nil, err
				}
				return registerResult{ID: id}, nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Donor, "donor", "", "donor identity")
	cmd.Flags().StringVar(&opts.BloodType, "blood-type", "", "blood type, stored verbatim (e.g. O+)")
	cmd.Flags().Int32Var(&opts.Temp, "temp", 0, "storage temperature at collection in °C")
	cmd.Flags().StringSliceVar(&opts.Approvals, "approval", nil, "signed approval token (repeatable)")
	_ = cmd.MarkFlagRequired("donor")
	_ = cmd.MarkFlagRequired("temp")

	return cmd
}
