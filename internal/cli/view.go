package cli

import (
	"context"

	"github.com/spf13/cobra"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/service"
)

// ViewOptions holds flags for the view command.
type ViewOptions struct {
	*RootOptions
	ID          string
	Placeholder bool
}

type viewResult struct {
	Found  bool                   `json:"found"`
	Record *models.DonationRecord `json:"record,omitempty"`
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a donation record",
		Long: `Show a donation record. Unknown ids print found=false; with --placeholder
they print the id-0 record older clients expect instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := models.ParseDonationID(opts.ID)
			if err != nil {
				return commandError("invalid --id", err)
			}
			return runCall(cmd, opts.RootOptions, nil, func(ctx context.Context, r *service.Registry) (any, error) {
				if opts.Placeholder {
					record, err := r.ViewRecordOrPlaceholder(ctx, id)
					if err != nil {
						return nil, err
					}
					return viewResult{Found: !record.IsPlaceholder(), Record: &record}, nil
				}
				record, found, err := r.ViewRecord(ctx, id)
				if err != nil {
					return nil, err
				}
				return viewResult{Found: found, Record: record}, nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "donation id")
	cmd.Flags().BoolVar(&opts.Placeholder, "placeholder", false, "print the placeholder record for unknown ids")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate donation counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCall(cmd, rootOpts, nil, func(ctx context.Context, r *service.Registry) (any, error) {
				return r.ViewStats(ctx)
			})
		},
	}
}
