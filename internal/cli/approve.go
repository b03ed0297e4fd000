package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bloodledger/internal/donation/authz"
	"bloodledger/internal/donation/models"
)

// ApproveOptions holds flags for the approve command.
type ApproveOptions struct {
	*RootOptions
	Identity string
	TTL      time.Duration
	Raw      bool
}

type approveResult struct {
	Identity  models.Identity `json:"identity"`
	Token     string          `json:"token"`
	ExpiresIn string          `json:"expires_in"`
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApproveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Sign an approval token for an identity",
		Long: `Sign an approval token with the configured APPROVAL_SIGNING_KEY. Pass the
token to register or transfer with --approval. Intended for local hosts; real
parties sign in their own wallet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			identity, err := models.ParseIdentity(opts.Identity)
			if err != nil {
				return commandError("invalid --identity", err)
			}
			cfg, _, err := loadConfig(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			ttl := opts.TTL
			if ttl <= 0 {
				ttl = cfg.Approval.TTL
			}

			signer := authz.NewSigner(cfg.Approval.SigningKey, cfg.Approval.Issuer, cfg.Approval.Audience)
			token, err := signer.Sign(identity, ttl)
			if err != nil {
				return commandError("sign approval", err)
			}
			if opts.Raw {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), Response{
				Status: "ok",
				Data:   approveResult{Identity: identity, Token: token, ExpiresIn: ttl.String()},
			})
		},
	}

	cmd.Flags().StringVar(&opts.Identity, "identity", "", "identity that approves the call")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (defaults to APPROVAL_TTL)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print only the token")
	_ = cmd.MarkFlagRequired("identity")

	return cmd
}
