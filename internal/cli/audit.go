package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/platform/kafka"
	audit "bloodledger/pkg/platform/audit"
	"bloodledger/pkg/platform/audit/consumer"
	"bloodledger/pkg/requestcontext"
)

var errNoDurableTrail = errors.New("the audit trail is only persisted on the postgres backend")

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	ID string
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the persisted audit trail of a donation",
		Long: `Show the audit trail of a donation in ledger order. Requires the postgres
backend; events reach it directly or through 'ledger audit-consume'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := models.ParseDonationID(opts.ID)
			if err != nil {
				return commandError("invalid --id", err)
			}
			cfg, log, err := loadConfig(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			ctx := callContext(cmd.Context(), opts.RootOptions, nil)

			h, err := openHost(ctx, cfg, log)
			if err != nil {
				return commandError("open ledger host", err)
			}
			defer h.Close()
			if h.durable == nil {
				return commandError("read audit trail", errNoDurableTrail)
			}

			events, err := h.durable.ListByDonation(ctx, uint64(id))
			if err != nil {
				return commandError("read audit trail", err)
			}
			resp := Response{Status: "ok", Data: toAuditRecords(events), RequestID: requestcontext.RequestID(ctx)}
			if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
				return commandError("write response", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "donation id")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// NewAuditConsumeCommand creates the audit-consume command.
func NewAuditConsumeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit-consume",
		Short: "Materialize the audit topic into the postgres trail",
		Long: `Consume the audit topic and persist custody and safety events into the
postgres audit trail until interrupted. Safety events are also logged as cold
chain alerts; routine storage readings are only logged at debug level.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, rootOpts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := openHost(ctx, cfg, log)
			if err != nil {
				return commandError("open ledger host", err)
			}
			defer h.Close()
			if h.durable == nil {
				return commandError("start audit consumer", errNoDurableTrail)
			}

			client, err := kafka.NewConsumer(cfg.Kafka)
			if err != nil {
				return commandError("start audit consumer", err)
			}
			if client == nil {
				return commandError("start audit consumer", errors.New("KAFKA_BROKERS is not set"))
			}
			defer client.Close()

			persist := consumer.NewStoreHandler(h.durable)
			router := consumer.NewRouter(log, persist)
			router.Register(audit.CategorySafety, consumer.NewSafetyHandler(persist, log))
			router.Register(audit.CategoryOperations, consumer.NewOpsHandler(log))

			log.InfoContext(ctx, "audit consumer started",
				"topic", cfg.Kafka.AuditTopic,
				"group", cfg.Kafka.ConsumerGroup,
			)
			if err := consumer.New(client, router, log).Run(ctx); err != nil {
				return commandError("consume audit topic", err)
			}
			log.InfoContext(ctx, "audit consumer stopped")
			return nil
		},
	}
}
