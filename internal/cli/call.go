package cli

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bloodledger/internal/donation/service"
	"bloodledger/internal/platform/config"
	"bloodledger/internal/platform/logger"
	"bloodledger/pkg/platform/strings"
	"bloodledger/pkg/requestcontext"
)

// callFunc performs registry calls and returns the payload to print.
type callFunc func(ctx context.Context, registry *service.Registry) (any, error)

// loadConfig resolves configuration and a logger that writes to stderr, keeping
// stdout for the JSON response.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, *slog.Logger, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return config.Config{}, nil, commandError("load configuration", err)
	}
	return cfg, logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat), nil
}

// callContext attaches the request id, pinned ledger time and approvals.
func callContext(ctx context.Context, opts *RootOptions, approvals []string) context.Context {
	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = requestcontext.WithRequestID(ctx, requestID)
	if opts.LedgerTime > 0 {
		ctx = requestcontext.WithLedgerTime(ctx, opts.LedgerTime)
	}
	if approvals = strings.Compact(approvals); len(approvals) > 0 {
		ctx = requestcontext.WithApprovals(ctx, approvals...)
	}
	return ctx
}

// runCall opens a host, runs call and prints the envelope. An aborted call is
// printed as an error envelope and exits with ExitAborted.
func runCall(cmd *cobra.Command, opts *RootOptions, approvals []string, call callFunc) error {
	cfg, log, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	ctx := callContext(cmd.Context(), opts, approvals)

	h, err := openHost(ctx, cfg, log)
	if err != nil {
		return commandError("open ledger host", err)
	}
	defer h.Close()

	data, callErr := call(ctx, h.registry)

	resp := Response{Status: "ok", Data: data, RequestID: requestcontext.RequestID(ctx)}
	if h.trail != nil {
		events, err := h.trail.ListAll(ctx)
		if err == nil {
			resp.Audit = toAuditRecords(events)
		}
	}
	if callErr != nil {
		resp.Status = "error"
		resp.Data = nil
		resp.Error = errorBody(callErr)
	}
	if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
		return commandError("write response", err)
	}
	if callErr != nil {
		return &ExitError{Code: ExitAborted, Message: "call aborted", Err: callErr}
	}
	return nil
}
