// Package requestcontext provides transport-independent context accessors for
// call-scoped values set by the host shim and read by the registry.
//
// Usage in the host (set values):
//
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//	ctx = requestcontext.WithLedgerTime(ctx, ts)
//	ctx = requestcontext.WithApprovals(ctx, token)
//
// Usage in services and adapters (read values):
//
//	ts, ok := requestcontext.LedgerTime(ctx)
//	tokens := requestcontext.Approvals(ctx)
package requestcontext

import "context"

type (
	requestIDKey  struct{}
	ledgerTimeKey struct{}
	approvalsKey  struct{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// LedgerTime retrieves the host-pinned ledger timestamp for this call.
// Every read within one call must see the same value.
func LedgerTime(ctx context.Context) (uint64, bool) {
	ts, ok := ctx.Value(ledgerTimeKey{}).(uint64)
	return ts, ok
}

// WithLedgerTime pins the ledger timestamp for the call.
// Useful for tests and for replaying calls with a known timestamp.
func WithLedgerTime(ctx context.Context, ts uint64) context.Context {
	return context.WithValue(ctx, ledgerTimeKey{}, ts)
}

// Approvals returns the signed approval tokens attached to the call.
func Approvals(ctx context.Context) []string {
	if tokens, ok := ctx.Value(approvalsKey{}).([]string); ok {
		return tokens
	}
	return nil
}

// WithApprovals appends signed approval tokens to the call.
func WithApprovals(ctx context.Context, tokens ...string) context.Context {
	existing := Approvals(ctx)
	merged := make([]string, 0, len(existing)+len(tokens))
	merged = append(merged, existing...)
	merged = append(merged, tokens...)
	return context.WithValue(ctx, approvalsKey{}, merged)
}
