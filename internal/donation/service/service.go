package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bloodledger/internal/donation/metrics"
	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	dErrors "bloodledger/pkg/domain-errors"
	"bloodledger/pkg/platform/audit"
	"bloodledger/pkg/platform/sentinel"
	"bloodledger/pkg/requestcontext"
)

const (
	opRegister      = "register"
	opUpdateStorage = "update_storage"
	opTransfer      = "transfer"
)

// Registry is the donation registry: it creates donation records and drives
// them through the Active -> Contaminated | Delivered lifecycle, keeping the
// aggregate stats in step inside the same ledger transaction.
type Registry struct {
	ledger         ports.Ledger
	authorizer     ports.Authorizer
	clock          ports.Clock
	retention      models.RetentionPolicy
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(r *Registry) {
		r.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithRetention overrides the TTL hint sent on every mutating call.
func WithRetention(policy models.RetentionPolicy) Option {
	return func(r *Registry) {
		r.retention = policy
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// New constructs a Registry. The ledger, authorizer and clock are required.
func New(ledger ports.Ledger, authorizer ports.Authorizer, clock ports.Clock, opts ...Option) (*Registry, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	r := &Registry{
		ledger:     ledger,
		authorizer: authorizer,
		clock:      clock,
		retention:  models.DefaultRetention(),
		logger:     slog.Default(),
		tracer:     otel.Tracer("bloodledger/donation"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Register records a newly collected unit for donor and returns its id.
// The donor must have approved the call. Ids start at 1 and are never reused.
func (r *Registry) Register(ctx context.Context, donor models.Identity, bloodType models.BloodType, temp int32) (_ models.DonationID, err error) {
	ctx, span := r.tracer.Start(ctx, "donation.Register")
	start := time.Now()
	defer func() { r.finish(ctx, span, opRegister, start, err) }()

	if err := r.requireAuth(ctx, donor); err != nil {
		return 0, err
	}
	now := r.clock.Now(ctx)

	var record *models.DonationRecord
	var stats models.DonationStats
	err = r.ledger.RunInTx(ctx, func(store ports.Store) error {
		count, err := store.LoadCounter(ctx)
		if err != nil {
			return err
		}
		if count == math.MaxUint64 {
			return dErrors.New(dErrors.CodeInvariantViolation, "donation id space exhausted")
		}
		record, err = models.NewDonationRecord(count+1, donor, bloodType, temp, now)
		if err != nil {
			return err
		}
		stats, err = store.LoadStats(ctx)
		if err != nil {
			return err
		}
		stats.RecordRegistered()

		if err := store.SaveRecord(ctx, record); err != nil {
			return err
		}
		if err := store.SaveCounter(ctx, record.ID); err != nil {
			return err
		}
		if err := store.SaveStats(ctx, stats); err != nil {
			return err
		}
		return store.ExtendRetention(ctx, r.retention, now)
	})
	if err != nil {
		return 0, translateLedgerError(err, "failed to register donation")
	}

	span.SetAttributes(attribute.Int64("donation.id", int64(record.ID)))
	r.logger.InfoContext(ctx, "blood donation registered",
		"donation_id", record.ID,
		"blood_type", record.BloodType,
		"request_id", requestcontext.RequestID(ctx),
	)
	if r.metrics != nil {
		r.metrics.IncRegistered(record.BloodType)
		r.metrics.SetStats(stats)
	}
	r.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventDonationRegistered),
		LedgerTime: now,
		DonationID: uint64(record.ID),
		Subject:    donor.String(),
		Detail:     fmt.Sprintf("blood_type=%s temp=%d", record.BloodType, temp),
	})
	return record.ID, nil
}

// UpdateStorage records a storage temperature reading for a unit still in
// custody. A reading outside the cold-chain range contaminates an Active unit
// exactly once; repeated out-of-range readings are not counted again. The
// reading is always stored.
//
// No approval is checked: any caller can report a reading and so trigger
// contamination. This is kept as-is until a custodian role is defined.
func (r *Registry) UpdateStorage(ctx context.Context, id models.DonationID, temp int32) (err error) {
	ctx, span := r.tracer.Start(ctx, "donation.UpdateStorage",
		trace.WithAttributes(attribute.Int64("donation.id", int64(id))))
	start := time.Now()
	defer func() { r.finish(ctx, span, opUpdateStorage, start, err) }()

	now := r.clock.Now(ctx)

	var contaminated bool
	var stats models.DonationStats
	err = r.ledger.RunInTx(ctx, func(store ports.Store) error {
		record, err := r.findRecord(ctx, store, id)
		if err != nil {
			return err
		}
		if err := record.CanUpdateStorage(); err != nil {
			return err
		}

		contaminated = record.ApplyTemperature(temp)
		if contaminated {
			stats, err = store.LoadStats(ctx)
			if err != nil {
				return err
			}
			if err := stats.RecordContaminated(); err != nil {
				return err
			}
			if err := store.SaveStats(ctx, stats); err != nil {
				return err
			}
		}

		if err := store.SaveRecord(ctx, record); err != nil {
			return err
		}
		return store.ExtendRetention(ctx, r.retention, now)
	})
	if err != nil {
		if dErrors.Is(err, models.ErrAlreadyDelivered) {
			r.logger.WarnContext(ctx, "cannot update - donation already delivered", "donation_id", id)
		}
		return translateLedgerError(err, "failed to update storage condition")
	}

	detail := fmt.Sprintf("temp=%d", temp)
	r.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventStorageUpdated),
		LedgerTime: now,
		DonationID: uint64(id),
		Detail:     detail,
	})
	if !contaminated {
		return nil
	}

	r.logger.WarnContext(ctx, "donation marked as contaminated due to improper temperature",
		"donation_id", id,
		"storage_temp", temp,
		"safe_min", models.ColdChain.Min,
		"safe_max", models.ColdChain.Max,
	)
	if r.metrics != nil {
		r.metrics.IncContaminated()
		r.metrics.SetStats(stats)
	}
	r.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventDonationContaminated),
		LedgerTime: now,
		DonationID: uint64(id),
		Detail:     detail,
	})
	return nil
}

// Transfer delivers an Active unit to recipient, who must have approved the
// call. Contaminated and already-delivered units are refused.
func (r *Registry) Transfer(ctx context.Context, id models.DonationID, recipient models.Identity) (err error) {
	ctx, span := r.tracer.Start(ctx, "donation.Transfer",
		trace.WithAttributes(attribute.Int64("donation.id", int64(id))))
	start := time.Now()
	defer func() { r.finish(ctx, span, opTransfer, start, err) }()

	if err := r.requireAuth(ctx, recipient); err != nil {
		return err
	}
	now := r.clock.Now(ctx)

	var stats models.DonationStats
	err = r.ledger.RunInTx(ctx, func(store ports.Store) error {
		record, err := r.findRecord(ctx, store, id)
		if err != nil {
			return err
		}
		if err := record.CanTransfer(); err != nil {
			return err
		}
		record.ApplyTransfer(recipient)

		stats, err = store.LoadStats(ctx)
		if err != nil {
			return err
		}
		if err := stats.RecordDelivered(); err != nil {
			return err
		}

		if err := store.SaveRecord(ctx, record); err != nil {
			return err
		}
		if err := store.SaveStats(ctx, stats); err != nil {
			return err
		}
		return store.ExtendRetention(ctx, r.retention, now)
	})
	if err != nil {
		switch {
		case dErrors.Is(err, models.ErrContaminated):
			r.logger.WarnContext(ctx, "cannot transfer contaminated blood", "donation_id", id)
		case dErrors.Is(err, models.ErrAlreadyDelivered):
			r.logger.WarnContext(ctx, "donation already delivered", "donation_id", id)
		}
		return translateLedgerError(err, "failed to transfer donation")
	}

	r.logger.InfoContext(ctx, "blood donation transferred to recipient",
		"donation_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	if r.metrics != nil {
		r.metrics.IncDelivered()
		r.metrics.SetStats(stats)
	}
	r.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventDonationTransferred),
		LedgerTime: now,
		DonationID: uint64(id),
		Subject:    recipient.String(),
	})
	return nil
}

// ViewRecord returns the stored record and whether it exists. Unknown ids are
// not an error.
func (r *Registry) ViewRecord(ctx context.Context, id models.DonationID) (*models.DonationRecord, bool, error) {
	var record *models.DonationRecord
	err := r.ledger.View(ctx, func(store ports.Store) error {
		var err error
		record, err = store.FindRecord(ctx, id)
		return err
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, translateLedgerError(err, "failed to load donation")
	}
	return record, true, nil
}

// ViewRecordOrPlaceholder returns the stored record, or the id-0 placeholder
// for unknown ids. Callers must check IsPlaceholder.
func (r *Registry) ViewRecordOrPlaceholder(ctx context.Context, id models.DonationID) (models.DonationRecord, error) {
	record, found, err := r.ViewRecord(ctx, id)
	if err != nil {
		return models.DonationRecord{}, err
	}
	if !found {
		return models.PlaceholderRecord(), nil
	}
	return *record, nil
}

// ViewStats returns the committed aggregate, zero-valued before the first
// registration.
func (r *Registry) ViewStats(ctx context.Context) (models.DonationStats, error) {
	var stats models.DonationStats
	err := r.ledger.View(ctx, func(store ports.Store) error {
		var err error
		stats, err = store.LoadStats(ctx)
		return err
	})
	if err != nil {
		return models.DonationStats{}, translateLedgerError(err, "failed to load stats")
	}
	return stats, nil
}

func (r *Registry) requireAuth(ctx context.Context, identity models.Identity) error {
	err := r.authorizer.RequireAuth(ctx, identity)
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnauthorized, "authorization failed")
}

func (r *Registry) findRecord(ctx context.Context, store ports.Store, id models.DonationID) (*models.DonationRecord, error) {
	record, err := store.FindRecord(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		r.logger.WarnContext(ctx, "donation not found", "donation_id", id)
		return nil, dErrors.Wrap(models.ErrDonationNotFound, dErrors.CodeNotFound, "donation not found")
	}
	return record, err
}

func (r *Registry) emitAudit(ctx context.Context, event audit.Event) {
	if r.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := r.auditPublisher.Emit(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"donation_id", event.DonationID,
			"error", err,
		)
	}
}

func (r *Registry) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	defer span.End()
	if r.metrics != nil {
		r.metrics.ObserveOperation(operation, start)
	}
	if err == nil {
		return
	}
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	if r.metrics != nil {
		r.metrics.IncAborted(operation, string(code))
	}
	r.logger.DebugContext(ctx, "call aborted", "operation", operation, "code", code, "error", err)
}

// translateLedgerError keeps domain errors as they are and classifies
// infrastructure failures.
func translateLedgerError(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
