// Package ports declares the host collaborators the donation registry depends on.
// Keeping them here lets stores and adapters implement them without importing
// the service.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Authorizer,Clock,AuditPublisher

import (
	"context"

	"bloodledger/internal/donation/models"
	"bloodledger/pkg/platform/audit"
)

// Store is the typed view of the ledger's instance storage inside one call.
// FindRecord returns sentinel.ErrNotFound for unknown ids; LoadCounter and
// LoadStats return zero values when the singleton entries were never written.
type Store interface {
	LoadCounter(ctx context.Context) (models.DonationID, error)
	SaveCounter(ctx context.Context, id models.DonationID) error
	FindRecord(ctx context.Context, id models.DonationID) (*models.DonationRecord, error)
	SaveRecord(ctx context.Context, record *models.DonationRecord) error
	LoadStats(ctx context.Context) (models.DonationStats, error)
	SaveStats(ctx context.Context, stats models.DonationStats) error
	ExtendRetention(ctx context.Context, policy models.RetentionPolicy, now uint64) error
}

// Ledger is the host's transaction boundary. Writes made through the Store handed
// to fn take effect only if fn returns nil; otherwise every write is discarded.
// View hands fn a Store whose writes fail with sentinel.ErrReadOnly.
type Ledger interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
	View(ctx context.Context, fn func(store Store) error) error
}

// Authorizer verifies that identity approved the current call.
type Authorizer interface {
	RequireAuth(ctx context.Context, identity models.Identity) error
}

// Clock supplies the ledger timestamp for the current call.
type Clock interface {
	Now(ctx context.Context) uint64
}

// AuditPublisher receives observational events after a call commits.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
