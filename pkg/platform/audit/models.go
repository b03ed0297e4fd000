package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategoryCustody covers chain-of-custody facts: collection and hand-over.
	// These are the records regulators ask for and must never be sampled.
	CategoryCustody EventCategory = "custody"

	// CategorySafety covers cold-chain violations. These feed alerting.
	CategorySafety EventCategory = "safety"

	// CategoryOperations covers routine readings useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a registry call commits. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID
	Category   EventCategory
	Timestamp  time.Time // wall time of emission
	LedgerTime uint64    // host ledger timestamp of the call
	DonationID uint64
	Subject    string // donor or recipient identity involved
	Action     string
	Detail     string
	RequestID  string
}

type AuditEvent string

const (
	EventDonationRegistered   AuditEvent = "donation_registered"
	EventStorageUpdated       AuditEvent = "storage_updated"
	EventDonationContaminated AuditEvent = "donation_contaminated"
	EventDonationTransferred  AuditEvent = "donation_transferred"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDonationRegistered:   CategoryCustody,
	EventDonationTransferred:  CategoryCustody,
	EventDonationContaminated: CategorySafety,
	EventStorageUpdated:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
