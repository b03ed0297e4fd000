package models

import (
	"encoding/json"

	dErrors "bloodledger/pkg/domain-errors"
)

// Status is the lifecycle state of a donation unit.
// Contaminated and Delivered are terminal and mutually exclusive.
type Status string

const (
	StatusActive       Status = "active"
	StatusContaminated Status = "contaminated"
	StatusDelivered    Status = "delivered"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusContaminated, StatusDelivered:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusContaminated || s == StatusDelivered
}

// CanTransitionTo encodes the state machine: only Active moves, and only forward.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusActive && next.IsTerminal()
}

// SafeRange is the inclusive cold-chain window in degrees Celsius.
type SafeRange struct {
	Min int32
	Max int32
}

// ColdChain is the safe storage window for whole blood units.
var ColdChain = SafeRange{Min: 2, Max: 6}

func (r SafeRange) Contains(temp int32) bool {
	return temp >= r.Min && temp <= r.Max
}

// DonationRecord is one donated unit.
//
// Invariants:
//   - ID >= 1 for every persisted record
//   - Donor, BloodType and CreatedAt never change after construction
//   - Recipient is set exactly when Status is Delivered
//   - Status only moves Active -> Contaminated or Active -> Delivered
type DonationRecord struct {
	ID          DonationID
	Donor       Identity
	BloodType   BloodType
	CreatedAt   uint64
	StorageTemp int32
	Status      Status
	Recipient   Identity
}

// NewDonationRecord builds a freshly collected unit in the Active state.
func NewDonationRecord(id DonationID, donor Identity, bloodType BloodType, temp int32, now uint64) (*DonationRecord, error) {
	if id == 0 {
		return nil, dErrors.Wrap(ErrInvalidID, dErrors.CodeInvariantViolation, "donation id 0 is reserved")
	}
	if donor.IsZero() {
		return nil, dErrors.Wrap(ErrInvalidIdentity, dErrors.CodeInvariantViolation, "donor is required")
	}
	return &DonationRecord{
		ID:          id,
		Donor:       donor,
		BloodType:   bloodType,
		CreatedAt:   now,
		StorageTemp: temp,
		Status:      StatusActive,
	}, nil
}

func (d *DonationRecord) IsContaminated() bool { return d.Status == StatusContaminated }

func (d *DonationRecord) IsDelivered() bool { return d.Status == StatusDelivered }

// CanUpdateStorage rejects temperature reports once the unit has left custody.
func (d *DonationRecord) CanUpdateStorage() error {
	if d.IsDelivered() {
		return dErrors.Wrap(ErrAlreadyDelivered, dErrors.CodeConflict, "cannot update delivered donation")
	}
	return nil
}

// ApplyTemperature records a reading and reports whether this reading is the one
// that contaminated the unit. A unit already contaminated is never re-flagged.
// Call CanUpdateStorage first.
func (d *DonationRecord) ApplyTemperature(temp int32) (newlyContaminated bool) {
	d.StorageTemp = temp
	if ColdChain.Contains(temp) || d.Status.IsTerminal() {
		return false
	}
	d.Status = StatusContaminated
	return true
}

// CanTransfer checks the unit is still Active. Contamination is reported ahead of
// delivery so callers see the safety failure first.
func (d *DonationRecord) CanTransfer() error {
	if d.IsContaminated() {
		return dErrors.Wrap(ErrContaminated, dErrors.CodeConflict, "cannot transfer contaminated blood")
	}
	if d.IsDelivered() {
		return dErrors.Wrap(ErrAlreadyDelivered, dErrors.CodeConflict, "already delivered")
	}
	return nil
}

// ApplyTransfer hands the unit to recipient. Call CanTransfer first.
func (d *DonationRecord) ApplyTransfer(recipient Identity) {
	d.Recipient = recipient
	d.Status = StatusDelivered
}

// PlaceholderRecord is the id-0 absence marker older clients expect from lookups.
func PlaceholderRecord() DonationRecord {
	return DonationRecord{
		Donor:     placeholderIdentity,
		BloodType: "Unknown",
		Status:    StatusActive,
		Recipient: placeholderIdentity,
	}
}

// IsPlaceholder reports whether d is the absence marker.
func (d DonationRecord) IsPlaceholder() bool { return d.ID == 0 }

type donationJSON struct {
	ID             DonationID `json:"id"`
	Donor          Identity   `json:"donor"`
	BloodType      BloodType  `json:"blood_type"`
	CreatedAt      uint64     `json:"created_at"`
	StorageTemp    int32      `json:"storage_temp"`
	Status         Status     `json:"status"`
	IsContaminated bool       `json:"is_contaminated"`
	Recipient      Identity   `json:"recipient,omitempty"`
	IsDelivered    bool       `json:"is_delivered"`
}

// MarshalJSON adds the boolean projections so the wire shape matches the ledger's
// record layout.
func (d DonationRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(donationJSON{
		ID:             d.ID,
		Donor:          d.Donor,
		BloodType:      d.BloodType,
		CreatedAt:      d.CreatedAt,
		StorageTemp:    d.StorageTemp,
		Status:         d.Status,
		IsContaminated: d.IsContaminated(),
		Recipient:      d.Recipient,
		IsDelivered:    d.IsDelivered(),
	})
}

// UnmarshalJSON trusts status over the derived booleans and rejects unknown states.
func (d *DonationRecord) UnmarshalJSON(data []byte) error {
	var raw donationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown donation status "+string(raw.Status))
	}
	*d = DonationRecord{
		ID:          raw.ID,
		Donor:       raw.Donor,
		BloodType:   raw.BloodType,
		CreatedAt:   raw.CreatedAt,
		StorageTemp: raw.StorageTemp,
		Status:      raw.Status,
		Recipient:   raw.Recipient,
	}
	return nil
}
