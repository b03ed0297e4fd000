package models

import dErrors "bloodledger/pkg/domain-errors"

// DonationStats is the single global aggregate, maintained incrementally in the
// same transaction as the record it describes.
//
// Invariant: Total == Active + Delivered + Contaminated.
type DonationStats struct {
	Total        uint64 `json:"total"`
	Active       uint64 `json:"active"`
	Delivered    uint64 `json:"delivered"`
	Contaminated uint64 `json:"contaminated"`
}

// Balanced reports whether the aggregate invariant holds.
func (s DonationStats) Balanced() bool {
	return s.Total == s.Active+s.Delivered+s.Contaminated
}

func (s *DonationStats) RecordRegistered() {
	s.Total++
	s.Active++
}

// RecordContaminated moves one unit from Active to Contaminated.
func (s *DonationStats) RecordContaminated() error {
	if s.Active == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "stats: no active donation to contaminate")
	}
	s.Active--
	s.Contaminated++
	return nil
}

// RecordDelivered moves one unit from Active to Delivered.
func (s *DonationStats) RecordDelivered() error {
	if s.Active == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "stats: no active donation to deliver")
	}
	s.Active--
	s.Delivered++
	return nil
}
