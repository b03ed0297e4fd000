package models

import (
	"strconv"
	"strings"
	"unicode"

	dErrors "bloodledger/pkg/domain-errors"
)

// placeholderIdentity is what the compatibility sentinel carries for unset parties.
const placeholderIdentity = "none"

const maxIdentityLen = 128

// Identity is an opaque ledger address for a donor or recipient.
// The zero value means "unset".
type Identity string

func (i Identity) String() string { return string(i) }

func (i Identity) IsZero() bool { return i == "" }

// ParseIdentity validates an address supplied at the call boundary.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.Wrap(ErrInvalidIdentity, dErrors.CodeValidation, "identity is required")
	}
	if len(s) > maxIdentityLen {
		return "", dErrors.Wrap(ErrInvalidIdentity, dErrors.CodeValidation, "identity too long")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", dErrors.Wrap(ErrInvalidIdentity, dErrors.CodeValidation, "identity must not contain whitespace")
	}
	return Identity(s), nil
}

// DonationID is assigned by the registry, starting at 1.
// 0 is never assigned and doubles as the compatibility absence marker.
type DonationID uint64

func (id DonationID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseDonationID parses a positive decimal id.
func ParseDonationID(s string) (DonationID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeValidation, "invalid donation id")
	}
	if n == 0 {
		return 0, dErrors.Wrap(ErrInvalidID, dErrors.CodeValidation, "invalid donation id")
	}
	return DonationID(n), nil
}

// BloodType is stored verbatim; the registry does not restrict it.
type BloodType string

var knownBloodTypes = map[BloodType]struct{}{
	"O+": {}, "O-": {}, "A+": {}, "A-": {},
	"B+": {}, "B-": {}, "AB+": {}, "AB-": {},
}

// Known reports whether t is one of the eight ABO/Rh groups.
func (t BloodType) Known() bool {
	_, ok := knownBloodTypes[t]
	return ok
}

// Label returns a bounded value for metric labels.
func (t BloodType) Label() string {
	if t.Known() {
		return string(t)
	}
	return "other"
}
