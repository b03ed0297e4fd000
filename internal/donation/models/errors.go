package models

import "errors"

// Fatal conditions a registry call can abort with. They are wrapped in coded
// domain errors by the service; match them with errors.Is.
var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrAlreadyDelivered = errors.New("donation already delivered")
	ErrContaminated     = errors.New("blood is contaminated")
	ErrInvalidIdentity  = errors.New("invalid identity")
	ErrInvalidID        = errors.New("donation id must be positive")
	ErrUnauthorized     = errors.New("identity has not approved this call")
)
