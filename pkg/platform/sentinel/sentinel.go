package sentinel

import "errors"

// Sentinel errors for storage facts. Ledger backends return these (optionally
// wrapped) and the registry service translates them into domain errors.
//
// - ErrNotFound: no entry under the requested key
// - ErrConflict: a concurrent writer committed first; the call must be retried or aborted
// - ErrReadOnly: a write was attempted inside a read-only view
// - ErrUnavailable: backend temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrReadOnly    = errors.New("read-only view")
	ErrUnavailable = errors.New("unavailable")
)
