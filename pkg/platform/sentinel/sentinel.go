package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: row does not exist, or does not match the required type/status
//   - ErrConflict: unique constraint or a concurrent writer won (row no longer active)
//   - ErrInvalidState: row exists but is in the wrong state for the operation
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrLocked: a cooperative lock is held by another runner
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrLocked       = errors.New("locked")
)
