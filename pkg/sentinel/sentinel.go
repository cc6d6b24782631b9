package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique constraint violated (e.g. one registration per church/event)
// - ErrStaleState: optimistic state check failed, someone else transitioned first
//
// For validation errors (bad input, missing fields), use pkg/domerrors directly.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStaleState = errors.New("stale state")
)
