package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Adapters and stores return these
// (optionally wrapped) so services can translate them into domain errors.
//
// They describe the state of a remote resource, not caller mistakes:
// - ErrNotFound: the document or record does not exist
// - ErrConflict: the server rejected a write against its current state
// - ErrUnauthorized: the server refused the credentials presented
// - ErrUnavailable: the server or circuit is temporarily unavailable
// - ErrUnsupported: the server answered in a format this module cannot read
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
	ErrUnsupported  = errors.New("unsupported")
)
