package service

import "errors"

// Error taxonomy surfaced to the request boundary. Handlers map these with
// errors.Is onto response codes; services wrap them with context via %w.
var (
	// ErrNotFound - the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation - required input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrConflict - the operation contradicts current state (stage already
	// forwarded, duplicate PO, duplicate revision number).
	ErrConflict = errors.New("conflict")
	// ErrRender - document generation failed. Safe to retry.
	ErrRender = errors.New("render failed")
	// ErrPermission - the access gate denied the operation.
	ErrPermission = errors.New("permission denied")
)
