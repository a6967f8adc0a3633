package services

import "errors"

var (
	// ErrInvalidInput marks a request the caller has to fix.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDocumentTooLarge is returned for uploads above the configured limit.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrBusy is returned when no aggregation slot frees up before the
	// request context ends.
	ErrBusy = errors.New("service busy")
)
