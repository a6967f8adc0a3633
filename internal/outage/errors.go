package outage

import "errors"

var (
	// ErrMalformedDocument is returned when the input cannot be opened or
	// read as a spreadsheet. It is fatal for the call.
	ErrMalformedDocument = errors.New("malformed spreadsheet document")

	// ErrInvalidDate is returned when a request date bound cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)
