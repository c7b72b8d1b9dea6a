package sign

import "errors"

var (
	// ErrInvalidRequest marks client input errors: missing pdfId, a
	// missing field list, unknown field types or malformed coordinates.
	// Requests failing this way are rejected before any document is read.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSourceMissing marks an absent base document.
	ErrSourceMissing = errors.New("source document not found")
)
