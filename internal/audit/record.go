// Package audit is the durable, hash-anchored ledger of signing events.
package audit

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches the requested identity.
var ErrNotFound = errors.New("audit record not found")

// Coordinates is the placement persisted with each audited field.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page"`
}

// Field is the redacted form of a rendered field kept in the ledger:
// Value is retained for text fields only, so signature payloads never
// reach the ledger.
type Field struct {
	Type        string      `json:"type"`
	Coordinates Coordinates `json:"coordinates"`
	Value       string      `json:"value,omitempty"`
}

// Metadata summarizes a record's field list. It is always derived at
// record construction, never set independently.
type Metadata struct {
	TotalFields  int  `json:"totalFields"`
	HasSignature bool `json:"hasSignature"`
	PageCount    int  `json:"pageCount"`
}

// Record links the original and signed content hashes to the exact field
// list used to produce one from the other. Immutable once saved.
type Record struct {
	ID           string    `json:"id"`
	PDFID        string    `json:"pdfId"`
	OriginalHash string    `json:"originalHash"`
	SignedHash   string    `json:"signedHash"`
	Fields       []Field   `json:"fields"`
	Timestamp    time.Time `json:"timestamp"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	Metadata     Metadata  `json:"metadata"`
}

// NewRecord builds a record, applies the redaction policy to the field
// list and derives the metadata exactly once.
func NewRecord(pdfID, originalHash, signedHash string, fields []Field, ip, userAgent string) *Record {
	redacted := make([]Field, len(fields))
	for i, f := range fields {
		redacted[i] = f
		if f.Type != "text" {
			redacted[i].Value = ""
		}
	}

	return &Record{
		PDFID:        pdfID,
		OriginalHash: originalHash,
		SignedHash:   signedHash,
		Fields:       redacted,
		Timestamp:    time.Now().UTC(),
		IPAddress:    ip,
		UserAgent:    userAgent,
		Metadata:     deriveMetadata(redacted),
	}
}

func deriveMetadata(fields []Field) Metadata {
	m := Metadata{TotalFields: len(fields), PageCount: 1}
	for _, f := range fields {
		if f.Type == "signature" {
			m.HasSignature = true
		}
		if f.Coordinates.Page > m.PageCount {
			m.PageCount = f.Coordinates.Page
		}
	}
	return m
}

// Store is the persistence contract consumed by the pipeline and the
// audit query surface. The pipeline treats it as the sole source of truth
// for signing history.
type Store interface {
	// Save persists the record, assigning an identity if absent.
	Save(ctx context.Context, rec *Record) (*Record, error)
	// FindByID returns a single record or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Record, error)
	// FindByHash returns all records whose original or signed hash
	// matches, most recent first.
	FindByHash(ctx context.Context, hash string) ([]*Record, error)
	// FindRecent returns up to limit records, most recent first.
	FindRecent(ctx context.Context, limit int) ([]*Record, error)
}
