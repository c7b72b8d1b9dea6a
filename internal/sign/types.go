// Package sign implements the field-injection and integrity-audit
// pipeline: coordinate validation, field rendering onto the base
// document, content hashing and audit-record emission.
package sign

// FieldType is the closed set of renderable field kinds.
type FieldType string

const (
	FieldSignature FieldType = "signature"
	FieldText      FieldType = "text"
	FieldDate      FieldType = "date"
	FieldRadio     FieldType = "radio"
	FieldImage     FieldType = "image"
)

// Known reports whether t names one of the supported field kinds.
func (t FieldType) Known() bool {
	switch t {
	case FieldSignature, FieldText, FieldDate, FieldRadio, FieldImage:
		return true
	}
	return false
}

// Coordinates is the wire form of a field's placement. Pointer members
// distinguish absent values from zeroes during validation; a missing or
// non-numeric member invalidates the whole set.
type Coordinates struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Page   *float64 `json:"page"`
}

// Rect is a validated placement: a top-left-origin rectangle plus a
// 1-based page number.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page"`
}

// Rect converts validated wire coordinates into their value form. Only
// meaningful after ValidateCoordinates has accepted c.
func (c Coordinates) Rect() Rect {
	return Rect{
		X:      *c.X,
		Y:      *c.Y,
		Width:  *c.Width,
		Height: *c.Height,
		Page:   int(*c.Page),
	}
}

// Field is one placement instruction as received on the wire.
type Field struct {
	Type        FieldType   `json:"type"`
	Coordinates Coordinates `json:"coordinates"`
	Value       string      `json:"value,omitempty"`
}

// PlacedField is a validated field ready for rendering.
type PlacedField struct {
	Type  FieldType
	Rect  Rect
	Value string
}

// Request is one signing request.
type Request struct {
	PDFID          string  `json:"pdfId"`
	Fields         []Field `json:"fields"`
	SignatureImage string  `json:"signatureImage,omitempty"`

	// Transport-level request attribution, recorded in the audit entry.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	SignedName   string
	OriginalHash string
	SignedHash   string
	AuditID      string
}
