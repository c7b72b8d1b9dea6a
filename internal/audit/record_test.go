package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func coords(page int) Coordinates {
	return Coordinates{X: 10, Y: 10, Width: 100, Height: 20, Page: page}
}

func TestNewRecord_RedactsNonTextValues(t *testing.T) {
	fields := []Field{
		{Type: "text", Coordinates: coords(1), Value: "kept"},
		{Type: "signature", Coordinates: coords(1), Value: "dropped"},
		{Type: "date", Coordinates: coords(1), Value: "dropped"},
		{Type: "radio", Coordinates: coords(1), Value: "dropped"},
		{Type: "image", Coordinates: coords(1), Value: "dropped"},
	}

	rec := NewRecord("doc1", "abc", "def", fields, "1.2.3.4", "agent")

	assert.Equal(t, "kept", rec.Fields[0].Value)
	for _, f := range rec.Fields[1:] {
		assert.Empty(t, f.Value, "non-text field %q must not keep its value", f.Type)
	}

	// The caller's slice is untouched.
	assert.Equal(t, "dropped", fields[1].Value)
}

func TestNewRecord_DerivesMetadata(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   Metadata
	}{
		{
			name:   "no fields floors page count at one",
			fields: nil,
			want:   Metadata{TotalFields: 0, HasSignature: false, PageCount: 1},
		},
		{
			name: "signature flag and max page",
			fields: []Field{
				{Type: "text", Coordinates: coords(3)},
				{Type: "signature", Coordinates: coords(1)},
			},
			want: Metadata{TotalFields: 2, HasSignature: true, PageCount: 3},
		},
		{
			name: "text only",
			fields: []Field{
				{Type: "text", Coordinates: coords(2)},
			},
			want: Metadata{TotalFields: 1, HasSignature: false, PageCount: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord("doc1", "abc", "def", tt.fields, "", "")
			assert.Equal(t, tt.want, rec.Metadata)
		})
	}
}

func TestNewRecord_SetsTimestamp(t *testing.T) {
	rec := NewRecord("doc1", "abc", "def", nil, "", "")
	assert.False(t, rec.Timestamp.IsZero())
	assert.Empty(t, rec.ID, "identity is assigned on save, not construction")
}
