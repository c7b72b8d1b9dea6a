package sign

import (
	"fmt"
	"math"
)

// ValidateCoordinates reports whether a candidate coordinate set is fully
// valid: all five members present and numeric, x and y non-negative,
// width and height positive, page an integer of at least 1. Pure
// predicate, no side effects.
func ValidateCoordinates(c Coordinates) bool {
	if c.X == nil || c.Y == nil || c.Width == nil || c.Height == nil || c.Page == nil {
		return false
	}
	if *c.X < 0 || *c.Y < 0 {
		return false
	}
	if *c.Width <= 0 || *c.Height <= 0 {
		return false
	}
	if *c.Page < 1 || *c.Page != math.Trunc(*c.Page) {
		return false
	}
	return true
}

// ValidateFields checks every field of a request and converts the batch
// into placed fields. Any single invalid field rejects the whole batch;
// the error names the invalid count and the offending indices.
func ValidateFields(fields []Field) ([]PlacedField, error) {
	var badType, badCoords []int

	for i, f := range fields {
		if !f.Type.Known() {
			badType = append(badType, i)
			continue
		}
		if !ValidateCoordinates(f.Coordinates) {
			badCoords = append(badCoords, i)
		}
	}

	if len(badType) > 0 {
		return nil, fmt.Errorf("%w: %d field(s) with unknown type at indices %v",
			ErrInvalidRequest, len(badType), badType)
	}
	if len(badCoords) > 0 {
		return nil, fmt.Errorf("%w: %d field(s) with invalid coordinates at indices %v",
			ErrInvalidRequest, len(badCoords), badCoords)
	}

	placed := make([]PlacedField, 0, len(fields))
	for _, f := range fields {
		placed = append(placed, PlacedField{
			Type:  f.Type,
			Rect:  f.Coordinates.Rect(),
			Value: f.Value,
		})
	}
	return placed, nil
}
