// Package units provides shared constants and validation for length units
package units

// Unit constants
const (
	IN = "in"
	FT = "ft"
	CM = "cm"
	M  = "m"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{IN, FT, CM, M}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "in, ft, cm, m"
}

// ConvertLength converts a length from inches to the target units.
// Court coordinates are stored in inches.
func ConvertLength(inches float64, targetUnits string) float64 {
	switch targetUnits {
	case FT:
		return inches / 12.0
	case CM:
		return inches * 2.54
	case M:
		return inches * 0.0254
	case IN:
		return inches // no conversion needed
	default:
		return inches // default to inches if unknown unit
	}
}
