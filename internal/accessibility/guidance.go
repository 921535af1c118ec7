package accessibility

import (
	"fmt"
	"strconv"
)

// DistanceUnit is the unit spoken in voice guidance.
type DistanceUnit string

// Supported units.
const (
	UnitMeters DistanceUnit = "meters"
	UnitFeet   DistanceUnit = "feet"
)

// ParseDistanceUnit accepts "meters", "feet", or "" (meters).
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch DistanceUnit(s) {
	case "", UnitMeters:
		return UnitMeters, nil
	case UnitFeet:
		return UnitFeet, nil
	default:
		return "", fmt.Errorf("unsupported distance unit %q", s)
	}
}

// VoiceGuidance renders a spoken direction such as "In 50 meters, turn left".
// An empty unit defaults to meters.
func VoiceGuidance(direction string, distance float64, unit DistanceUnit) string {
	if unit == "" {
		unit = UnitMeters
	}
	return fmt.Sprintf("In %s %s, %s", strconv.FormatFloat(distance, 'f', -1, 64), unit, direction)
}
