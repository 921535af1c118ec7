package domain

import (
	"fmt"

	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// Feature is an accessibility feature a place can offer.
type Feature int

// Declaration order is the canonical order used for every sorted output.
const (
	FeatureWheelchair Feature = iota
	FeatureElevator
	FeatureRamp
	FeatureBraille
	FeatureAudio
	FeatureParking
	FeatureToilet
	FeatureNoStairs
	FeatureLowCounter
	FeatureWideEntrance

	featureCount
)

const unknownFeatureIcon = "help-circle"

type featureInfo struct {
	name  string
	label string
	icon  string
}

var featureTable = [featureCount]featureInfo{
	FeatureWheelchair:   {"wheelchair", "Wheelchair Access", "wheelchair"},
	FeatureElevator:     {"elevator", "Elevator Available", "arrow-up-down"},
	FeatureRamp:         {"ramp", "Ramp Access", "trending-up"},
	FeatureBraille:      {"braille", "Braille Signage", "braille"},
	FeatureAudio:        {"audio", "Audio Guidance", "volume-2"},
	FeatureParking:      {"parking", "Accessible Parking", "parking"},
	FeatureToilet:       {"toilet", "Accessible Toilet", "bathroom"},
	FeatureNoStairs:     {"noStairs", "No Stairs", "stairs-off"},
	FeatureLowCounter:   {"lowCounter", "Low Counter", "align-end-horizontal"},
	FeatureWideEntrance: {"wideEntrance", "Wide Entrance", "door-open"},
}

var featuresByName = func() map[string]Feature {
	m := make(map[string]Feature, featureCount)
	for i, info := range featureTable {
		m[info.name] = Feature(i)
	}
	return m
}()

// AllFeatures returns every feature in canonical order.
func AllFeatures() []Feature {
	out := make([]Feature, featureCount)
	for i := range out {
		out[i] = Feature(i)
	}
	return out
}

// ParseFeature maps a wire name such as "noStairs" to its Feature.
func ParseFeature(name string) (Feature, error) {
	f, ok := featuresByName[name]
	if !ok {
		return 0, apperrors.InvalidInput(fmt.Sprintf("unknown accessibility feature %q", name))
	}
	return f, nil
}

// ParseFeatures parses names in order, keeping the first occurrence of each.
func ParseFeatures(names []string) ([]Feature, error) {
	out := make([]Feature, 0, len(names))
	for _, n := range names {
		f, err := ParseFeature(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return UniqueFeatures(out), nil
}

// IsValidFeature reports whether name is a known feature.
func IsValidFeature(name string) bool {
	_, ok := featuresByName[name]
	return ok
}

// Valid reports whether f is one of the declared features.
func (f Feature) Valid() bool {
	return f >= 0 && f < featureCount
}

// String returns the wire name.
func (f Feature) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Feature(%d)", int(f))
	}
	return featureTable[f].name
}

// Label returns the human-readable label, or the raw name for an unknown value.
func (f Feature) Label() string {
	if !f.Valid() {
		return f.String()
	}
	return featureTable[f].label
}

// Icon returns the icon name, or "help-circle" for an unknown value.
func (f Feature) Icon() string {
	if !f.Valid() {
		return unknownFeatureIcon
	}
	return featureTable[f].icon
}

// MarshalText implements encoding.TextMarshaler.
func (f Feature) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("marshal feature: invalid value %d", int(f))
	}
	return []byte(featureTable[f].name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Feature) UnmarshalText(b []byte) error {
	parsed, err := ParseFeature(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FeatureLabel returns the label for a wire name, falling back to the name
// itself when it is not a known feature.
func FeatureLabel(name string) string {
	if f, ok := featuresByName[name]; ok {
		return f.Label()
	}
	return name
}

// FeatureIcon returns the icon for a wire name, or "help-circle".
func FeatureIcon(name string) string {
	if f, ok := featuresByName[name]; ok {
		return f.Icon()
	}
	return unknownFeatureIcon
}

// UniqueFeatures drops repeated features, preserving first-seen order.
func UniqueFeatures(fs []Feature) []Feature {
	var seen [featureCount]bool
	out := make([]Feature, 0, len(fs))
	for _, f := range fs {
		if !f.Valid() || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// FeatureNames returns the wire names of fs.
func FeatureNames(fs []Feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}

// FeatureInfo describes a feature for catalogue listings.
type FeatureInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Catalogue lists every feature with its label and icon in canonical order.
func Catalogue() []FeatureInfo {
	out := make([]FeatureInfo, 0, featureCount)
	for _, f := range AllFeatures() {
		out = append(out, FeatureInfo{Name: f.String(), Label: f.Label(), Icon: f.Icon()})
	}
	return out
}
