// Package haptic maps feedback types to vibration patterns that clients play.
package haptic

// Feedback is a kind of haptic feedback.
type Feedback string

const (
	Light   Feedback = "light"
	Medium  Feedback = "medium"
	Heavy   Feedback = "heavy"
	Success Feedback = "success"
	Warning Feedback = "warning"
	Error   Feedback = "error"
)

// Named uses of the feedback types.
const (
	Button     = Light
	Navigation = Medium
)

var patterns = map[Feedback][]int{
	Light:   {10},
	Medium:  {20},
	Heavy:   {30, 10, 30},
	Success: {10, 50, 10},
	Warning: {20, 20, 20},
	Error:   {50, 20, 100},
}

// Pattern returns the vibration pattern in milliseconds. Unknown types get
// the light pattern.
func Pattern(f Feedback) []int {
	p, ok := patterns[f]
	if !ok {
		p = patterns[Light]
	}
	out := make([]int, len(p))
	copy(out, p)
	return out
}

// Cue is the feedback a client should play alongside a response.
type Cue struct {
	Type    Feedback `json:"type"`
	Pattern []int    `json:"pattern"`
}

// Cuer produces cues only when vibration is available.
type Cuer struct {
	enabled bool
}

// NewCuer returns a Cuer. With vibration unavailable every cue is nil.
func NewCuer(vibration bool) Cuer {
	return Cuer{enabled: vibration}
}

// Enabled reports whether cues are produced.
func (c Cuer) Enabled() bool { return c.enabled }

// For returns the cue for f, or nil when vibration is unavailable.
func (c Cuer) For(f Feedback) *Cue {
	if !c.enabled {
		return nil
	}
	return &Cue{Type: f, Pattern: Pattern(f)}
}
