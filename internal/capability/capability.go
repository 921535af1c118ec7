// Package capability describes which device capabilities the deployment can
// rely on. The provider is queried once at startup and the resulting Set is
// passed to the components that need it.
package capability

// Capability is an optional device feature.
type Capability string

const (
	Vibration   Capability = "vibration"
	Geolocation Capability = "geolocation"
)

// Availability is the result of probing one capability.
type Availability int

const (
	Unavailable Availability = iota
	Available
)

func (a Availability) String() string {
	if a == Available {
		return "available"
	}
	return "unavailable"
}

// Provider reports capability availability.
type Provider interface {
	Probe(c Capability) Availability
}

// Static is a Provider with fixed answers.
type Static map[Capability]Availability

// Probe implements Provider. Capabilities missing from the map are unavailable.
func (s Static) Probe(c Capability) Availability {
	return s[c]
}

// FromFlags builds a Static provider from boolean switches.
func FromFlags(vibration, geolocation bool) Static {
	return Static{
		Vibration:   availability(vibration),
		Geolocation: availability(geolocation),
	}
}

func availability(ok bool) Availability {
	if ok {
		return Available
	}
	return Unavailable
}

// Set is a snapshot of every known capability.
type Set struct {
	Vibration   bool `json:"vibration"`
	Geolocation bool `json:"geolocation"`
}

// Snapshot probes p once for each capability.
func Snapshot(p Provider) Set {
	if p == nil {
		return Set{}
	}
	return Set{
		Vibration:   p.Probe(Vibration) == Available,
		Geolocation: p.Probe(Geolocation) == Available,
	}
}
