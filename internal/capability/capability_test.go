package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingProvider struct {
	calls map[Capability]int
}

func (p *countingProvider) Probe(c Capability) Availability {
	p.calls[c]++
	if c == Geolocation {
		return Available
	}
	return Unavailable
}

func TestSnapshot_ProbesEachCapabilityOnce(t *testing.T) {
	p := &countingProvider{calls: map[Capability]int{}}

	set := Snapshot(p)
	assert.Equal(t, Set{Vibration: false, Geolocation: true}, set)
	assert.Equal(t, map[Capability]int{Vibration: 1, Geolocation: 1}, p.calls)
}

func TestSnapshot_NilProvider(t *testing.T) {
	assert.Equal(t, Set{}, Snapshot(nil))
}

func TestFromFlags(t *testing.T) {
	assert.Equal(t, Set{Vibration: true, Geolocation: false}, Snapshot(FromFlags(true, false)))
	assert.Equal(t, Unavailable, Static{}.Probe(Vibration))
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "unavailable", Unavailable.String())
}
