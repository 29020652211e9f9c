package domain

import "math"

// Emitter is the view of a pulse the indicator logic needs.
type Emitter struct {
	Index    int
	Position Vec3
	Radius   float64
	Active   bool
}

// EmitterField answers nearest-emitter queries for the indicator pass.
type EmitterField interface {
	// Nearest returns the emitter closest to p and its distance. ok is false
	// when the field is empty. Ties go to the first emitter encountered.
	Nearest(p Vec3) (e Emitter, dist float64, ok bool)
}

// PulseField is the linear-scan EmitterField over a pulse slice. Inactive
// pulses take part in the scan; callers decide what an idle nearest means.
type PulseField []Pulse

// Nearest implements EmitterField.
func (f PulseField) Nearest(p Vec3) (Emitter, float64, bool) {
	best := -1
	minDist := math.Inf(1)
	for i := range f {
		d := p.DistanceTo(f[i].Position)
		if d < minDist {
			minDist = d
			best = i
		}
	}
	if best < 0 {
		return Emitter{}, 0, false
	}
	pl := f[best]
	return Emitter{Index: best, Position: pl.Position, Radius: pl.Radius, Active: pl.Active}, minDist, true
}
