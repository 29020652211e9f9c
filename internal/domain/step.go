package domain

import "math"

// Rand is the source of pulse activation draws. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// coneCorrection turns the cone's +Y tip onto the +Z axis LookRotation aims.
var coneCorrection = AxisAngle(Vec3{X: 1}, math.Pi/2)

// Step advances the scene by one frame and returns the new scene with the
// writes a renderer must apply. s is not modified. A nil rng never activates
// an idle pulse.
//
// Order matters: pulses grow first, then indicators and stations read the
// post-growth radii of the same frame.
func Step(s Scene, p Params, rng Rand) (Scene, Frame) {
	next := s.Clone()
	next.Time += p.TimeStep

	frame := Frame{Time: next.Time}
	frame.Pulses = advancePulses(next.Pulses, p, rng)
	frame.Indicators = OrientIndicators(next.Indicators, PulseField(next.Pulses), p.Response)
	frame.Stations = easeStations(next.Stations, next.Pulses, p)

	next.Uniforms.Time = next.Time
	frame.Uniforms = UniformWrite{Time: next.Time}
	return next, frame
}

func advancePulses(pulses []Pulse, p Params, rng Rand) []PulseWrite {
	var writes []PulseWrite
	for i := range pulses {
		pl := &pulses[i]
		if !pl.Active {
			if rng != nil && rng.Float64() < p.ActivationProbability {
				pl.Active = true
			}
			continue
		}
		pl.Radius += p.PulseGrowth
		if pl.Radius > p.PulseMaxRadius {
			pl.Radius = 1
			pl.Active = false
		}
		writes = append(writes, PulseWrite{Index: i, Scale: pl.Radius, Active: pl.Active})
	}
	return writes
}

// OrientIndicators re-aims every indicator whose nearest emitter is active and
// returns the writes. Indicators whose nearest emitter is idle keep their
// previous orientation and produce no write.
func OrientIndicators(indicators []Indicator, field EmitterField, mode ResponseMode) []IndicatorWrite {
	var writes []IndicatorWrite
	for i := range indicators {
		ind := &indicators[i]
		e, dist, ok := field.Nearest(ind.Position)
		if !ok || !e.Active {
			continue
		}
		ind.Rotation, ind.Heading = Orient(ind.Position, e, dist, mode)
		writes = append(writes, IndicatorWrite{Index: i, Rotation: ind.Rotation, Heading: ind.Heading})
	}
	return writes
}

// Orient computes the rotation and heading of an indicator at pos reacting to
// emitter e at distance dist. The crossover happens at dist == e.Radius: a
// point exactly on the wavefront counts as outside.
func Orient(pos Vec3, e Emitter, dist float64, mode ResponseMode) (Quat, Vec3) {
	heading := e.Position.Sub(pos).Normalize()
	inside := dist < e.Radius
	if inside == (mode != AttractInside) {
		heading = heading.Negate()
	}
	rot := LookRotation(heading).Mul(coneCorrection)
	if heading == (Vec3{}) {
		heading = rot.Rotate(Vec3{Y: 1})
	}
	return rot, heading
}

func easeStations(stations []Station, pulses []Pulse, p Params) []StationWrite {
	writes := make([]StationWrite, 0, len(stations))
	for i := range stations {
		st := &stations[i]
		st.Active = covered(st.Position, pulses)
		step := -p.ScaleStep
		if st.Active {
			step = p.ScaleStep
		}
		st.Scale = clamp(st.Scale+step, p.ScaleMin, p.ScaleMax)
		writes = append(writes, StationWrite{Index: i, Scale: st.Scale, Active: st.Active})
	}
	return writes
}

func covered(pos Vec3, pulses []Pulse) bool {
	for _, pl := range pulses {
		if pl.Active && pos.DistanceTo(pl.Position) < pl.Radius {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
