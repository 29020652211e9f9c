package sounding

import "math"

const (
	sampleStep      = 250.0 // m between wind samples
	bunkersDeviance = 7.5   // m/s
)

// BulkShear returns the wind difference (m/s) between bottom and top metres
// above ground.
func (p *Profile) BulkShear(bottom, top float64) float64 {
	return p.WindAt(top).sub(p.WindAt(bottom)).Speed()
}

// MeanWind averages the wind between bottom and top metres AGL, sampled every
// 250 m.
func (p *Profile) MeanWind(bottom, top float64) Wind {
	var sum Wind
	n := 0
	for z := bottom; z <= top+1e-9; z += sampleStep {
		w := p.WindAt(z)
		sum.U += w.U
		sum.V += w.V
		n++
	}
	return Wind{U: sum.U / float64(n), V: sum.V / float64(n)}
}

// BunkersRight estimates right-moving supercell motion (Bunkers et al. 2000):
// the 0-6 km mean wind displaced 7.5 m/s to the right of the 0-6 km shear.
func (p *Profile) BunkersRight() Wind {
	mean := p.MeanWind(0, 6000)
	shear := p.MeanWind(5500, 6000).sub(p.MeanWind(0, 500))
	mag := shear.Speed()
	if mag == 0 {
		return mean
	}
	return Wind{
		U: mean.U + bunkersDeviance*shear.V/mag,
		V: mean.V - bunkersDeviance*shear.U/mag,
	}
}

// Helicity returns the storm-relative helicity (m²/s²) between bottom and top
// metres AGL for the given storm motion. Clockwise-turning hodographs give
// positive values.
func (p *Profile) Helicity(bottom, top float64, storm Wind) float64 {
	srh := 0.0
	prev := p.WindAt(bottom).sub(storm)
	for z := bottom + sampleStep; ; z += sampleStep {
		z = math.Min(z, top)
		cur := p.WindAt(z).sub(storm)
		srh += cur.U*prev.V - prev.U*cur.V
		prev = cur
		if z >= top {
			return srh
		}
	}
}

// SCP is the supercell composite parameter from most-unstable CAPE (J/kg),
// storm-relative helicity (m²/s²) and bulk shear (m/s). The shear term is
// zero below 10 m/s and capped at 1 above 20 m/s.
func SCP(muCAPE, srh, shear float64) float64 {
	switch {
	case shear < 10:
		shear = 0
	case shear > 20:
		shear = 20
	}
	return (muCAPE / 1000) * (srh / 50) * (shear / 20)
}
