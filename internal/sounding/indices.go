package sounding

import "fmt"

// muDepth is how far above the surface (hPa) candidate most-unstable parcels
// are drawn from.
const muDepth = 300

// Indices are the severe-weather parameters published to the weather feed.
type Indices struct {
	SBCAPE  float64 `json:"sbcape"`
	MUCAPE  float64 `json:"mucape"`
	Shear06 float64 `json:"shear_0_6km"`
	SRH03   float64 `json:"srh_0_3km"`
	Storm   Wind    `json:"storm_motion"`
	SCP     float64 `json:"scp"`
}

// Compute derives all indices. The SCP uses 0-3 km helicity relative to the
// Bunkers right mover and 0-6 km bulk shear in place of the effective-layer
// terms.
func (p *Profile) Compute() Indices {
	storm := p.BunkersRight()
	idx := Indices{
		SBCAPE:  p.SurfaceParcel().CAPE,
		MUCAPE:  p.MostUnstableParcel(muDepth).CAPE,
		Shear06: p.BulkShear(0, 6000),
		SRH03:   p.Helicity(0, 3000, storm),
		Storm:   storm,
	}
	idx.SCP = SCP(idx.MUCAPE, idx.SRH03, idx.Shear06)
	return idx
}

// String formats the headline values for logs.
func (i Indices) String() string {
	return fmt.Sprintf("sbcape=%.0f mucape=%.0f shear06=%.1fm/s srh03=%.0f scp=%.2f",
		i.SBCAPE, i.MUCAPE, i.Shear06, i.SRH03, i.SCP)
}

// ConvectiveExample is a warm, moist, veering sounding suitable for
// exercising the heat fields without live data.
func ConvectiveExample() []Level {
	return []Level{
		{Pres: 1000, Hght: 0, TmpC: 25, DwpC: 20, WSpd: 10, WDir: 180},
		{Pres: 925, Hght: 762, TmpC: 20, DwpC: 18, WSpd: 15, WDir: 200},
		{Pres: 850, Hght: 1456, TmpC: 15, DwpC: 10, WSpd: 20, WDir: 220},
		{Pres: 700, Hght: 3012, TmpC: 0, DwpC: -5, WSpd: 25, WDir: 240},
		{Pres: 500, Hght: 5570, TmpC: -20, DwpC: -25, WSpd: 30, WDir: 260},
		{Pres: 300, Hght: 9880, TmpC: -50, DwpC: -55, WSpd: 35, WDir: 280},
	}
}
