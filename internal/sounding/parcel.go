package sounding

import "math"

const (
	rd       = 287.04  // J/(kg K), dry air
	cpd      = 1005.7  // J/(kg K)
	lv       = 2.501e6 // J/kg, latent heat of vaporisation
	eps      = 0.622
	kappa    = rd / cpd
	zeroC    = 273.15
	liftStep = 5.0 // hPa per moist-adiabat integration step
)

// Parcel is the result of lifting a parcel through the profile.
type Parcel struct {
	Pres    float64 `json:"pres"`
	TmpC    float64 `json:"tmpc"`
	DwpC    float64 `json:"dwpc"`
	LCLPres float64 `json:"lcl_pres"`
	LCLTmpC float64 `json:"lcl_tmpc"`
	// CAPE is the total positive buoyant energy (J/kg) between the parcel's
	// origin and the top of the sounding; CIN is the negative area below the
	// level of free convection.
	CAPE float64 `json:"cape"`
	CIN  float64 `json:"cin"`
}

// satVapor returns the saturation vapour pressure (hPa) over water at tmpc.
func satVapor(tmpc float64) float64 {
	return 6.112 * math.Exp(17.67*tmpc/(tmpc+243.5))
}

// mixingRatio returns the saturation mixing ratio (kg/kg) at tmpc and pres.
func mixingRatio(tmpc, pres float64) float64 {
	e := satVapor(tmpc)
	return eps * e / (pres - e)
}

// virtualTemp returns the virtual temperature (K) of air at tmpc with
// dewpoint dwpc.
func virtualTemp(tmpc, dwpc, pres float64) float64 {
	r := mixingRatio(dwpc, pres)
	return (tmpc + zeroC) * (1 + r/eps) / (1 + r)
}

// lcl returns the lifted condensation level pressure and temperature (°C) of
// a parcel using Bolton (1980).
func lcl(pres, tmpc, dwpc float64) (lclPres, lclTmpC float64) {
	tk, dk := tmpc+zeroC, dwpc+zeroC
	tl := 1/(1/(dk-56)+math.Log(tk/dk)/800) + 56
	return pres * math.Pow(tl/tk, 1/kappa), tl - zeroC
}

// moistLapse returns dT/dp (K/hPa) along the pseudo-adiabat at tk and pres.
func moistLapse(tk, pres float64) float64 {
	rs := mixingRatio(tk-zeroC, pres)
	num := rd*tk + lv*rs
	den := cpd + lv*lv*rs*eps/(rd*tk*tk)
	return num / den / pres
}

// LiftParcel lifts a parcel from pres with the given temperature and dewpoint
// to the top of the sounding: dry adiabatically to the LCL, then along the
// pseudo-adiabat, integrating buoyancy in virtual temperature.
func (p *Profile) LiftParcel(pres, tmpc, dwpc float64) Parcel {
	pcl := Parcel{Pres: pres, TmpC: tmpc, DwpC: dwpc}
	pcl.LCLPres, pcl.LCLTmpC = lcl(pres, tmpc, dwpc)

	top := p.Top().Pres
	mixing := mixingRatio(dwpc, pres)
	theta := (tmpc + zeroC) * math.Pow(1000/pres, kappa)

	// Parcel virtual temperature at pressure pr for the dry and moist legs.
	// Calls must come with non-increasing pr.
	moistT, moistP := pcl.LCLTmpC+zeroC, pcl.LCLPres
	parcelTv := func(pr float64) float64 {
		if pr >= pcl.LCLPres {
			tk := theta * math.Pow(pr/1000, kappa)
			return tk * (1 + mixing/eps) / (1 + mixing)
		}
		for moistP-liftStep > pr {
			moistT -= moistLapse(moistT, moistP) * liftStep
			moistP -= liftStep
		}
		dp := moistP - pr
		tk := moistT - moistLapse(moistT, moistP)*dp
		rs := mixingRatio(tk-zeroC, pr)
		return tk * (1 + rs/eps) / (1 + rs)
	}

	buoyancy := func(pr float64) float64 {
		et, ed := p.TempAt(pr)
		return parcelTv(pr) - virtualTemp(et, ed, pr)
	}

	var cape, negBelow float64
	free := false
	prev := buoyancy(pres)
	for lo := pres; lo > top; {
		hi := math.Max(lo-liftStep, top)
		b := buoyancy(hi)
		area := rd * (prev + b) / 2 * math.Log(lo/hi)
		switch {
		case area > 0:
			cape += area
			if !free {
				pcl.CIN = negBelow
				free = true
			}
		case !free:
			negBelow += area
		}
		prev = b
		lo = hi
	}
	pcl.CAPE = cape
	return pcl
}

// SurfaceParcel lifts the surface observation.
func (p *Profile) SurfaceParcel() Parcel {
	s := p.Surface()
	return p.LiftParcel(s.Pres, s.TmpC, s.DwpC)
}

// MostUnstableParcel lifts a parcel from every liftStep in the lowest depth
// hPa and returns the one with the greatest CAPE.
func (p *Profile) MostUnstableParcel(depth float64) Parcel {
	sfc := p.Surface().Pres
	bottom := math.Max(sfc-depth, p.Top().Pres)
	best := p.SurfaceParcel()
	for pr := sfc - liftStep; pr >= bottom; pr -= liftStep {
		t, d := p.TempAt(pr)
		if pcl := p.LiftParcel(pr, t, d); pcl.CAPE > best.CAPE {
			best = pcl
		}
	}
	return best
}
