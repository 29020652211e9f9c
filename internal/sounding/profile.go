package sounding

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const knotsToMS = 0.514444

// Level is one observation in a sounding.
type Level struct {
	Pres float64 `json:"pres"`
	Hght float64 `json:"hght"`
	TmpC float64 `json:"tmpc"`
	DwpC float64 `json:"dwpc"`
	WSpd float64 `json:"wspd"`
	WDir float64 `json:"wdir"`
}

// Wind is a horizontal wind vector in m/s; U is eastward, V northward.
type Wind struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// Speed returns the wind magnitude.
func (w Wind) Speed() float64 { return math.Hypot(w.U, w.V) }

func (w Wind) sub(o Wind) Wind { return Wind{U: w.U - o.U, V: w.V - o.V} }

// WindFromSpdDir converts a meteorological speed (knots) and direction
// (degrees the wind blows from) into components.
func WindFromSpdDir(spdKt, dirDeg float64) Wind {
	s := spdKt * knotsToMS
	rad := dirDeg * math.Pi / 180
	return Wind{U: -s * math.Sin(rad), V: -s * math.Cos(rad)}
}

// Profile is a validated sounding ordered from the surface upward.
type Profile struct {
	levels []Level
	winds  []Wind
}

// NewProfile validates levels and returns a profile. Levels may be given in
// any order; they are sorted by decreasing pressure.
func NewProfile(levels []Level) (*Profile, error) {
	if len(levels) < 2 {
		return nil, errors.New("sounding needs at least two levels")
	}
	ls := append([]Level(nil), levels...)
	sort.Slice(ls, func(i, j int) bool { return ls[i].Pres > ls[j].Pres })

	for i, l := range ls {
		for _, v := range [...]float64{l.Pres, l.Hght, l.TmpC, l.DwpC, l.WSpd, l.WDir} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("level %d: non-finite value", i)
			}
		}
		if l.Pres <= 0 {
			return nil, fmt.Errorf("level %d: pressure must be positive", i)
		}
		if l.DwpC > l.TmpC {
			return nil, fmt.Errorf("level %d: dewpoint %.1f exceeds temperature %.1f", i, l.DwpC, l.TmpC)
		}
		if i > 0 {
			if l.Pres == ls[i-1].Pres {
				return nil, fmt.Errorf("level %d: duplicate pressure %.1f", i, l.Pres)
			}
			if l.Hght <= ls[i-1].Hght {
				return nil, fmt.Errorf("level %d: height must increase with decreasing pressure", i)
			}
		}
	}

	winds := make([]Wind, len(ls))
	for i, l := range ls {
		winds[i] = WindFromSpdDir(l.WSpd, l.WDir)
	}
	return &Profile{levels: ls, winds: winds}, nil
}

// Surface returns the lowest level.
func (p *Profile) Surface() Level { return p.levels[0] }

// Top returns the highest level.
func (p *Profile) Top() Level { return p.levels[len(p.levels)-1] }

// TempAt interpolates temperature and dewpoint linearly in log-pressure.
// Pressures outside the sounding are clamped to its ends.
func (p *Profile) TempAt(pres float64) (tmpc, dwpc float64) {
	i, t := p.bracketPres(pres)
	a, b := p.levels[i], p.levels[i+1]
	return lerp(a.TmpC, b.TmpC, t), lerp(a.DwpC, b.DwpC, t)
}

// HeightAt interpolates geopotential height in log-pressure.
func (p *Profile) HeightAt(pres float64) float64 {
	i, t := p.bracketPres(pres)
	return lerp(p.levels[i].Hght, p.levels[i+1].Hght, t)
}

// PresAt returns the pressure at height hght (MSL), interpolating log-pressure
// linearly in height.
func (p *Profile) PresAt(hght float64) float64 {
	i, t := p.bracketHght(hght)
	la, lb := math.Log(p.levels[i].Pres), math.Log(p.levels[i+1].Pres)
	return math.Exp(lerp(la, lb, t))
}

// WindAt interpolates the wind components at agl metres above the surface.
func (p *Profile) WindAt(agl float64) Wind {
	i, t := p.bracketHght(p.Surface().Hght + agl)
	a, b := p.winds[i], p.winds[i+1]
	return Wind{U: lerp(a.U, b.U, t), V: lerp(a.V, b.V, t)}
}

func (p *Profile) bracketPres(pres float64) (int, float64) {
	n := len(p.levels)
	switch {
	case pres >= p.levels[0].Pres:
		return 0, 0
	case pres <= p.levels[n-1].Pres:
		return n - 2, 1
	}
	i := sort.Search(n, func(i int) bool { return p.levels[i].Pres < pres }) - 1
	lp := math.Log(pres)
	la, lb := math.Log(p.levels[i].Pres), math.Log(p.levels[i+1].Pres)
	return i, (lp - la) / (lb - la)
}

func (p *Profile) bracketHght(hght float64) (int, float64) {
	n := len(p.levels)
	switch {
	case hght <= p.levels[0].Hght:
		return 0, 0
	case hght >= p.levels[n-1].Hght:
		return n - 2, 1
	}
	i := sort.Search(n, func(i int) bool { return p.levels[i].Hght > hght }) - 1
	a, b := p.levels[i].Hght, p.levels[i+1].Hght
	return i, (hght - a) / (b - a)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
