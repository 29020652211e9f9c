package domain

import "math"

// Channel selects which uniform component a heat field reads.
type Channel int

const (
	ChannelCAPE Channel = iota // Vec4.Z
	ChannelSCP                 // Vec4.W
)

func (c Channel) value(v Vec4) float64 {
	if c == ChannelSCP {
		return v.W
	}
	return v.Z
}

// RGB is a linear colour with components in [0,1].
type RGB struct {
	R, G, B float64
}

// Lerp mixes c toward o by t.
func (c RGB) Lerp(o RGB, t float64) RGB {
	return RGB{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
	}
}

// HeatField is the CPU form of a heat-field fragment shader. The plane spans
// 100x100 scene units centred on the origin; uv (0,0) is one corner.
type HeatField struct {
	Channel Channel
	Norm    float64
	Falloff float64
	Low     RGB
	High    RGB
	Alpha   float64
}

var (
	// CAPEField renders CAPE from blue (none) to red (≥5000 J/kg nearby).
	CAPEField = HeatField{
		Channel: ChannelCAPE,
		Norm:    5000,
		Falloff: 0.05,
		Low:     RGB{B: 1},
		High:    RGB{R: 1},
		Alpha:   0.5,
	}
	// SCPField renders SCP from grey to magenta (≥10 nearby).
	SCPField = HeatField{
		Channel: ChannelSCP,
		Norm:    10,
		Falloff: 0.05,
		Low:     RGB{R: 0.5, G: 0.5, B: 0.5},
		High:    RGB{R: 1, B: 1},
		Alpha:   0.3,
	}
)

// Intensity sums the exponentially decaying contribution of every sample
// with a positive channel value at (u, v), clamped to [0,1].
func (h HeatField) Intensity(data []Vec4, u, v float64) float64 {
	px, py := u*100-50, v*100-50
	sum := 0.0
	for _, d := range data {
		val := h.Channel.value(d)
		if val <= 0 {
			continue
		}
		dist := math.Hypot(px-d.X, py-d.Y)
		sum += val / h.Norm * math.Exp(-dist*h.Falloff)
	}
	return clamp(sum, 0, 1)
}

// Color returns the shaded colour at (u, v).
func (h HeatField) Color(data []Vec4, u, v float64) RGB {
	return h.Low.Lerp(h.High, h.Intensity(data, u, v))
}
