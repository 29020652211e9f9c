package domain

import (
	"fmt"
	"math"
)

// Pulse is the expanding sweep emitted by one radar station.
type Pulse struct {
	Position Vec3    `json:"position"`
	Radius   float64 `json:"radius"`
	Active   bool    `json:"active"`
}

// Indicator is a cone on the ground grid. Heading is the unit vector its tip
// points along; Rotation is the quaternion a renderer applies to the mesh.
type Indicator struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
	Heading  Vec3 `json:"heading"`
}

// Station is a surface observation marker that blooms while a pulse covers it.
type Station struct {
	Position Vec3    `json:"position"`
	Active   bool    `json:"active"`
	Scale    float64 `json:"scale"`
}

// Uniforms mirrors the values pushed to the heat-field shaders.
type Uniforms struct {
	Time        float64 `json:"time"`
	WeatherData []Vec4  `json:"weather_data"`
}

// Scene is the complete per-frame state. Step takes one by value and returns
// the next; nothing else owns it.
type Scene struct {
	Time       float64     `json:"time"`
	Pulses     []Pulse     `json:"pulses"`
	Indicators []Indicator `json:"indicators"`
	Stations   []Station   `json:"stations"`
	Uniforms   Uniforms    `json:"uniforms"`
}

// Clone returns a deep copy so the caller may mutate it freely.
func (s Scene) Clone() Scene {
	out := s
	out.Pulses = append([]Pulse(nil), s.Pulses...)
	out.Indicators = append([]Indicator(nil), s.Indicators...)
	out.Stations = append([]Station(nil), s.Stations...)
	out.Uniforms.WeatherData = append([]Vec4(nil), s.Uniforms.WeatherData...)
	return out
}

// ActivePulses counts pulses currently expanding.
func (s Scene) ActivePulses() int {
	n := 0
	for _, p := range s.Pulses {
		if p.Active {
			n++
		}
	}
	return n
}

// ActiveStations counts stations currently covered by a pulse.
func (s Scene) ActiveStations() int {
	n := 0
	for _, st := range s.Stations {
		if st.Active {
			n++
		}
	}
	return n
}

// ResponseMode selects which side of the wavefront attracts an indicator.
type ResponseMode string

const (
	// AttractInside points indicators toward a pulse once its wavefront has
	// reached them and away from it before that.
	AttractInside ResponseMode = "attract-inside"
	// RepelInside is the mirror rule: away from the pulse once inside it.
	RepelInside ResponseMode = "repel-inside"
)

// ParseResponseMode validates a mode name.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch m := ResponseMode(s); m {
	case AttractInside, RepelInside:
		return m, nil
	default:
		return "", fmt.Errorf("unknown indicator response %q", s)
	}
}

// Params are the fixed per-frame constants of the update.
type Params struct {
	TimeStep              float64      `mapstructure:"time_step"`
	PulseGrowth           float64      `mapstructure:"pulse_growth"`
	PulseMaxRadius        float64      `mapstructure:"pulse_max_radius"`
	ActivationProbability float64      `mapstructure:"activation_probability"`
	ScaleStep             float64      `mapstructure:"scale_step"`
	ScaleMin              float64      `mapstructure:"scale_min"`
	ScaleMax              float64      `mapstructure:"scale_max"`
	Response              ResponseMode `mapstructure:"response"`
}

// DefaultParams returns the constants of the reference visualization.
func DefaultParams() Params {
	return Params{
		TimeStep:              0.05,
		PulseGrowth:           0.2,
		PulseMaxRadius:        50,
		ActivationProbability: 0.02,
		ScaleStep:             0.1,
		ScaleMin:              1,
		ScaleMax:              2,
		Response:              AttractInside,
	}
}

// Validate rejects parameter sets that would break the radius or scale bounds.
func (p Params) Validate() error {
	switch {
	case p.TimeStep <= 0:
		return fmt.Errorf("time step must be positive, got %g", p.TimeStep)
	case p.PulseGrowth <= 0:
		return fmt.Errorf("pulse growth must be positive, got %g", p.PulseGrowth)
	case p.PulseMaxRadius <= 1:
		return fmt.Errorf("pulse max radius must exceed 1, got %g", p.PulseMaxRadius)
	case p.ActivationProbability < 0 || p.ActivationProbability > 1:
		return fmt.Errorf("activation probability must be in [0,1], got %g", p.ActivationProbability)
	case p.ScaleStep <= 0:
		return fmt.Errorf("scale step must be positive, got %g", p.ScaleStep)
	case p.ScaleMin > p.ScaleMax:
		return fmt.Errorf("scale min %g exceeds scale max %g", p.ScaleMin, p.ScaleMax)
	}
	if _, err := ParseResponseMode(string(p.Response)); err != nil {
		return err
	}
	return nil
}

// Grid describes the square lattice of indicators on the ground.
type Grid struct {
	Min    float64 `mapstructure:"min"`
	Max    float64 `mapstructure:"max"`
	Step   float64 `mapstructure:"step"`
	Height float64 `mapstructure:"height"`
}

// Positions enumerates grid points x-major, matching the nested x/z loops of
// the reference scene.
func (g Grid) Positions() []Vec3 {
	if g.Step <= 0 || g.Max < g.Min {
		return nil
	}
	n := int(math.Floor((g.Max-g.Min)/g.Step+1e-9)) + 1
	out := make([]Vec3, 0, n*n)
	for i := 0; i < n; i++ {
		x := g.Min + float64(i)*g.Step
		for j := 0; j < n; j++ {
			z := g.Min + float64(j)*g.Step
			out = append(out, Vec3{X: x, Y: g.Height, Z: z})
		}
	}
	return out
}

// Layout is the static placement of radars, stations and the indicator grid.
type Layout struct {
	Radars   []Vec3 `mapstructure:"radars"`
	Stations []Vec3 `mapstructure:"stations"`
	Grid     Grid   `mapstructure:"grid"`
}

// DefaultLayout is the mock CONUS scene: two radars on one diagonal, two
// stations further out on the same diagonal, a 9x9 cone grid.
func DefaultLayout() Layout {
	return Layout{
		Radars: []Vec3{
			{X: -20, Y: 1, Z: 20},
			{X: 20, Y: 1, Z: -20},
		},
		Stations: []Vec3{
			{X: -30, Y: 0.5, Z: 30},
			{X: 30, Y: 0.5, Z: -30},
		},
		Grid: Grid{Min: -40, Max: 40, Step: 10, Height: 0.5},
	}
}

// NewScene builds the initial state: every pulse idle at radius 1, every
// station at rest scale, every indicator unrotated, uniforms empty.
func NewScene(l Layout, p Params) Scene {
	s := Scene{
		Pulses:     make([]Pulse, 0, len(l.Radars)),
		Stations:   make([]Station, 0, len(l.Stations)),
		Indicators: make([]Indicator, 0),
	}
	for _, pos := range l.Radars {
		s.Pulses = append(s.Pulses, Pulse{Position: pos, Radius: 1})
	}
	for _, pos := range l.Stations {
		s.Stations = append(s.Stations, Station{Position: pos, Scale: p.ScaleMin})
	}
	for _, pos := range l.Grid.Positions() {
		s.Indicators = append(s.Indicators, Indicator{Position: pos, Rotation: IdentityQuat, Heading: Vec3{Y: 1}})
	}
	return s
}
