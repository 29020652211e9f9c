package domain

import "time"

// PulseWrite sets the uniform scale of pulse Index.
type PulseWrite struct {
	Index  int     `json:"index"`
	Scale  float64 `json:"scale"`
	Active bool    `json:"active"`
}

// IndicatorWrite re-orients indicator Index.
type IndicatorWrite struct {
	Index    int  `json:"index"`
	Rotation Quat `json:"rotation"`
	Heading  Vec3 `json:"heading"`
}

// StationWrite sets the uniform scale of station Index.
type StationWrite struct {
	Index  int     `json:"index"`
	Scale  float64 `json:"scale"`
	Active bool    `json:"active"`
}

// UniformWrite is pushed to both heat-field materials. WeatherData is only
// set on the frame that merges a completed ingestion.
type UniformWrite struct {
	Time        float64 `json:"time"`
	WeatherData []Vec4  `json:"weather_data,omitempty"`
}

// Frame is the set of visual-property writes produced by one update.
type Frame struct {
	Seq        uint64           `json:"seq"`
	Time       float64          `json:"time"`
	Pulses     []PulseWrite     `json:"pulses"`
	Indicators []IndicatorWrite `json:"indicators"`
	Stations   []StationWrite   `json:"stations"`
	Uniforms   UniformWrite     `json:"uniforms"`

	// EmittedAt is stamped by the driver from its clock; Step leaves it zero.
	EmittedAt time.Time `json:"emitted_at"`
}
