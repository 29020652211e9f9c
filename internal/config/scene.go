package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// LoadScene reads an optional scene file (TOML, YAML or JSON, chosen by
// extension) and overlays it on the given layout and parameters. Keys absent
// from the file keep their incoming values; a radars or stations list in the
// file replaces the whole list.
//
//	[params]
//	pulse_growth = 0.25
//	response = "repel-inside"
//
//	[layout.grid]
//	step = 20
//
//	[[layout.radars]]
//	x = -20
//	y = 1
//	z = 20
func LoadScene(path string, layout domain.Layout, params domain.Params) (domain.Layout, domain.Params, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return layout, params, fmt.Errorf("read scene file: %w", err)
	}

	if v.IsSet("layout.radars") {
		var radars []domain.Vec3
		if err := v.UnmarshalKey("layout.radars", &radars); err != nil {
			return layout, params, fmt.Errorf("decode layout.radars: %w", err)
		}
		layout.Radars = radars
	}
	if v.IsSet("layout.stations") {
		var stations []domain.Vec3
		if err := v.UnmarshalKey("layout.stations", &stations); err != nil {
			return layout, params, fmt.Errorf("decode layout.stations: %w", err)
		}
		layout.Stations = stations
	}
	if v.IsSet("layout.grid") {
		if err := v.UnmarshalKey("layout.grid", &layout.Grid); err != nil {
			return layout, params, fmt.Errorf("decode layout.grid: %w", err)
		}
	}
	if v.IsSet("params") {
		if err := v.UnmarshalKey("params", &params); err != nil {
			return layout, params, fmt.Errorf("decode params: %w", err)
		}
	}

	if err := params.Validate(); err != nil {
		return layout, params, fmt.Errorf("scene params: %w", err)
	}
	return layout, params, nil
}
