package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

func TestPhasesPassOnDefaultScene(t *testing.T) {
	for _, mode := range []domain.ResponseMode{domain.AttractInside, domain.RepelInside} {
		t.Run(string(mode), func(t *testing.T) {
			layout, params := domain.DefaultLayout(), domain.DefaultParams()
			params.Response = mode
			r := simulate(layout, params, 42, 1500)
			require.Len(t, r.frames, 1500)

			for _, p := range []*phase{
				validatePulses(r),
				validateStations(r),
				validateIndicators(r),
				validateDeterminism(r, layout, 42),
				validateForcedReset(layout, params),
				validateFallback(),
			} {
				assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
			}
		})
	}
}

func TestValidateIndicators_DetectsWrongRule(t *testing.T) {
	layout, params := domain.DefaultLayout(), domain.DefaultParams()
	r := simulate(layout, params, 7, 800)

	// Judge attract-inside frames against the repel-inside rule.
	r.params.Response = domain.RepelInside
	p := validateIndicators(r)
	assert.False(t, p.passed())
}

func TestValidatePulses_DetectsBadReset(t *testing.T) {
	params := domain.DefaultParams()
	r := run{
		params: params,
		scenes: []domain.Scene{{Pulses: []domain.Pulse{{Radius: 1}}}},
		frames: []domain.Frame{{Pulses: []domain.PulseWrite{{Index: 0, Scale: 50.2, Active: false}}}},
	}
	assert.False(t, validatePulses(r).passed())
}
