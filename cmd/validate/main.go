// Command validate runs the frame update headlessly from a fixed seed and
// checks the scene invariants frame by frame: pulse bounds and resets,
// station easing, indicator orientation, determinism, and the weather
// fallback path.
//
// Usage:
//
//	go run ./cmd/validate -frames 5000 -seed 42
//	go run ./cmd/validate -scene scene.toml -response repel-inside
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-radar-sim/internal/config"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/loop"
)

const eps = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// run holds the frames of one seeded simulation with the scene before each.
type run struct {
	params domain.Params
	scenes []domain.Scene // scenes[i] is the state after frames[i]
	frames []domain.Frame
}

func main() {
	frames := flag.Int("frames", 5000, "frames to simulate")
	seed := flag.Uint64("seed", 1, "activation seed (must be non-zero)")
	scenePath := flag.String("scene", "", "optional scene file overriding layout and parameters")
	response := flag.String("response", string(domain.AttractInside), "indicator response rule")
	flag.Parse()

	if *frames <= 0 || *seed == 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(runValidation(*frames, *seed, *scenePath, *response))
}

func runValidation(frames int, seed uint64, scenePath, response string) int {
	fmt.Println("=== Radar Scene Invariant Validation ===")
	fmt.Println()

	layout, params := domain.DefaultLayout(), domain.DefaultParams()
	mode, err := domain.ParseResponseMode(response)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	params.Response = mode
	if scenePath != "" {
		if layout, params, err = config.LoadScene(scenePath, layout, params); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load scene: %v\n", err)
			return 1
		}
	}

	r := simulate(layout, params, seed, frames)

	phases := []*phase{
		validatePulses(r),
		validateStations(r),
		validateIndicators(r),
		validateDeterminism(r, layout, seed),
		validateForcedReset(layout, params),
		validateFallback(),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Frames: %d, seed %d, response %s, %d pulses, %d indicators, %d stations\n",
		frames, seed, params.Response, len(layout.Radars), len(layout.Grid.Positions()), len(layout.Stations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == 20 {
				fmt.Printf("  ... %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func simulate(layout domain.Layout, params domain.Params, seed uint64, frames int) run {
	rng := loop.NewRand(seed, clockwork.NewRealClock())
	scene := domain.NewScene(layout, params)
	r := run{params: params}
	for i := 0; i < frames; i++ {
		var f domain.Frame
		scene, f = domain.Step(scene, params, rng)
		f.Seq = uint64(i + 1)
		r.scenes = append(r.scenes, scene)
		r.frames = append(r.frames, f)
	}
	return r
}

// ── Phases ──

func validatePulses(r run) *phase {
	p := &phase{name: "Pulse radius bounds and resets"}
	for i, s := range r.scenes {
		for j, pl := range s.Pulses {
			if pl.Radius < 1-eps || pl.Radius > r.params.PulseMaxRadius+eps {
				p.errorf("frame %d pulse %d: radius %.4f outside [1, %.1f]", i+1, j, pl.Radius, r.params.PulseMaxRadius)
			}
		}
		for _, w := range r.frames[i].Pulses {
			if !w.Active && w.Scale != 1 {
				p.errorf("frame %d pulse %d: deactivated with scale %.4f, want 1", i+1, w.Index, w.Scale)
			}
		}
	}
	return p
}

func validateStations(r run) *phase {
	p := &phase{name: "Station scale easing"}
	for i, s := range r.scenes {
		for j, st := range s.Stations {
			if st.Scale < r.params.ScaleMin-eps || st.Scale > r.params.ScaleMax+eps {
				p.errorf("frame %d station %d: scale %.4f outside [%.1f, %.1f]", i+1, j, st.Scale, r.params.ScaleMin, r.params.ScaleMax)
			}
			if i == 0 {
				continue
			}
			if d := math.Abs(st.Scale - r.scenes[i-1].Stations[j].Scale); d > r.params.ScaleStep+eps {
				p.errorf("frame %d station %d: scale jumped %.4f", i+1, j, d)
			}
		}
	}
	return p
}

func validateIndicators(r run) *phase {
	p := &phase{name: "Indicator response rule"}
	for i, s := range r.scenes {
		field := domain.PulseField(s.Pulses)
		for _, w := range r.frames[i].Indicators {
			pos := s.Indicators[w.Index].Position
			e, dist, ok := field.Nearest(pos)
			if !ok || !e.Active {
				p.errorf("frame %d indicator %d: written while nearest pulse idle", i+1, w.Index)
				continue
			}
			if dist < eps {
				continue
			}
			toward := w.Heading.Dot(e.Position.Sub(pos)) > 0
			inside := dist < e.Radius
			wantToward := inside == (r.params.Response == domain.AttractInside)
			if toward != wantToward {
				p.errorf("frame %d indicator %d: dist %.3f radius %.3f points toward=%v, want %v",
					i+1, w.Index, dist, e.Radius, toward, wantToward)
			}
			if math.Abs(w.Heading.Len()-1) > 1e-6 {
				p.errorf("frame %d indicator %d: heading not unit length", i+1, w.Index)
			}
		}
	}
	return p
}

func validateDeterminism(r run, layout domain.Layout, seed uint64) *phase {
	p := &phase{name: "Seeded replay is identical"}
	replay := simulate(layout, r.params, seed, len(r.frames))
	if diff := cmp.Diff(r.frames, replay.frames); diff != "" {
		p.errorf("replay diverged:\n%s", diff)
	}
	return p
}

func validateForcedReset(layout domain.Layout, params domain.Params) *phase {
	p := &phase{name: "Forced pulse resets on schedule"}
	scene := domain.NewScene(layout, params)
	if len(scene.Pulses) == 0 {
		return p
	}
	scene.Pulses[0].Active = true

	want := int(math.Round((params.PulseMaxRadius - 1) / params.PulseGrowth))
	limit := want * 2
	for n := 1; n <= limit; n++ {
		scene, _ = domain.Step(scene, params, nil)
		if !scene.Pulses[0].Active {
			if n < want-1 || n > want+1 {
				p.errorf("pulse reset after %d frames, want %d±1", n, want)
			}
			if scene.Pulses[0].Radius != 1 {
				p.errorf("pulse reset to radius %.4f, want 1", scene.Pulses[0].Radius)
			}
			return p
		}
	}
	p.errorf("pulse still active after %d frames", limit)
	return p
}

type failingSource struct{}

func (failingSource) FetchSamples(context.Context) ([]domain.WeatherSample, error) {
	return nil, errors.New("feed unavailable")
}

func validateFallback() *phase {
	p := &phase{name: "Weather fallback on fetch failure"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	samples, fallback := domain.IngestSamples(context.Background(), failingSource{}, logger)
	if !fallback {
		p.errorf("fallback flag not set")
	}
	if len(samples) != 1 || samples[0] != domain.FallbackSample() {
		p.errorf("ingested %+v, want exactly the fallback sample", samples)
	}

	data, dropped := domain.Reshape(samples, domain.DefaultUniformCapacity)
	if len(data) != domain.DefaultUniformCapacity || dropped != 0 {
		p.errorf("uniform array len %d dropped %d, want %d and 0", len(data), dropped, domain.DefaultUniformCapacity)
	}
	if len(data) > 0 && data[0] != domain.FallbackSample().Uniform() {
		p.errorf("slot 0 is %+v, want %+v", data[0], domain.FallbackSample().Uniform())
	}
	return p
}
