package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// Renderer draws frames as a top-down map in a terminal. It keeps its own
// copy of the scene and applies each frame's writes to it, the way a
// graphics client applies them to meshes.
type Renderer struct {
	screen tcell.Screen
	logger *slog.Logger

	mu       sync.Mutex
	scene    domain.Scene
	radars   []domain.Vec3
	viewport domain.Viewport
	seq      uint64
	showCAPE bool
	showSCP  bool
	onResize func(w, h int)

	// background is the composited heat field per cell, rebuilt when the
	// weather data, size or layer toggles change.
	background [][]tcell.Color
}

// NewScreen creates and initialises the terminal screen.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return screen, nil
}

// NewRenderer creates a renderer over an initialised screen. scene supplies
// the object positions; radars are drawn as fixed markers.
func NewRenderer(screen tcell.Screen, scene domain.Scene, radars []domain.Vec3, logger *slog.Logger) *Renderer {
	w, h := screen.Size()
	screen.HideCursor()
	return &Renderer{
		screen:   screen,
		logger:   logger,
		scene:    scene.Clone(),
		radars:   append([]domain.Vec3(nil), radars...),
		viewport: domain.NewViewport(w, h),
		showCAPE: true,
		showSCP:  true,
	}
}

func (r *Renderer) Name() string { return "tui" }

// Publish applies the frame and redraws.
func (r *Renderer) Publish(_ context.Context, f domain.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.apply(f)
	r.draw()
	return nil
}

// Viewport returns the current surface size and camera.
func (r *Renderer) Viewport() domain.Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

// HandleEvents processes terminal input until the screen is finalised. quit
// is called when the user presses Escape, Ctrl-C or q.
func (r *Renderer) HandleEvents(quit func()) {
	for {
		ev := r.screen.PollEvent()
		if ev == nil {
			return
		}
		if !r.handleEvent(ev) {
			quit()
			return
		}
	}
}

// Close restores the terminal.
func (r *Renderer) Close() {
	r.screen.Fini()
}

// handleEvent returns false when the user asked to quit.
func (r *Renderer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'c':
			r.toggle(&r.showCAPE)
		case ev.Key() == tcell.KeyRune && ev.Rune() == 's':
			r.toggle(&r.showSCP)
		}
	case *tcell.EventResize:
		r.resize()
	}
	return true
}

// OnResize registers fn to receive the terminal size, once immediately and
// again after every resize.
func (r *Renderer) OnResize(fn func(w, h int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onResize = fn
	fn(r.viewport.Width, r.viewport.Height)
}

func (r *Renderer) toggle(layer *bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*layer = !*layer
	r.background = nil
	r.draw()
}

func (r *Renderer) resize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, h := r.screen.Size()
	r.viewport.Resize(w, h)
	r.background = nil
	r.logger.Debug("terminal resized", "width", w, "height", h, "aspect", r.viewport.Camera.Aspect)
	if r.onResize != nil {
		r.onResize(w, h)
	}
	r.screen.Sync()
	r.draw()
}

func (r *Renderer) apply(f domain.Frame) {
	r.seq = f.Seq
	r.scene.Time = f.Time
	r.scene.Uniforms.Time = f.Uniforms.Time
	if f.Uniforms.WeatherData != nil {
		r.scene.Uniforms.WeatherData = append([]domain.Vec4(nil), f.Uniforms.WeatherData...)
		r.background = nil
	}
	for _, w := range f.Pulses {
		if w.Index < len(r.scene.Pulses) {
			r.scene.Pulses[w.Index].Radius = w.Scale
			r.scene.Pulses[w.Index].Active = w.Active
		}
	}
	for _, w := range f.Indicators {
		if w.Index < len(r.scene.Indicators) {
			r.scene.Indicators[w.Index].Rotation = w.Rotation
			r.scene.Indicators[w.Index].Heading = w.Heading
		}
	}
	for _, w := range f.Stations {
		if w.Index < len(r.scene.Stations) {
			r.scene.Stations[w.Index].Scale = w.Scale
			r.scene.Stations[w.Index].Active = w.Active
		}
	}
}

func (r *Renderer) projection() projection {
	return projection{width: r.viewport.Width, height: r.viewport.Height}
}

func (r *Renderer) draw() {
	p := r.projection()
	r.screen.Clear()
	if p.rows() < 1 {
		r.screen.Show()
		return
	}

	r.drawBackground(p)
	r.drawPulses(p)
	for _, ind := range r.scene.Indicators {
		r.put(p, ind.Position, headingGlyph(ind.Heading), tcell.ColorWhite)
	}
	for _, pos := range r.radars {
		r.put(p, pos, glyphRadar, tcell.ColorAqua)
	}
	for _, st := range r.scene.Stations {
		if st.Active {
			r.put(p, st.Position, glyphStation, tcell.ColorYellow)
		} else {
			r.put(p, st.Position, glyphStationIdle, tcell.ColorOlive)
		}
	}
	r.drawStatus(p)
	r.screen.Show()
}

func (r *Renderer) drawBackground(p projection) {
	if r.background == nil {
		r.background = r.composite(p)
	}
	for row := 1; row < p.height; row++ {
		for col := 0; col < p.width; col++ {
			style := tcell.StyleDefault.Background(r.background[row][col])
			r.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

// composite blends the CAPE and SCP layers over black in draw order.
func (r *Renderer) composite(p projection) [][]tcell.Color {
	data := r.scene.Uniforms.WeatherData
	bg := make([][]tcell.Color, p.height)
	for row := 1; row < p.height; row++ {
		bg[row] = make([]tcell.Color, p.width)
		for col := 0; col < p.width; col++ {
			u, v := uv(p.world(col, row))
			c := domain.RGB{}
			if r.showCAPE {
				c = over(c, domain.CAPEField.Color(data, u, v), domain.CAPEField.Alpha)
			}
			if r.showSCP {
				c = over(c, domain.SCPField.Color(data, u, v), domain.SCPField.Alpha)
			}
			bg[row][col] = toColor(c)
		}
	}
	return bg
}

// drawPulses marks cells whose centre lies within half a cell of an active
// wavefront.
func (r *Renderer) drawPulses(p projection) {
	cellSize := 2 * planeHalf / float64(max(p.width-1, 1))
	for row := 1; row < p.height; row++ {
		for col := 0; col < p.width; col++ {
			x, z := p.world(col, row)
			for _, pl := range r.scene.Pulses {
				if !pl.Active {
					continue
				}
				d := domain.Vec3{X: x, Z: z}.DistanceTo(domain.Vec3{X: pl.Position.X, Z: pl.Position.Z})
				if d > pl.Radius-cellSize/2 && d <= pl.Radius+cellSize/2 {
					r.setGlyph(col, row, glyphPulse, tcell.ColorLime)
					break
				}
			}
		}
	}
}

func (r *Renderer) put(p projection, pos domain.Vec3, glyph rune, fg tcell.Color) {
	col, row, ok := p.cell(pos.X, pos.Z)
	if !ok {
		return
	}
	r.setGlyph(col, row, glyph, fg)
}

// setGlyph draws a glyph keeping the cell's heat-field background.
func (r *Renderer) setGlyph(col, row int, glyph rune, fg tcell.Color) {
	style := tcell.StyleDefault.Foreground(fg)
	if r.background != nil && row < len(r.background) && col < len(r.background[row]) {
		style = style.Background(r.background[row][col])
	}
	r.screen.SetContent(col, row, glyph, nil, style)
}

func (r *Renderer) drawStatus(p projection) {
	weather := "pending"
	if r.scene.Uniforms.WeatherData != nil {
		weather = fmt.Sprintf("%d slots", len(r.scene.Uniforms.WeatherData))
	}
	status := fmt.Sprintf(" frame %d  t=%.2f  pulses %d/%d  stations %d/%d  weather %s  [c]ape [s]cp [q]uit",
		r.seq, r.scene.Time,
		r.scene.ActivePulses(), len(r.scene.Pulses),
		r.scene.ActiveStations(), len(r.scene.Stations),
		weather,
	)
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	col := 0
	for _, ch := range status {
		if col >= p.width {
			break
		}
		r.screen.SetContent(col, 0, ch, nil, style)
		col++
	}
	for ; col < p.width; col++ {
		r.screen.SetContent(col, 0, ' ', nil, style)
	}
}
