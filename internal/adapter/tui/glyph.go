package tui

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

const (
	planeHalf = 50.0

	glyphRadar       = 'R'
	glyphStation     = '◆'
	glyphStationIdle = '◇'
	glyphPulse       = '·'
	glyphUp          = '•'
)

// arrows in screen order starting at east and turning toward north.
var arrows = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// headingGlyph projects a heading onto the ground plane and picks the closest
// of eight arrows. Screen up is world -Z. Headings with no ground component
// render as a dot.
func headingGlyph(h domain.Vec3) rune {
	gx, gz := h.X, h.Z
	if math.Hypot(gx, gz) < 1e-6 {
		return glyphUp
	}
	angle := math.Atan2(-gz, gx)
	idx := int(math.Round(angle/(math.Pi/4))) % 8
	if idx < 0 {
		idx += 8
	}
	return arrows[idx]
}

// projection maps between world xz and terminal cells. Row 0 is reserved for
// the status line.
type projection struct {
	width, height int
}

func (p projection) rows() int { return p.height - 1 }

// cell returns the terminal cell for world (x, z), and false when it falls
// outside the drawable area.
func (p projection) cell(x, z float64) (col, row int, ok bool) {
	if p.width < 1 || p.rows() < 1 {
		return 0, 0, false
	}
	col = int(math.Round((x + planeHalf) / (2 * planeHalf) * float64(p.width-1)))
	row = 1 + int(math.Round((z+planeHalf)/(2*planeHalf)*float64(p.rows()-1)))
	if col < 0 || col >= p.width || row < 1 || row >= p.height {
		return 0, 0, false
	}
	return col, row, true
}

// world returns the world xz at the centre of a drawable cell.
func (p projection) world(col, row int) (x, z float64) {
	x = -planeHalf + 2*planeHalf*float64(col)/float64(max(p.width-1, 1))
	z = -planeHalf + 2*planeHalf*float64(row-1)/float64(max(p.rows()-1, 1))
	return x, z
}

// uv returns the heat-field plane coordinate of world (x, z). The plane lies
// flat with its v axis along world -Z.
func uv(x, z float64) (u, v float64) {
	return (x + planeHalf) / (2 * planeHalf), (planeHalf - z) / (2 * planeHalf)
}

// over composites src with opacity alpha onto dst.
func over(dst, src domain.RGB, alpha float64) domain.RGB {
	return dst.Lerp(src, alpha)
}

func toColor(c domain.RGB) tcell.Color {
	return tcell.NewRGBColor(channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int32 {
	return int32(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
