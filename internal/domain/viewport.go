package domain

// Camera holds the projection parameters of the reference view.
type Camera struct {
	FOV      float64 `json:"fov"`
	Near     float64 `json:"near"`
	Far      float64 `json:"far"`
	Aspect   float64 `json:"aspect"`
	Position Vec3    `json:"position"`
	Target   Vec3    `json:"target"`
}

// Viewport is the drawable surface size and the camera bound to it.
type Viewport struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Camera Camera `json:"camera"`
}

// NewViewport returns the reference camera (75° fov, raised behind the
// origin and looking at it) sized to w x h.
func NewViewport(w, h int) Viewport {
	vp := Viewport{
		Camera: Camera{
			FOV:      75,
			Near:     0.1,
			Far:      1000,
			Position: Vec3{Y: 50, Z: 100},
		},
	}
	vp.Resize(w, h)
	return vp
}

// Resize updates the surface size and recomputes the camera aspect. A
// degenerate height keeps the previous aspect.
func (vp *Viewport) Resize(w, h int) {
	vp.Width, vp.Height = w, h
	if h > 0 {
		vp.Camera.Aspect = float64(w) / float64(h)
	}
}
