package glsolar

// Surface is a render target whose size can change, such as a window framebuffer.
type Surface interface {
	SetSize(width, height int)
}

// Resizer keeps the camera projection and render surface in step with the viewport.
type Resizer struct {
	Camera  *PerspectiveCamera
	Surface Surface
	// Render, if not nil, draws one frame right after resizing so the
	// viewport does not show a stale frame until the next tick.
	Render func() error
}

// Resize sets the camera aspect to width/height, recomputes its projection, resizes
// the surface and renders once. Zero sized viewports, as reported for minimized
// windows, are ignored.
func (r *Resizer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.Camera.SetViewport(width, height)
	r.Surface.SetSize(width, height)
	if r.Render != nil {
		return r.Render()
	}
	return nil
}
