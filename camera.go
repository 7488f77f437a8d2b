package glsolar

import (
	"github.com/soypat/geometry/ms3"
)

// PerspectiveCamera is a pinhole camera looking from Position at Target.
type PerspectiveCamera struct {
	// FOV is the vertical field of view in degrees.
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32

	Position ms3.Vec
	Target   ms3.Vec
	Up       ms3.Vec

	projection ms3.Mat4
}

// NewPerspectiveCamera returns a camera at the origin looking down -Z with its projection computed.
func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	cam := &PerspectiveCamera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: ms3.Vec{Z: -1},
		Up:     ms3.Vec{Y: 1},
	}
	cam.UpdateProjection()
	return cam
}

// UpdateProjection recomputes the projection matrix. It must be called after
// changing FOV, Aspect, Near or Far.
func (cam *PerspectiveCamera) UpdateProjection() {
	cam.projection = PerspectiveMat4(cam.FOV*deg2rad, cam.Aspect, cam.Near, cam.Far)
}

// Projection returns the projection matrix computed by the last UpdateProjection call.
func (cam *PerspectiveCamera) Projection() ms3.Mat4 { return cam.projection }

// View returns the world to camera matrix.
func (cam *PerspectiveCamera) View() ms3.Mat4 {
	return LookAtMat4(cam.Position, cam.Target, cam.Up)
}

// LookAt points the camera at target.
func (cam *PerspectiveCamera) LookAt(target ms3.Vec) { cam.Target = target }

// SetViewport sets the aspect ratio to width/height and updates the projection.
// It reports whether the aspect changed. Degenerate sizes are ignored.
func (cam *PerspectiveCamera) SetViewport(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	aspect := float32(width) / float32(height)
	if aspect == cam.Aspect {
		return false
	}
	cam.Aspect = aspect
	cam.UpdateProjection()
	return true
}
