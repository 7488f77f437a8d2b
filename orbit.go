package glsolar

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// OrbitControls moves a camera around its target in spherical coordinates.
// Input is accumulated with Rotate, Dolly and Pan and applied on Update.
type OrbitControls struct {
	Camera      *PerspectiveCamera
	MinDistance float32
	MaxDistance float32
	// MinPolarAngle and MaxPolarAngle bound the angle from the up axis, in radians.
	MinPolarAngle float32
	MaxPolarAngle float32
	RotateSpeed   float32
	ZoomSpeed     float32
	PanSpeed      float32
	EnablePan     bool

	dTheta, dPhi float32
	scale        float32
	panOffset    ms3.Vec
}

// NewOrbitControls returns controls for cam with no distance limits.
func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	return &OrbitControls{
		Camera:        cam,
		MinDistance:   0,
		MaxDistance:   math32.Inf(1),
		MinPolarAngle: 0,
		MaxPolarAngle: math32.Pi,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		EnablePan:     true,
		scale:         1,
	}
}

// Rotate orbits by a pointer drag of (dx, dy) pixels. A drag across the full
// viewport height is one full turn.
func (oc *OrbitControls) Rotate(dx, dy float32, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	h := float32(viewportHeight)
	oc.dTheta -= 2 * math32.Pi * dx / h * oc.RotateSpeed
	oc.dPhi -= 2 * math32.Pi * dy / h * oc.RotateSpeed
}

// Dolly moves the camera towards the target for positive scroll and away for negative scroll.
func (oc *OrbitControls) Dolly(scroll float32) {
	zoomScale := math32.Pow(0.95, oc.ZoomSpeed)
	if scroll > 0 {
		oc.scale *= zoomScale
	} else if scroll < 0 {
		oc.scale /= zoomScale
	}
}

// Pan translates camera and target parallel to the screen by a pointer drag of (dx, dy) pixels.
func (oc *OrbitControls) Pan(dx, dy float32, viewportHeight int) {
	if !oc.EnablePan || viewportHeight <= 0 {
		return
	}
	cam := oc.Camera
	offset := ms3.Sub(cam.Position, cam.Target)
	// Half the visible height at the target's distance.
	targetDistance := ms3.Norm(offset) * math32.Tan(cam.FOV*deg2rad/2)
	h := float32(viewportHeight)
	forward := ms3.Unit(ms3.Scale(-1, offset))
	right := ms3.Unit(ms3.Cross(forward, cam.Up))
	up := ms3.Cross(right, forward)
	left := ms3.Scale(-2*dx*targetDistance/h*oc.PanSpeed, right)
	upward := ms3.Scale(2*dy*targetDistance/h*oc.PanSpeed, up)
	oc.panOffset = ms3.Add(oc.panOffset, ms3.Add(left, upward))
}

// Update applies the accumulated input to the camera, enforcing the distance and
// polar angle limits, and leaves the camera looking at its target.
func (oc *OrbitControls) Update() {
	cam := oc.Camera
	offset := ms3.Sub(cam.Position, cam.Target)
	radius := ms3.Norm(offset)
	var theta, phi float32
	if radius > 0 {
		theta = math32.Atan2(offset.X, offset.Z)
		phi = math32.Acos(clampf(offset.Y/radius, -1, 1))
	}
	theta += oc.dTheta
	phi += oc.dPhi
	phi = clampf(phi, oc.MinPolarAngle, oc.MaxPolarAngle)
	phi = clampf(phi, epsPhi, math32.Pi-epsPhi)
	radius *= oc.scale
	radius = clampf(radius, oc.MinDistance, oc.MaxDistance)

	cam.Target = ms3.Add(cam.Target, oc.panOffset)
	sinPhi, cosPhi := math32.Sincos(phi)
	sinTheta, cosTheta := math32.Sincos(theta)
	cam.Position = ms3.Add(cam.Target, ms3.Vec{
		X: radius * sinPhi * sinTheta,
		Y: radius * cosPhi,
		Z: radius * sinPhi * cosTheta,
	})
	oc.dTheta, oc.dPhi = 0, 0
	oc.scale = 1
	oc.panOffset = ms3.Vec{}
}

// Distance returns the current distance between camera and target.
func (oc *OrbitControls) Distance() float32 {
	return ms3.Norm(ms3.Sub(oc.Camera.Position, oc.Camera.Target))
}
