package glsolar

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

var (
	axisX = ms3.Vec{X: 1}
	axisY = ms3.Vec{Y: 1}
	axisZ = ms3.Vec{Z: 1}
)

// EulerMat4 returns the rotation matrix for Euler angles in radians applied in
// XYZ order, that is R = Rx * Ry * Rz.
func EulerMat4(euler ms3.Vec) ms3.Mat4 {
	m := ms3.RotationMat4(euler.X, axisX)
	m = ms3.MulMat4(m, ms3.RotationMat4(euler.Y, axisY))
	return ms3.MulMat4(m, ms3.RotationMat4(euler.Z, axisZ))
}

// ComposeMat4 returns T*R*S for a position, XYZ Euler rotation and scale.
func ComposeMat4(position, rotation, scale ms3.Vec) ms3.Mat4 {
	rs := ms3.MulMat4(EulerMat4(rotation), ms3.ScalingMat4(scale))
	return ms3.MulMat4(ms3.TranslatingMat4(position), rs)
}

// PerspectiveMat4 returns an OpenGL projection matrix. fovy is the vertical field of view in radians.
func PerspectiveMat4(fovy, aspect, near, far float32) ms3.Mat4 {
	f := 1 / math32.Tan(fovy/2)
	nf := 1 / (near - far)
	return ms3.NewMat4([]float32{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, 2 * far * near * nf,
		0, 0, -1, 0,
	})
}

// LookAtMat4 returns a view matrix for an eye looking at target.
func LookAtMat4(eye, target, up ms3.Vec) ms3.Mat4 {
	f := ms3.Unit(ms3.Sub(target, eye))
	s := ms3.Unit(ms3.Cross(f, up))
	u := ms3.Cross(s, f)
	return ms3.NewMat4([]float32{
		s.X, s.Y, s.Z, -ms3.Dot(s, eye),
		u.X, u.Y, u.Z, -ms3.Dot(u, eye),
		-f.X, -f.Y, -f.Z, ms3.Dot(f, eye),
		0, 0, 0, 1,
	})
}
