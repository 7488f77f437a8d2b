// Package glsolar implements a small scene graph of nested transform groups,
// sphere meshes and a hemisphere light, along with the per-frame animation of a
// toy solar system: a jittering wireframe sun, an orbiting earth and its moon.
//
// Nothing in this package talks to the GPU. Rendering lives in [github.com/soypat/glsolar/glrender]
// and the window/event loop in [github.com/soypat/glsolar/solaraux].
package glsolar

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	deg2rad = math32.Pi / 180
	// epsPhi keeps the orbit camera away from the poles where the view matrix degenerates.
	epsPhi = 1e-6
)

// Color is a linear RGB color with components in 0..1.
type Color struct {
	R, G, B float32
}

// ColorFromRGBA converts a standard library color to a [Color], dropping alpha.
func ColorFromRGBA(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{
		R: float32(r) / 0xffff,
		G: float32(g) / 0xffff,
		B: float32(b) / 0xffff,
	}
}

// Lerp linearly interpolates between c and c2. t=0 returns c.
func (c Color) Lerp(c2 Color, t float32) Color {
	return Color{
		R: c.R + (c2.R-c.R)*t,
		G: c.G + (c2.G-c.G)*t,
		B: c.B + (c2.B-c.B)*t,
	}
}

// Vec returns the color as a vector for vertex color buffers.
func (c Color) Vec() ms3.Vec { return ms3.Vec{X: c.R, Y: c.G, Z: c.B} }

var (
	White = Color{R: 1, G: 1, B: 1}
	Blue  = Color{B: 1}
	// Green is the CSS "green", which is only half intensity.
	Green = Color{G: 128. / 255}
)

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
