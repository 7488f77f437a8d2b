package glsolar

import (
	"github.com/soypat/geometry/ms3"
)

// HemisphereLight lights a scene with a sky color from above and a ground color
// from below. The light direction is given by Position, pointing from the
// position towards the origin. Surfaces facing Position receive SkyColor and
// surfaces facing away receive GroundColor.
type HemisphereLight struct {
	SkyColor    Color
	GroundColor Color
	Intensity   float32
	Position    ms3.Vec
}

// NewHemisphereLight returns a light positioned straight up at (0,1,0).
func NewHemisphereLight(sky, ground Color, intensity float32) *HemisphereLight {
	return &HemisphereLight{
		SkyColor:    sky,
		GroundColor: ground,
		Intensity:   intensity,
		Position:    ms3.Vec{Y: 1},
	}
}

// Direction returns the unit vector pointing towards the sky. A light at the
// origin has no defined direction and returns +Y.
func (l *HemisphereLight) Direction() ms3.Vec {
	if ms3.Norm(l.Position) == 0 {
		return ms3.Vec{Y: 1}
	}
	return ms3.Unit(l.Position)
}

// Irradiance returns the light received by a surface with unit normal n.
func (l *HemisphereLight) Irradiance(n ms3.Vec) Color {
	w := 0.5*ms3.Dot(n, l.Direction()) + 0.5
	c := l.GroundColor.Lerp(l.SkyColor, w)
	c.R *= l.Intensity
	c.G *= l.Intensity
	c.B *= l.Intensity
	return c
}

// NewHemisphereLightHelper returns an unlit wireframe octahedron of the given size
// that visualizes light. The upper half is painted with the sky color and the lower
// half with the ground color. Call [SyncLightHelper] after moving the light.
func NewHemisphereLightHelper(light *HemisphereLight, size float32) *Node {
	geom := NewOctahedronGeometry(size)
	geom.Colors = make([]ms3.Vec, len(geom.Positions))
	mat := Material{Color: White, Wireframe: true, DoubleSided: true, VertexColors: true, Unlit: true}
	helper := NewMeshNode("hemisphereLightHelper", geom, mat)
	SyncLightHelper(helper, light)
	return helper
}

// SyncLightHelper moves helper to the light position and repaints it with the light colors.
func SyncLightHelper(helper *Node, light *HemisphereLight) {
	helper.Position = light.Position
	geom := helper.Mesh.Geometry
	sky, ground := light.SkyColor.Vec(), light.GroundColor.Vec()
	changed := false
	for i, p := range geom.Positions {
		c := ground
		if p.Y >= 0 {
			c = sky
		}
		if geom.Colors[i] != c {
			geom.Colors[i] = c
			changed = true
		}
	}
	if changed {
		geom.MarkDirty()
	}
}
