package glsolar

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Geometry holds the vertex data of a mesh. Positions, Normals, UVs and Colors,
// when present, are index aligned. Indices lists triangles as vertex index triples.
//
// Callers that modify Positions in place must call MarkDirty so that renderers
// re-upload the buffer before the next draw.
type Geometry struct {
	Positions []ms3.Vec
	Normals   []ms3.Vec
	UVs       []ms2.Vec
	Colors    []ms3.Vec
	Indices   []uint32
	version   uint64
}

// MarkDirty flags the position buffer as changed.
func (g *Geometry) MarkDirty() { g.version++ }

// Version returns a counter incremented on every MarkDirty call. Renderers
// compare it against the version they last uploaded.
func (g *Geometry) Version() uint64 { return g.version }

// NumVertices returns the length of the position buffer.
func (g *Geometry) NumVertices() int { return len(g.Positions) }

// NewSphereGeometry generates a UV sphere centered at the origin with
// (widthSegments+1)*(heightSegments+1) vertices, rows running from the north
// pole down. Seam and pole vertices are duplicated so equirectangular textures
// wrap without distortion at u=0 and u=1.
func NewSphereGeometry(radius float32, widthSegments, heightSegments int) *Geometry {
	widthSegments = max(3, widthSegments)
	heightSegments = max(2, heightSegments)
	const (
		phiStart, phiLength     = 0, 2 * math32.Pi
		thetaStart, thetaLength = 0, math32.Pi
	)
	const thetaEnd = thetaStart + thetaLength
	nv := (widthSegments + 1) * (heightSegments + 1)
	g := &Geometry{
		Positions: make([]ms3.Vec, 0, nv),
		Normals:   make([]ms3.Vec, 0, nv),
		UVs:       make([]ms2.Vec, 0, nv),
	}
	grid := make([][]uint32, heightSegments+1)
	var index uint32
	for iy := 0; iy <= heightSegments; iy++ {
		row := make([]uint32, widthSegments+1)
		v := float32(iy) / float32(heightSegments)
		// Special case for the poles.
		var uOffset float32
		if iy == 0 && thetaStart == 0 {
			uOffset = 0.5 / float32(widthSegments)
		} else if iy == heightSegments && thetaEnd == math32.Pi {
			uOffset = -0.5 / float32(widthSegments)
		}
		sinTheta, cosTheta := math32.Sincos(thetaStart + v*thetaLength)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			sinPhi, cosPhi := math32.Sincos(phiStart + u*phiLength)
			p := ms3.Vec{
				X: -radius * cosPhi * sinTheta,
				Y: radius * cosTheta,
				Z: radius * sinPhi * sinTheta,
			}
			g.Positions = append(g.Positions, p)
			n := p
			if l := ms3.Norm(p); l > 0 {
				n = ms3.Scale(1/l, p)
			}
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, ms2.Vec{X: u + uOffset, Y: 1 - v})
			row[ix] = index
			index++
		}
		grid[iy] = row
	}
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 || thetaStart > 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 || thetaEnd < math32.Pi {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}
	return g
}

// NewOctahedronGeometry returns an octahedron with vertices at distance radius
// from the origin along each axis. Faces do not share vertices.
func NewOctahedronGeometry(radius float32) *Geometry {
	vertices := [6]ms3.Vec{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	}
	faces := [8][3]int{
		{0, 2, 4}, {0, 4, 3}, {0, 3, 5}, {0, 5, 2},
		{1, 2, 5}, {1, 5, 3}, {1, 3, 4}, {1, 4, 2},
	}
	g := &Geometry{}
	for _, f := range faces {
		a, b, c := vertices[f[0]], vertices[f[1]], vertices[f[2]]
		n := ms3.Unit(ms3.Cross(ms3.Sub(b, a), ms3.Sub(c, a)))
		for _, v := range [3]ms3.Vec{a, b, c} {
			g.Indices = append(g.Indices, uint32(len(g.Positions)))
			g.Positions = append(g.Positions, ms3.Scale(radius, v))
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, ms2.Vec{})
		}
	}
	return g
}
