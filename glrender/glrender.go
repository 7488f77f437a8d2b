// Package glrender draws a [glsolar.Scene] with OpenGL and exports scene meshes.
//
// The OpenGL parts require cgo and a current OpenGL 4.1 context. The
// triangle export helpers are pure Go.
package glrender

import (
	"encoding/binary"
	"errors"
	"image"
	"io"
	"math"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glsolar"
)

var errNoCGO = errors.New("glrender: OpenGL rendering requires cgo")

// unitNormal returns the unit normal of t by the right hand rule.
// Degenerate triangles return the zero vector.
func unitNormal(t ms3.Triangle) ms3.Vec {
	n := t.Normal()
	norm := ms3.Norm(n)
	if norm == 0 {
		return ms3.Vec{}
	}
	return ms3.Scale(1/norm, n)
}

// AppendSceneTriangles appends the world space triangles of every visible mesh
// in scene to dst and returns the extended slice. Triangles are in world
// coordinates with counter-clockwise winding. Wireframe meshes are included.
// Unlit meshes such as light helpers are not.
func AppendSceneTriangles(dst []ms3.Triangle, scene *glsolar.Scene) []ms3.Triangle {
	scene.Root.Walk(ms3.IdentityMat4(), func(n *glsolar.Node, world ms3.Mat4) error {
		if n.Mesh == nil || n.Mesh.Material.Unlit {
			return nil
		}
		g := n.Mesh.Geometry
		for i := 0; i+2 < len(g.Indices); i += 3 {
			dst = append(dst, ms3.Triangle{
				world.MulPosition(g.Positions[g.Indices[i]]),
				world.MulPosition(g.Positions[g.Indices[i+1]]),
				world.MulPosition(g.Positions[g.Indices[i+2]]),
			})
		}
		return nil
	})
	return dst
}

const (
	stlHeaderSize   = 80
	stlTriangleSize = 4*3*4 + 2
)

// WriteBinarySTL writes triangles to w in the binary STL format.
// It returns the number of bytes written.
func WriteBinarySTL(w io.Writer, triangles []ms3.Triangle) (int, error) {
	if uint64(len(triangles)) > math.MaxUint32 {
		return 0, errors.New("too many triangles for STL")
	}
	var header [stlHeaderSize + 4]byte
	copy(header[:], "glsolar scene export")
	binary.LittleEndian.PutUint32(header[stlHeaderSize:], uint32(len(triangles)))
	n, err := w.Write(header[:])
	if err != nil {
		return n, err
	}
	var buf [stlTriangleSize]byte
	for _, t := range triangles {
		putVec := func(off int, v ms3.Vec) {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.X))
			binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Y))
			binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.Z))
		}
		putVec(0, unitNormal(t))
		putVec(12, t[0])
		putVec(24, t[1])
		putVec(36, t[2])
		ngot, err := w.Write(buf[:])
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// vertexStride is the number of floats per interleaved vertex:
// position(3), normal(3), uv(2), color(3).
const vertexStride = 3 + 3 + 2 + 3

// packVertices interleaves the vertex attributes of g into dst, reusing its storage.
// Missing normals and UVs are zero. Missing colors are white.
func packVertices(dst []float32, g *glsolar.Geometry) []float32 {
	dst = dst[:0]
	for i, p := range g.Positions {
		var n ms3.Vec
		var u, v float32
		c := ms3.Vec{X: 1, Y: 1, Z: 1}
		if i < len(g.Normals) {
			n = g.Normals[i]
		}
		if i < len(g.UVs) {
			u, v = g.UVs[i].X, g.UVs[i].Y
		}
		if i < len(g.Colors) {
			c = g.Colors[i]
		}
		dst = append(dst, p.X, p.Y, p.Z, n.X, n.Y, n.Z, u, v, c.X, c.Y, c.Z)
	}
	return dst
}

// overlayQuad returns a triangle strip covering rect as (x, y, u, v) vertices in
// normalized device coordinates. rect and viewport are in framebuffer pixels with
// the origin at the top left. Texture row 0 maps to the top of rect.
func overlayQuad(rect image.Rectangle, viewport image.Point) [16]float32 {
	vw, vh := float32(viewport.X), float32(viewport.Y)
	x0 := 2*float32(rect.Min.X)/vw - 1
	x1 := 2*float32(rect.Max.X)/vw - 1
	y0 := 1 - 2*float32(rect.Min.Y)/vh
	y1 := 1 - 2*float32(rect.Max.Y)/vh
	return [16]float32{
		x0, y1, 0, 1,
		x1, y1, 1, 1,
		x0, y0, 0, 0,
		x1, y0, 1, 0,
	}
}

// Stats counts the work done by the last Render call.
type Stats struct {
	DrawCalls int
	Triangles int
	// Uploads counts vertex buffer uploads caused by dirty geometries.
	Uploads int
}

const meshVertexShader = `#version 410
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
layout(location = 3) in vec3 aColor;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProj;

out vec3 vNormal;
out vec2 vUV;
out vec3 vColor;

void main() {
	vNormal = mat3(uModel) * aNormal;
	vUV = aUV;
	vColor = aColor;
	gl_Position = uProj * uView * uModel * vec4(aPos, 1.0);
}
` + "\x00"

// The hemisphere light contributes diffuse irradiance only, so roughness has no
// visible effect and metalness darkens the diffuse color.
const meshFragmentShader = `#version 410
in vec3 vNormal;
in vec2 vUV;
in vec3 vColor;

uniform vec3 uColor;
uniform vec3 uSky;
uniform vec3 uGround;
uniform vec3 uLightDir;
uniform float uMetalness;
uniform int uUseTexture;
uniform int uUseVertexColor;
uniform int uUnlit;
uniform sampler2D uTexture;

out vec4 fragColor;

void main() {
	vec3 base = uColor;
	if (uUseVertexColor == 1) {
		base *= vColor;
	}
	if (uUseTexture == 1) {
		base *= texture(uTexture, vUV).rgb;
	}
	if (uUnlit == 1) {
		fragColor = vec4(base, 1.0);
		return;
	}
	vec3 n = normalize(vNormal);
	if (!gl_FrontFacing) {
		n = -n;
	}
	float w = 0.5 * dot(n, uLightDir) + 0.5;
	vec3 irradiance = mix(uGround, uSky, w);
	fragColor = vec4(base * (1.0 - uMetalness) * irradiance, 1.0);
}
` + "\x00"

const overlayVertexShader = `#version 410
in vec4 aVert;
out vec2 vUV;
void main() {
	vUV = aVert.zw;
	gl_Position = vec4(aVert.xy, 0.0, 1.0);
}
` + "\x00"

const overlayFragmentShader = `#version 410
in vec2 vUV;
uniform sampler2D uOverlay;
out vec4 fragColor;
void main() {
	fragColor = texture(uOverlay, vUV);
}
` + "\x00"
