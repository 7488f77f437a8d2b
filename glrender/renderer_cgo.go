//go:build !tinygo && cgo

package glrender

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/anthonynsimon/bild/transform"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.1-core/glgl"
	"github.com/soypat/glsolar"
)

const (
	attribPosition = 0
	attribNormal   = 1
	attribUV       = 2
	attribColor    = 3
)

type meshUniforms struct {
	model, view, proj       int32
	color, sky, ground, dir int32
	metalness               int32
	useTexture, useVColor   int32
	unlit, texture          int32
}

type meshBuffers struct {
	vao, vbo, ebo uint32
	version       uint64
	numIndices    int32
	numVertices   int
}

// Renderer draws scenes to the framebuffer of the current OpenGL context.
// All methods must be called from the thread that owns the context.
type Renderer struct {
	prog    glgl.Program
	u       meshUniforms
	meshes  map[*glsolar.Geometry]*meshBuffers
	tex     map[string]uint32
	scratch []float32
	width   int
	height  int
	stats   Stats

	overlay     glgl.Program
	overlayVAO  uint32
	overlayVBO  uint32
	overlayTex  uint32
	overlaySize image.Point
}

// NewRenderer compiles the shader programs. width and height are the initial framebuffer size.
func NewRenderer(width, height int) (*Renderer, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   meshVertexShader,
		Fragment: meshFragmentShader,
	})
	if err != nil {
		return nil, fmt.Errorf("compiling mesh program: %w", err)
	}
	r := &Renderer{
		prog:   prog,
		meshes: make(map[*glsolar.Geometry]*meshBuffers),
		tex:    make(map[string]uint32),
	}
	for _, loc := range []struct {
		dst  *int32
		name string
	}{
		{&r.u.model, "uModel\x00"},
		{&r.u.view, "uView\x00"},
		{&r.u.proj, "uProj\x00"},
		{&r.u.color, "uColor\x00"},
		{&r.u.sky, "uSky\x00"},
		{&r.u.ground, "uGround\x00"},
		{&r.u.dir, "uLightDir\x00"},
		{&r.u.metalness, "uMetalness\x00"},
		{&r.u.useTexture, "uUseTexture\x00"},
		{&r.u.useVColor, "uUseVertexColor\x00"},
		{&r.u.unlit, "uUnlit\x00"},
		{&r.u.texture, "uTexture\x00"},
	} {
		*loc.dst, err = prog.UniformLocation(loc.name)
		if err != nil {
			prog.Delete()
			return nil, fmt.Errorf("mesh uniform %s: %w", loc.name[:len(loc.name)-1], err)
		}
	}
	err = r.initOverlay()
	if err != nil {
		prog.Delete()
		return nil, err
	}
	r.SetSize(width, height)
	return r, nil
}

func (r *Renderer) initOverlay() error {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   overlayVertexShader,
		Fragment: overlayFragmentShader,
	})
	if err != nil {
		return fmt.Errorf("compiling overlay program: %w", err)
	}
	r.overlay = prog
	vertAttrib, err := prog.AttribLocation("aVert\x00")
	if err != nil {
		return err
	}
	gl.GenVertexArrays(1, &r.overlayVAO)
	gl.BindVertexArray(r.overlayVAO)
	gl.GenBuffers(1, &r.overlayVBO)
	if r.overlayVBO == 0 {
		return glErrOrMessage("overlay buffer got zero id")
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.overlayVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 16*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(vertAttrib)
	gl.VertexAttribPointer(vertAttrib, 4, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	gl.GenTextures(1, &r.overlayTex)
	gl.BindTexture(gl.TEXTURE_2D, r.overlayTex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return glgl.Err()
}

// SetSize sets the GL viewport to the framebuffer size. It implements [glsolar.Surface].
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Size returns the framebuffer size last passed to SetSize.
func (r *Renderer) Size() image.Point { return image.Pt(r.width, r.height) }

// Stats returns the counters of the last Render call.
func (r *Renderer) Stats() Stats { return r.stats }

// SetTexture uploads img under name, replacing any texture of the same name.
// Materials reference textures by name. img rows are uploaded in order, so
// images destined for meshes should be flipped beforehand.
func (r *Renderer) SetTexture(name string, img *image.RGBA) error {
	if img.Stride != 4*img.Rect.Dx() {
		return errors.New("texture image rows must be tightly packed")
	}
	tex, ok := r.tex[name]
	if !ok {
		gl.GenTextures(1, &tex)
		if tex == 0 {
			return glErrOrMessage("texture got zero id")
		}
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	w, h := int32(img.Rect.Dx()), int32(img.Rect.Dy())
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	err := glgl.Err()
	if err != nil {
		return fmt.Errorf("uploading texture %q: %w", name, err)
	}
	r.tex[name] = tex
	return nil
}

// HasTexture reports whether a texture was uploaded under name.
func (r *Renderer) HasTexture(name string) bool {
	_, ok := r.tex[name]
	return ok
}

// Render clears the framebuffer and draws every visible mesh of scene from cam.
// Geometries whose version changed since the last upload are re-uploaded first.
func (r *Renderer) Render(scene *glsolar.Scene, cam *glsolar.PerspectiveCamera) error {
	r.stats = Stats{}
	bg := scene.Background
	gl.ClearColor(bg.R, bg.G, bg.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.FrontFace(gl.CCW)
	gl.CullFace(gl.BACK)

	r.prog.Bind()
	defer r.prog.Unbind()
	// ms3 matrices are row major, GL transposes them on upload.
	view, proj := cam.View().Array(), cam.Projection().Array()
	gl.UniformMatrix4fv(r.u.view, 1, true, &view[0])
	gl.UniformMatrix4fv(r.u.proj, 1, true, &proj[0])
	var sky, ground glsolar.Color
	dir := ms3.Vec{Y: 1}
	if l := scene.Light; l != nil {
		sky = scaleColor(l.SkyColor, l.Intensity)
		ground = scaleColor(l.GroundColor, l.Intensity)
		dir = l.Direction()
	}
	gl.Uniform3f(r.u.sky, sky.R, sky.G, sky.B)
	gl.Uniform3f(r.u.ground, ground.R, ground.G, ground.B)
	gl.Uniform3f(r.u.dir, dir.X, dir.Y, dir.Z)
	gl.Uniform1i(r.u.texture, 0)
	gl.ActiveTexture(gl.TEXTURE0)

	err := scene.Root.Walk(ms3.IdentityMat4(), func(n *glsolar.Node, world ms3.Mat4) error {
		if n.Mesh == nil {
			return nil
		}
		return r.drawMesh(n.Mesh, world)
	})
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.BindVertexArray(0)
	if err != nil {
		return err
	}
	return glgl.Err()
}

func (r *Renderer) drawMesh(mesh *glsolar.Mesh, world ms3.Mat4) error {
	buf, err := r.upload(mesh.Geometry)
	if err != nil {
		return err
	}
	mat := &mesh.Material
	model := world.Array()
	gl.UniformMatrix4fv(r.u.model, 1, true, &model[0])
	gl.Uniform3f(r.u.color, mat.Color.R, mat.Color.G, mat.Color.B)
	gl.Uniform1f(r.u.metalness, mat.Metalness)
	gl.Uniform1i(r.u.useVColor, boolToInt(mat.VertexColors))
	gl.Uniform1i(r.u.unlit, boolToInt(mat.Unlit))
	// Missing textures fall back to the base color.
	tex, hasTex := r.tex[mat.Texture]
	gl.Uniform1i(r.u.useTexture, boolToInt(hasTex))
	if hasTex {
		gl.BindTexture(gl.TEXTURE_2D, tex)
	}
	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
	}
	if mat.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.BindVertexArray(buf.vao)
	gl.DrawElements(gl.TRIANGLES, buf.numIndices, gl.UNSIGNED_INT, gl.PtrOffset(0))
	r.stats.DrawCalls++
	r.stats.Triangles += int(buf.numIndices) / 3
	return nil
}

// upload creates the buffers of g on first use and refreshes its vertex data
// when its version changed.
func (r *Renderer) upload(g *glsolar.Geometry) (*meshBuffers, error) {
	buf, ok := r.meshes[g]
	if ok && buf.version == g.Version() && buf.numVertices == g.NumVertices() {
		return buf, nil
	}
	r.scratch = packVertices(r.scratch, g)
	if len(r.scratch) == 0 || len(g.Indices) == 0 {
		return nil, errors.New("cannot draw empty geometry")
	}
	if ok && buf.numVertices == g.NumVertices() {
		gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, 4*len(r.scratch), gl.Ptr(r.scratch))
		buf.version = g.Version()
		r.stats.Uploads++
		return buf, glgl.Err()
	}
	if ok {
		r.deleteMesh(buf)
	}
	buf = &meshBuffers{
		version:     g.Version(),
		numIndices:  int32(len(g.Indices)),
		numVertices: g.NumVertices(),
	}
	var p runtime.Pinner
	p.Pin(buf)
	defer p.Unpin()
	gl.GenVertexArrays(1, &buf.vao)
	gl.BindVertexArray(buf.vao)
	gl.GenBuffers(1, &buf.vbo)
	gl.GenBuffers(1, &buf.ebo)
	if buf.vao == 0 || buf.vbo == 0 || buf.ebo == 0 {
		return nil, glErrOrMessage("mesh buffers got zero id")
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(r.scratch), gl.Ptr(r.scratch), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(g.Indices), gl.Ptr(g.Indices), gl.STATIC_DRAW)
	const stride = 4 * vertexStride
	for _, attr := range []struct {
		loc, size uint32
		offset    int
	}{
		{attribPosition, 3, 0},
		{attribNormal, 3, 3 * 4},
		{attribUV, 2, 6 * 4},
		{attribColor, 3, 8 * 4},
	} {
		gl.EnableVertexAttribArray(attr.loc)
		gl.VertexAttribPointer(attr.loc, int32(attr.size), gl.FLOAT, false, stride, gl.PtrOffset(attr.offset))
	}
	gl.BindVertexArray(0)
	err := glgl.Err()
	if err != nil {
		r.deleteMesh(buf)
		return nil, fmt.Errorf("uploading mesh: %w", err)
	}
	r.meshes[g] = buf
	r.stats.Uploads++
	return buf, nil
}

// DrawOverlay draws img unscaled over the framebuffer with its top left corner at
// the given framebuffer pixel, without depth testing. The image is uploaded on
// every call, so it should be small.
func (r *Renderer) DrawOverlay(img *image.RGBA, topLeft image.Point) error {
	if img.Stride != 4*img.Rect.Dx() {
		return errors.New("overlay image rows must be tightly packed")
	}
	size := img.Rect.Size()
	if size.X == 0 || size.Y == 0 || r.width == 0 || r.height == 0 {
		return nil
	}
	gl.Disable(gl.DEPTH_TEST)
	defer gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.overlayTex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if size != r.overlaySize {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		r.overlaySize = size
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(size.X), int32(size.Y), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	quad := overlayQuad(image.Rectangle{Min: topLeft, Max: topLeft.Add(size)}, image.Pt(r.width, r.height))
	r.overlay.Bind()
	defer r.overlay.Unbind()
	gl.BindVertexArray(r.overlayVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.overlayVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, 4*len(quad), gl.Ptr(&quad[0]))
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	return glgl.Err()
}

// ReadPixels returns the current framebuffer contents with the first row at the top.
func (r *Renderer) ReadPixels() (*image.RGBA, error) {
	if r.width <= 0 || r.height <= 0 {
		return nil, errors.New("empty framebuffer")
	}
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	err := glgl.Err()
	if err != nil {
		return nil, fmt.Errorf("reading framebuffer: %w", err)
	}
	// OpenGL returns rows bottom up.
	return transform.FlipV(img), nil
}

// Delete frees all GPU resources held by r.
func (r *Renderer) Delete() {
	for g, buf := range r.meshes {
		r.deleteMesh(buf)
		delete(r.meshes, g)
	}
	for name, tex := range r.tex {
		gl.DeleteTextures(1, &tex)
		delete(r.tex, name)
	}
	gl.DeleteTextures(1, &r.overlayTex)
	gl.DeleteBuffers(1, &r.overlayVBO)
	gl.DeleteVertexArrays(1, &r.overlayVAO)
	r.overlay.Delete()
	r.prog.Delete()
}

func (r *Renderer) deleteMesh(buf *meshBuffers) {
	gl.DeleteBuffers(1, &buf.vbo)
	gl.DeleteBuffers(1, &buf.ebo)
	gl.DeleteVertexArrays(1, &buf.vao)
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func scaleColor(c glsolar.Color, f float32) glsolar.Color {
	return glsolar.Color{R: c.R * f, G: c.G * f, B: c.B * f}
}
