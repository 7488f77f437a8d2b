package glsolar

import (
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

func TestSphereGeometry(t *testing.T) {
	const tol = 1e-5
	for _, tc := range []struct {
		r    float32
		w, h int
	}{
		{5, 64, 64},
		{0.5, 32, 16},
		{0.1, 32, 16},
		{1, 3, 2},
	} {
		g := NewSphereGeometry(tc.r, tc.w, tc.h)
		nv := (tc.w + 1) * (tc.h + 1)
		if g.NumVertices() != nv || len(g.Normals) != nv || len(g.UVs) != nv {
			t.Fatalf("%+v: want %d vertices, got %d/%d/%d", tc, nv, len(g.Positions), len(g.Normals), len(g.UVs))
		}
		// Pole rows contribute a single triangle per segment.
		ntri := tc.w * (2*tc.h - 2)
		if len(g.Indices) != 3*ntri {
			t.Errorf("%+v: want %d indices, got %d", tc, 3*ntri, len(g.Indices))
		}
		for i, p := range g.Positions {
			if math32.Abs(ms3.Norm(p)-tc.r) > tol*tc.r {
				t.Fatalf("%+v: vertex %d not on sphere: %v", tc, i, p)
			}
			// Pole vertices are shifted half a segment in u.
			uv := g.UVs[i]
			du := 0.5 / float32(tc.w)
			if uv.X < -du || uv.X > 1+du || uv.Y < 0 || uv.Y > 1 {
				t.Fatalf("%+v: uv %d out of range: %v", tc, i, uv)
			}
		}
		for _, idx := range g.Indices {
			if int(idx) >= nv {
				t.Fatalf("%+v: index %d out of range", tc, idx)
			}
		}
		if g.Positions[0].Y != tc.r {
			t.Errorf("%+v: first vertex should be the north pole, got %v", tc, g.Positions[0])
		}
	}
}

func TestOctahedronGeometry(t *testing.T) {
	g := NewOctahedronGeometry(2)
	if g.NumVertices() != 24 || len(g.Indices) != 24 {
		t.Fatalf("want 24 vertices and indices, got %d %d", g.NumVertices(), len(g.Indices))
	}
	for i, p := range g.Positions {
		if ms3.Norm(p) != 2 {
			t.Errorf("vertex %d at distance %v", i, ms3.Norm(p))
		}
		// Outward normals.
		if ms3.Dot(g.Normals[i], p) <= 0 {
			t.Errorf("vertex %d normal points inwards", i)
		}
	}
}

func TestGeometryVersion(t *testing.T) {
	g := NewSphereGeometry(1, 8, 4)
	if g.Version() != 0 {
		t.Fatal("new geometry must start at version 0")
	}
	g.MarkDirty()
	g.MarkDirty()
	if g.Version() != 2 {
		t.Errorf("want version 2, got %d", g.Version())
	}
}

func TestNodeAdd(t *testing.T) {
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	a.Add(b)
	b.Add(c)
	if c.Parent() != b || b.Parent() != a {
		t.Fatal("bad parents")
	}
	a.Add(c)
	if c.Parent() != a || len(b.Children()) != 0 || len(a.Children()) != 2 {
		t.Error("re-adding must detach from previous parent")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on cycle")
		}
	}()
	b.Add(a)
}

func TestNodeWalk(t *testing.T) {
	root := NewGroup("root")
	g := NewGroup("g")
	g.Position = ms3.Vec{X: 2}
	hidden := NewGroup("hidden")
	hidden.Visible = false
	leaf := NewGroup("leaf")
	leaf.Position = ms3.Vec{Y: 1}
	g.Add(leaf)
	hidden.Add(NewGroup("under-hidden"))
	root.Add(g, hidden)

	var names []string
	var leafWorld ms3.Mat4
	err := root.Walk(ms3.IdentityMat4(), func(n *Node, world ms3.Mat4) error {
		names = append(names, n.Name)
		if n == leaf {
			leafWorld = world
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"root", "g", "leaf"}
	if len(names) != len(want) {
		t.Fatalf("want visited %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("want visited %v, got %v", want, names)
		}
	}
	if p := leafWorld.MulPosition(ms3.Vec{}); p != (ms3.Vec{X: 2, Y: 1}) {
		t.Errorf("leaf world position want (2,1,0), got %v", p)
	}

	for _, skip := range []error{ErrSkipChildren, fmt.Errorf("pruning %s: %w", g.Name, ErrSkipChildren)} {
		names = names[:0]
		err = root.Walk(ms3.IdentityMat4(), func(n *Node, world ms3.Mat4) error {
			names = append(names, n.Name)
			if n == g {
				return skip
			}
			return nil
		})
		if err != nil {
			t.Errorf("skip error %q leaked out of Walk: %v", skip, err)
		}
		if len(names) != 2 {
			t.Errorf("%q did not skip children: %v", skip, names)
		}
	}
}

func TestNestedRotationCompounds(t *testing.T) {
	const tol = 1e-5
	outer := NewGroup("outer")
	inner := NewGroup("inner")
	inner.Position = ms3.Vec{X: 10}
	leaf := NewGroup("leaf")
	leaf.Position = ms3.Vec{X: 1}
	outer.Add(inner)
	inner.Add(leaf)
	outer.Rotation.Y = math32.Pi / 2
	inner.Rotation.Y = math32.Pi / 2
	// Outer turns inner's origin to -Z, inner turns leaf offset by another quarter turn.
	got := leaf.WorldPosition()
	want := ms3.Vec{X: -1, Z: -10}
	if ms3.Norm(ms3.Sub(got, want)) > tol {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestMat4(t *testing.T) {
	const tol = 1e-5
	p := ms3.Vec{X: 0.5, Y: -4, Z: 9}
	euler := ms3.Vec{X: 0.3, Y: -1.2, Z: 2}
	r := EulerMat4(euler)
	// Rotations preserve length.
	if math32.Abs(ms3.Norm(r.MulPosition(p))-ms3.Norm(p)) > tol {
		t.Error("rotation changed vector length")
	}
	for _, axis := range []ms3.Vec{axisX, axisY, axisZ} {
		single := EulerMat4(ms3.Scale(0.5, axis))
		if !ms3.EqualMat4(single, ms3.RotationMat4(0.5, axis), tol) {
			t.Errorf("single axis rotation about %v differs from axis-angle rotation", axis)
		}
	}
	rxyz := ms3.MulMat4(ms3.MulMat4(ms3.RotationMat4(euler.X, axisX), ms3.RotationMat4(euler.Y, axisY)), ms3.RotationMat4(euler.Z, axisZ))
	if !ms3.EqualMat4(r, rxyz, tol) {
		t.Error("XYZ Euler order must compose as Rx*Ry*Rz")
	}

	pos, scale := ms3.Vec{X: 1, Y: 2, Z: 3}, ms3.Vec{X: 2, Y: 2, Z: 2}
	m := ComposeMat4(pos, ms3.Vec{}, scale)
	if got := m.MulPosition(ms3.Vec{X: 1, Y: 1, Z: 1}); got != (ms3.Vec{X: 3, Y: 4, Z: 5}) {
		t.Errorf("compose: want scale then translate, got %v", got)
	}
	m = ComposeMat4(pos, euler, scale)
	want := ms3.MulMat4(ms3.TranslatingMat4(pos), ms3.MulMat4(r, ms3.ScalingMat4(scale)))
	if !ms3.EqualMat4(m, want, tol) {
		t.Error("compose must equal T*R*S")
	}

	eye := ms3.Vec{Y: 10, Z: 20}
	view := LookAtMat4(eye, ms3.Vec{}, ms3.Vec{Y: 1})
	if ms3.Norm(view.MulPosition(eye)) > tol {
		t.Error("view must map eye to origin")
	}
	// Target lies on the -Z axis in view space.
	tv := view.MulPosition(ms3.Vec{})
	if math32.Abs(tv.X) > tol || math32.Abs(tv.Y) > tol || tv.Z >= 0 {
		t.Errorf("target in view space %v", tv)
	}
}

func TestPerspectiveMat4(t *testing.T) {
	const tol = 1e-4
	near, far := float32(0.1), float32(1000)
	proj := PerspectiveMat4(75*deg2rad, 1.5, near, far).Array()
	clipZ := func(z float32) float32 {
		// Row major: row 2 gives clip z, w = -z for a perspective projection.
		return (proj[10]*z + proj[11]) / -z
	}
	if proj[14] != -1 {
		t.Errorf("want w = -z, got row 3 %v", proj[12:])
	}
	if math32.Abs(clipZ(-near)+1) > tol {
		t.Errorf("near plane should map to -1, got %v", clipZ(-near))
	}
	if math32.Abs(clipZ(-far)-1) > tol {
		t.Errorf("far plane should map to 1, got %v", clipZ(-far))
	}
}

func TestOrbitControlsDistanceLimits(t *testing.T) {
	const tol = 1e-3
	cam := NewPerspectiveCamera(75, 1, 0.1, 1000)
	cam.Position = ms3.Vec{Y: 10, Z: 20}
	oc := NewOrbitControls(cam)
	oc.MinDistance, oc.MaxDistance = 1, 70
	for i := 0; i < 500; i++ {
		oc.Dolly(-1)
		oc.Update()
	}
	if math32.Abs(oc.Distance()-70) > tol {
		t.Errorf("want max distance 70, got %v", oc.Distance())
	}
	for i := 0; i < 500; i++ {
		oc.Dolly(1)
		oc.Update()
	}
	if math32.Abs(oc.Distance()-1) > tol {
		t.Errorf("want min distance 1, got %v", oc.Distance())
	}
}

func TestOrbitControlsRotate(t *testing.T) {
	const tol = 1e-3
	cam := NewPerspectiveCamera(75, 1, 0.1, 1000)
	cam.Position = ms3.Vec{Y: 10, Z: 20}
	oc := NewOrbitControls(cam)
	d0 := oc.Distance()
	oc.Update()
	if ms3.Norm(ms3.Sub(cam.Position, ms3.Vec{Y: 10, Z: 20})) > tol {
		t.Errorf("update without input moved camera to %v", cam.Position)
	}
	// Dragging a quarter of the viewport height horizontally is a quarter turn.
	oc.Rotate(100, 0, 400)
	oc.Update()
	if math32.Abs(oc.Distance()-d0) > tol {
		t.Errorf("rotation changed distance %v -> %v", d0, oc.Distance())
	}
	if math32.Abs(cam.Position.Y-10) > tol || math32.Abs(cam.Position.X+20) > tol {
		t.Errorf("want camera at (-20,10,0), got %v", cam.Position)
	}
	// Vertical drags stop short of the pole.
	oc.Rotate(0, 10000, 400)
	oc.Update()
	if cam.Position.Y <= 0 {
		t.Errorf("polar clamp failed: %v", cam.Position)
	}
	for i, v := range cam.View() {
		if math32.IsNaN(v) {
			t.Fatalf("view matrix element %d is NaN at the pole", i)
		}
	}
}

func TestOrbitControlsPan(t *testing.T) {
	const tol = 1e-4
	cam := NewPerspectiveCamera(90, 1, 0.1, 1000)
	cam.Position = ms3.Vec{Z: 10}
	oc := NewOrbitControls(cam)
	oc.Pan(100, 0, 200)
	oc.Update()
	// Half the viewport height at distance 10 with 90 degree fov spans 10 units.
	if math32.Abs(cam.Target.X+10) > tol || math32.Abs(cam.Position.X+10) > tol {
		t.Errorf("unexpected pan target %v position %v", cam.Target, cam.Position)
	}
	oc.EnablePan = false
	oc.Pan(100, 0, 200)
	oc.Update()
	if math32.Abs(cam.Target.X+10) > tol {
		t.Error("pan applied while disabled")
	}
}

type fakeSurface struct {
	w, h  int
	calls int
}

func (s *fakeSurface) SetSize(w, h int) { s.w, s.h = w, h; s.calls++ }

func TestResizerIdempotent(t *testing.T) {
	cam := NewPerspectiveCamera(75, 1, 0.1, 1000)
	surf := &fakeSurface{}
	renders := 0
	r := Resizer{Camera: cam, Surface: surf, Render: func() error { renders++; return nil }}
	if err := r.Resize(1600, 900); err != nil {
		t.Fatal(err)
	}
	aspect, proj := cam.Aspect, cam.Projection()
	if aspect != 1600./900 || surf.w != 1600 || surf.h != 900 {
		t.Fatalf("bad resize: aspect %v surface %dx%d", aspect, surf.w, surf.h)
	}
	r.Resize(1600, 900)
	if cam.Aspect != aspect || cam.Projection() != proj || surf.w != 1600 || surf.h != 900 {
		t.Error("second identical resize changed state")
	}
	if renders != 2 {
		t.Errorf("want a render per resize, got %d", renders)
	}
	r.Resize(0, 0)
	if surf.calls != 2 || renders != 2 {
		t.Error("zero size resize should be ignored")
	}
}

func TestHemisphereLight(t *testing.T) {
	const tol = 1e-6
	l := NewHemisphereLight(Blue, Green, 1)
	up := l.Irradiance(ms3.Vec{Y: 1})
	down := l.Irradiance(ms3.Vec{Y: -1})
	if up != Blue {
		t.Errorf("upward normal should see sky, got %+v", up)
	}
	if math32.Abs(down.G-Green.G) > tol || down.B != 0 {
		t.Errorf("downward normal should see ground, got %+v", down)
	}
	l.Position = ms3.Vec{}
	if l.Direction() != (ms3.Vec{Y: 1}) {
		t.Error("light at origin should default to +Y")
	}
}
