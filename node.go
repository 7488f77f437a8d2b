package glsolar

import (
	"errors"

	"github.com/soypat/geometry/ms3"
)

// Material describes how a mesh surface is shaded.
type Material struct {
	// Color multiplies the texture and vertex colors.
	Color Color
	// Texture names a texture registered with the renderer. Empty means untextured.
	Texture   string
	Roughness float32
	Metalness float32
	Wireframe bool
	// DoubleSided disables back-face culling.
	DoubleSided bool
	// VertexColors enables the geometry's per-vertex Colors.
	VertexColors bool
	// Unlit skips lighting. Used by helpers.
	Unlit bool
}

// StandardMaterial returns a white material with the default
// roughness and metalness of a standard PBR material.
func StandardMaterial() Material {
	return Material{Color: White, Roughness: 1, Metalness: 0}
}

// Mesh pairs a geometry with a material.
type Mesh struct {
	Geometry *Geometry
	Material Material
}

// Node is an element of the scene graph. A Node with a nil Mesh is a transform group.
// Its local transform is applied to all of its children.
type Node struct {
	Name     string
	Position ms3.Vec
	// Rotation holds Euler angles in radians, applied in XYZ order.
	Rotation ms3.Vec
	Scale    ms3.Vec
	Visible  bool
	Mesh     *Mesh

	parent   *Node
	children []*Node
}

// NewGroup creates an empty transform group.
func NewGroup(name string) *Node {
	return &Node{Name: name, Scale: ms3.Vec{X: 1, Y: 1, Z: 1}, Visible: true}
}

// NewMeshNode creates a node that draws mesh.
func NewMeshNode(name string, geom *Geometry, mat Material) *Node {
	n := NewGroup(name)
	n.Mesh = &Mesh{Geometry: geom, Material: mat}
	return n
}

// Add attaches children to n, detaching them from any previous parent.
// Adding a node to itself or to one of its descendants panics.
func (n *Node) Add(children ...*Node) {
	for _, child := range children {
		if child == nil {
			panic("nil child")
		}
		for p := n; p != nil; p = p.parent {
			if p == child {
				panic("scene graph cycle adding " + child.Name + " to " + n.Name)
			}
		}
		if child.parent != nil {
			child.parent.remove(child)
		}
		child.parent = n
		n.children = append(n.children, child)
	}
}

func (n *Node) remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Children returns the direct children of n. The returned slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the node n is attached to, or nil.
func (n *Node) Parent() *Node { return n.parent }

// LocalMatrix returns the transform of n relative to its parent.
func (n *Node) LocalMatrix() ms3.Mat4 {
	return ComposeMat4(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix returns the transform of n relative to the scene root.
func (n *Node) WorldMatrix() ms3.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = ms3.MulMat4(p.LocalMatrix(), m)
	}
	return m
}

// WorldPosition returns the origin of n in world coordinates.
func (n *Node) WorldPosition() ms3.Vec {
	return n.WorldMatrix().MulPosition(ms3.Vec{})
}

// ErrSkipChildren may be returned by a [Node.Walk] callback to avoid descending into a node's children.
var ErrSkipChildren = errors.New("skip children")

// Walk calls fn for n and its visible descendants in depth first order with the
// world matrix of each node. parentWorld is the world matrix of n's parent.
// Walk stops at the first error returned by fn other than [ErrSkipChildren].
func (n *Node) Walk(parentWorld ms3.Mat4, fn func(n *Node, world ms3.Mat4) error) error {
	if !n.Visible {
		return nil
	}
	world := ms3.MulMat4(parentWorld, n.LocalMatrix())
	err := fn(n, world)
	if errors.Is(err, ErrSkipChildren) {
		return nil
	} else if err != nil {
		return err
	}
	for _, child := range n.children {
		err = child.Walk(world, fn)
		if err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first descendant of n (or n itself) with the given name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Scene is the root of a scene graph and the light that illuminates it.
type Scene struct {
	Root  *Node
	Light *HemisphereLight
	// Background is the clear color. The zero value clears to transparent black.
	Background Color
}

// NewScene creates a scene with an empty root group.
func NewScene() *Scene {
	return &Scene{Root: NewGroup("scene")}
}

// Add attaches nodes to the scene root.
func (s *Scene) Add(nodes ...*Node) { s.Root.Add(nodes...) }
