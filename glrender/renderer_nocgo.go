//go:build tinygo || !cgo

package glrender

import (
	"image"

	"github.com/soypat/glsolar"
)

// Renderer is unavailable without cgo. See [NewRenderer].
type Renderer struct{}

// NewRenderer always fails when built without cgo.
func NewRenderer(width, height int) (*Renderer, error) {
	return nil, errNoCGO
}

func (r *Renderer) SetSize(width, height int)                         {}
func (r *Renderer) Size() image.Point                                 { return image.Point{} }
func (r *Renderer) Stats() Stats                                      { return Stats{} }
func (r *Renderer) SetTexture(name string, img *image.RGBA) error     { return errNoCGO }
func (r *Renderer) HasTexture(name string) bool                       { return false }
func (r *Renderer) DrawOverlay(img *image.RGBA, at image.Point) error { return errNoCGO }
func (r *Renderer) ReadPixels() (*image.RGBA, error)                  { return nil, errNoCGO }
func (r *Renderer) Delete()                                           {}

func (r *Renderer) Render(scene *glsolar.Scene, cam *glsolar.PerspectiveCamera) error {
	return errNoCGO
}
