// Package assets loads texture images from disk into GPU-ready RGBA buffers.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ErrNotImage is returned when a texture file's contents are not a known image format.
var ErrNotImage = errors.New("not an image")

// DefaultTextures maps texture names to paths relative to the asset root.
func DefaultTextures() map[string]string {
	return map[string]string{
		"earth": "textures/earth.png",
		"moon":  "textures/moon.jpg",
	}
}

// DecodeImage decodes an image blob and returns it as tightly packed RGBA.
// The content type is sniffed from the data, not from any file name.
// If flipY is set rows are reversed so that the first row is the bottom of
// the picture, which is the order OpenGL expects for texture uploads.
func DecodeImage(data []byte, flipY bool) (*image.RGBA, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		if kind == filetype.Unknown {
			return nil, ErrNotImage
		}
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, kind.MIME.Value)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if flipY {
		// FlipV always returns a freshly allocated RGBA with Stride == 4*width.
		return transform.FlipV(img), nil
	}
	return toRGBA(img), nil
}

// LoadImage reads and decodes the image at path. See [DecodeImage].
func LoadImage(path string, flipY bool) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data, flipY)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Result is the outcome of loading a single texture.
type Result struct {
	Name  string
	Path  string
	Image *image.RGBA
	Err   error
}

// LoadTextures concurrently loads the textures named in files, a name to relative
// path map, from the root directory. Images are flipped for OpenGL. Every texture
// gets a Result, in no particular order; a failed texture does not abort the others.
// The returned error is non-nil only if ctx is cancelled.
func LoadTextures(ctx context.Context, root string, files map[string]string) ([]Result, error) {
	results := make([]Result, 0, len(files))
	for name, rel := range files {
		results = append(results, Result{Name: name, Path: filepath.Join(root, rel)})
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range results {
		r := &results[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.Image, r.Err = LoadImage(r.Path, true)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*rgba.Rect.Dx() && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
