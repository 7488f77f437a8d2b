package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// twoRowImage is red on the top row and blue on the bottom row.
func twoRowImage(w int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, 2))
	for x := range w {
		img.Set(x, 0, red)
		img.Set(x, 1, blue)
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeImageFlip(t *testing.T) {
	data := encodePNG(t, twoRowImage(3))
	img, err := DecodeImage(data, false)
	if err != nil {
		t.Fatal(err)
	}
	if img.RGBAAt(0, 0) != red || img.RGBAAt(2, 1) != blue {
		t.Error("unflipped image rows out of order")
	}
	flipped, err := DecodeImage(data, true)
	if err != nil {
		t.Fatal(err)
	}
	if flipped.RGBAAt(0, 0) != blue || flipped.RGBAAt(2, 1) != red {
		t.Error("flipped image rows not reversed")
	}
	if flipped.Stride != 4*3 {
		t.Errorf("want tightly packed rows, got stride %d", flipped.Stride)
	}
}

func TestDecodeImageRejectsNonImage(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not a picture"), true)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("want ErrNotImage, got %v", err)
	}
	// A zip archive is recognized but is not an image.
	_, err = DecodeImage([]byte{'P', 'K', 0x3, 0x4, 0, 0, 0, 0}, true)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("want ErrNotImage, got %v", err)
	}
}

func TestLoadTextures(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "textures"), 0o755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(root, "textures", "earth.png"), encodePNG(t, twoRowImage(4)), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	var jbuf bytes.Buffer
	if err := jpeg.Encode(&jbuf, twoRowImage(8), nil); err != nil {
		t.Fatal(err)
	}
	// Misnamed on purpose: content sniffing must not depend on the extension.
	err = os.WriteFile(filepath.Join(root, "textures", "moon.png"), jbuf.Bytes(), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"earth":   "textures/earth.png",
		"moon":    "textures/moon.png",
		"missing": "textures/nope.jpg",
	}
	results, err := LoadTextures(context.Background(), root, files)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	for _, r := range results {
		switch r.Name {
		case "earth":
			if r.Err != nil || r.Image.Bounds().Dx() != 4 {
				t.Errorf("earth: %v", r.Err)
			}
		case "moon":
			if r.Err != nil || r.Image.Bounds().Dx() != 8 {
				t.Errorf("moon: %v", r.Err)
			}
		case "missing":
			if !errors.Is(r.Err, os.ErrNotExist) {
				t.Errorf("missing: want not exist error, got %v", r.Err)
			}
		default:
			t.Errorf("unexpected result %q", r.Name)
		}
	}
}

func TestLoadTexturesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadTextures(ctx, t.TempDir(), DefaultTextures())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
