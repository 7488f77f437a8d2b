// Package solaraux runs the solar system scene in an interactive window. It wires the
// pure scene in [glsolar] to a GLFW window, the OpenGL renderer, texture assets, the
// light debug panel and live configuration reloads.
package solaraux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/soypat/glsolar"
	"github.com/soypat/glsolar/config"
	"github.com/soypat/glsolar/glrender"
	"github.com/soypat/glsolar/panel"
)

// UIConfig configures the interactive viewer started by [UI].
type UIConfig struct {
	Config config.Config
	// Context stops the UI when done. May be nil.
	Context context.Context
	// Reload delivers configurations to apply to the running scene, see [config.Watch]. May be nil.
	Reload <-chan config.Config
	// Logger defaults to [slog.Default].
	Logger *slog.Logger
	// OutputDir receives screenshots and STL exports. Defaults to the working directory.
	OutputDir string
}

// UI opens a window and animates the solar system until the window is closed,
// Escape is pressed or cfg.Context is done. It must be called from the main
// goroutine with the OS thread locked, see [runtime.LockOSThread].
//
// Controls: left drag orbits, right drag pans, scroll zooms, H toggles the
// light panel, L toggles the light orbit, P saves a screenshot and E exports
// the scene as STL.
func UI(cfg UIConfig) error {
	if err := cfg.Config.Validate(); err != nil {
		return err
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return ui(cfg)
}

// Mouse buttons as seen by pointer.
const (
	buttonLeft = iota
	buttonRight
	buttonMiddle
)

type dragMode int

const (
	dragNone dragMode = iota
	dragRotate
	dragPan
	dragPanel
)

// pointer routes mouse input in framebuffer pixels either to the panel docked at
// the top right of the viewport or to the orbit controls.
type pointer struct {
	controls *glsolar.OrbitControls
	panel    *panel.Panel
	viewport image.Point

	mode         dragMode
	lastX, lastY float32
}

// panelOrigin returns the top left corner of the panel in framebuffer pixels.
func (p *pointer) panelOrigin() image.Point {
	return image.Pt(p.viewport.X-p.panel.Size().X, 0)
}

func (p *pointer) toPanel(x, y float32) (float32, float32) {
	o := p.panelOrigin()
	return x - float32(o.X), y - float32(o.Y)
}

func (p *pointer) press(button int, x, y float32) {
	p.lastX, p.lastY = x, y
	if button == buttonLeft {
		if p.panel.MouseDown(p.toPanel(x, y)) {
			p.mode = dragPanel
			return
		}
		p.mode = dragRotate
	} else if button == buttonRight || button == buttonMiddle {
		p.mode = dragPan
	}
}

func (p *pointer) release() {
	if p.mode == dragPanel {
		p.panel.MouseUp()
	}
	p.mode = dragNone
}

func (p *pointer) move(x, y float32) {
	dx, dy := x-p.lastX, y-p.lastY
	p.lastX, p.lastY = x, y
	switch p.mode {
	case dragPanel:
		p.panel.MouseMove(p.toPanel(x, y))
	case dragRotate:
		p.controls.Rotate(dx, dy, p.viewport.Y)
	case dragPan:
		p.controls.Pan(dx, dy, p.viewport.Y)
	}
}

// scroll dollies the camera unless the pointer is over the panel.
func (p *pointer) scroll(x, y, amount float32) {
	px, py := p.toPanel(x, y)
	if image.Pt(int(px), int(py)).In(image.Rectangle{Max: p.panel.Size()}) {
		return
	}
	p.controls.Dolly(amount)
}

// frameCounter reports the average frame rate about once per second.
type frameCounter struct {
	start  float64
	frames int
}

func (fc *frameCounter) tick(now float64) (fps float64, ok bool) {
	if fc.frames == 0 && fc.start == 0 {
		fc.start = now
	}
	fc.frames++
	if dt := now - fc.start; dt >= 1 {
		fps = float64(fc.frames) / dt
		fc.start, fc.frames = now, 0
		return fps, true
	}
	return 0, false
}

// newLightPanel returns a panel with x, y and z sliders bound to the light position.
func newLightPanel(light *glsolar.HemisphereLight) (*panel.Panel, error) {
	pnl, err := panel.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating panel: %w", err)
	}
	const limit = config.PositionLimit
	pnl.Add("x", &light.Position.X, -limit, limit)
	pnl.Add("y", &light.Position.Y, -limit, limit)
	pnl.Add("z", &light.Position.Z, -limit, limit)
	return pnl, nil
}

// drainReload applies the most recent pending configuration, if any, without blocking.
// Older pending configurations are discarded unapplied.
func drainReload(reload <-chan config.Config, sys *glsolar.SolarSystem, log *slog.Logger) error {
	var latest config.Config
	pending := false
drain:
	for {
		select {
		case cfg, ok := <-reload:
			if !ok {
				break drain
			}
			latest, pending = cfg, true
		default:
			break drain
		}
	}
	if !pending {
		return nil
	}
	if err := latest.ApplyLive(sys); err != nil {
		return err
	}
	log.Info("config reloaded", slog.Any("light", latest.Light), slog.Bool("animateLight", latest.Animation.AnimateLight))
	return nil
}

// writeScreenshot encodes img as a timestamped PNG file in dir and returns its path.
func writeScreenshot(dir string, img image.Image, now time.Time) (string, error) {
	path := filepath.Join(dir, "glsolar-"+now.Format("20060102-150405.000")+".png")
	fp, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = png.Encode(fp, img)
	if err != nil {
		fp.Close()
		return "", err
	}
	return path, fp.Close()
}

// exportSTL writes the scene meshes as a timestamped STL file in dir and returns its path.
func exportSTL(dir string, scene *glsolar.Scene, now time.Time) (string, error) {
	triangles := glrender.AppendSceneTriangles(nil, scene)
	if len(triangles) == 0 {
		return "", errors.New("scene has no triangles")
	}
	path := filepath.Join(dir, "glsolar-"+now.Format("20060102-150405.000")+".stl")
	fp, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, err = glrender.WriteBinarySTL(fp, triangles)
	if err != nil {
		fp.Close()
		return "", fmt.Errorf("writing STL file: %w", err)
	}
	return path, fp.Close()
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
