//go:build !tinygo && cgo

package solaraux

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glsolar"
	"github.com/soypat/glsolar/assets"
	"github.com/soypat/glsolar/glrender"
)

func ui(cfg UIConfig) error {
	log := cfg.Logger
	ctx := cfg.Context
	solarCfg, err := cfg.Config.SolarConfig()
	if err != nil {
		return err
	}
	// Decode textures while the window and GL context come up.
	type textureLoad struct {
		results []assets.Result
		err     error
		took    time.Duration
	}
	loaded := make(chan textureLoad, 1)
	go func() {
		watch := stopwatch()
		results, err := assets.LoadTextures(ctx, cfg.Config.Assets, assets.DefaultTextures())
		loaded <- textureLoad{results: results, err: err, took: watch()}
	}()

	window, term, err := startGLFW(cfg.Config.Window.Width, cfg.Config.Window.Height, cfg.Config.Window.Title)
	if err != nil {
		return err
	}
	defer term()
	log.Info("OpenGL context ready", slog.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	fbw, fbh := window.GetFramebufferSize()
	renderer, err := glrender.NewRenderer(fbw, fbh)
	if err != nil {
		return err
	}
	defer renderer.Delete()

	solarCfg.Width, solarCfg.Height = fbw, fbh
	sys := glsolar.NewSolarSystem(solarCfg)

	tl := <-loaded
	if tl.err != nil {
		return fmt.Errorf("loading textures: %w", tl.err)
	}
	for _, res := range tl.results {
		if res.Err != nil {
			log.Warn("texture unavailable, using base color", slog.String("texture", res.Name), slog.String("err", res.Err.Error()))
			continue
		}
		err = renderer.SetTexture(res.Name, res.Image)
		if err != nil {
			return err
		}
		log.Info("texture loaded", slog.String("texture", res.Name), slog.String("path", res.Path), slog.Any("size", res.Image.Rect.Size()))
	}
	log.Debug("texture decode finished", slog.Duration("took", tl.took))

	pnl, err := newLightPanel(sys.Light)
	if err != nil {
		return err
	}
	ptr := &pointer{controls: sys.Controls, panel: pnl, viewport: renderer.Size()}

	render := func() error {
		ptr.viewport = renderer.Size()
		err := renderer.Render(sys.Scene, sys.Camera)
		if err != nil {
			return err
		}
		return renderer.DrawOverlay(pnl.Image(), ptr.panelOrigin())
	}
	resizer := glsolar.Resizer{Camera: sys.Camera, Surface: renderer, Render: render}
	// Errors in callbacks are reported by the main loop.
	var callbackErr error
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		err := resizer.Resize(width, height)
		if err != nil {
			callbackErr = err
			return
		}
		w.SwapBuffers()
		log.Info("viewport resized", slog.Int("width", width), slog.Int("height", height))
	})

	// Cursor coordinates are in screen units which differ from framebuffer pixels on high DPI displays.
	toFramebuffer := func(x, y float64) (float32, float32) {
		ww, wh := window.GetSize()
		fw, fh := window.GetFramebufferSize()
		if ww == 0 || wh == 0 {
			return float32(x), float32(y)
		}
		return float32(x * float64(fw) / float64(ww)), float32(y * float64(fh) / float64(wh))
	}
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		ptr.move(toFramebuffer(xpos, ypos))
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		var b int
		switch button {
		case glfw.MouseButtonLeft:
			b = buttonLeft
		case glfw.MouseButtonRight:
			b = buttonRight
		case glfw.MouseButtonMiddle:
			b = buttonMiddle
		default:
			return
		}
		if action == glfw.Press {
			x, y := toFramebuffer(w.GetCursorPos())
			ptr.press(b, x, y)
		} else if action == glfw.Release {
			ptr.release()
		}
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		x, y := toFramebuffer(w.GetCursorPos())
		ptr.scroll(x, y, float32(yoff))
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyH:
			pnl.Toggle()
		case glfw.KeyL:
			sys.AnimateLight = !sys.AnimateLight
			log.Info("light animation toggled", slog.Bool("enabled", sys.AnimateLight))
		case glfw.KeyP:
			img, err := renderer.ReadPixels()
			if err != nil {
				log.Error("screenshot failed: " + err.Error())
				return
			}
			path, err := writeScreenshot(cfg.OutputDir, img, time.Now())
			if err != nil {
				log.Error("screenshot failed: " + err.Error())
				return
			}
			log.Info("screenshot saved", slog.String("path", path))
		case glfw.KeyE:
			path, err := exportSTL(cfg.OutputDir, sys.Scene, time.Now())
			if err != nil {
				log.Error("STL export failed: " + err.Error())
				return
			}
			log.Info("scene exported", slog.String("path", path))
		}
	})

	glfw.SwapInterval(1)
	clock := glsolar.NewClock(glfw.GetTime)
	var fps frameCounter
	for !window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		glfw.PollEvents()
		if callbackErr != nil {
			return callbackErr
		}
		err = drainReload(cfg.Reload, sys, log)
		if err != nil {
			return err
		}
		ft := clock.Tick()
		sys.Update(ft)
		sys.Controls.Update()
		err = render()
		if err != nil {
			return err
		}
		window.SwapBuffers()
		if rate, ok := fps.tick(glfw.GetTime()); ok {
			st := renderer.Stats()
			log.Debug("frame stats", slog.Float64("fps", rate), slog.Int("drawCalls", st.DrawCalls),
				slog.Int("triangles", st.Triangles), slog.Int("uploads", st.Uploads),
				slog.Float64("cameraDistance", float64(sys.Controls.Distance())))
		}
	}
	return nil
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
