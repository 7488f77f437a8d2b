package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glsolar"
)

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	sc, err := cfg.SolarConfig()
	if err != nil {
		t.Fatal(err)
	}
	if *sc.SkyColor != glsolar.Blue || *sc.GroundColor != glsolar.Green {
		t.Errorf("want blue over green, got %v %v", *sc.SkyColor, *sc.GroundColor)
	}
	if *sc.LightPosition != (ms3.Vec{Y: 1}) {
		t.Errorf("want light at (0,1,0), got %v", *sc.LightPosition)
	}
	if sc.Rand != nil {
		t.Error("zero seed should leave the random source unset")
	}
}

func TestParse(t *testing.T) {
	const doc = `
seed = 42

[window]
width = 1024

[light]
sky = "#ff8000"
position = [3.0, -4.5, 50.0]

[animation]
animate_light = true
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 42 || cfg.Window.Width != 1024 {
		t.Errorf("top level values not decoded: %+v", cfg)
	}
	if cfg.Window.Height != 600 || cfg.Light.Ground != "green" || cfg.Orbit.MaxDistance != 70 {
		t.Errorf("missing keys should keep defaults: %+v", cfg)
	}
	if cfg.Light.Position != [3]float32{3, -4.5, 50} || !cfg.Animation.AnimateLight {
		t.Errorf("light/animation not decoded: %+v %+v", cfg.Light, cfg.Animation)
	}
	sc, err := cfg.SolarConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Rand == nil {
		t.Error("non-zero seed should set a random source")
	}
	if *sc.SkyColor != (glsolar.Color{R: 1, G: 128. / 255}) {
		t.Errorf("bad sky color %v", *sc.SkyColor)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "examples", "lights", "glsolar.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("example configuration should spell out the defaults:\n got %+v\nwant %+v", cfg, Default())
	}
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		"colour = 1",                           // Unknown key.
		"[window]\nwidth = -1",                 // Bad size.
		"[light]\nsky = \"blurple\"",           // Unknown color.
		"[light]\nposition = [0.0, 51.0, 0.0]", // Outside slider range.
		"[orbit]\nmin_distance = 10.0\nmax_distance = 5.0",
		"[light\n", // Syntax.
	} {
		_, err := Parse(strings.NewReader(doc))
		if err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Window.Height = 0
	cfg.Light.Ground = "#12"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "window size") || !strings.Contains(msg, "light.ground") {
		t.Errorf("want both problems reported, got %q", msg)
	}
}

func TestParseColor(t *testing.T) {
	for _, tc := range []struct {
		s    string
		want glsolar.Color
	}{
		{"blue", glsolar.Blue},
		{"Green", glsolar.Green},
		{"white", glsolar.White},
		{"#ffffff", glsolar.White},
		{"#00f", glsolar.Blue},
	} {
		got, err := ParseColor(tc.s)
		if err != nil {
			t.Errorf("%q: %v", tc.s, err)
		} else if got != tc.want {
			t.Errorf("%q: want %v, got %v", tc.s, tc.want, got)
		}
	}
	for _, bad := range []string{"", "#", "#gggggg", "#1234", "notacolor"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestApplyLive(t *testing.T) {
	sys := glsolar.NewSolarSystem(glsolar.SolarConfig{})
	cfg := Default()
	cfg.Light.Sky = "red"
	cfg.Light.Position = [3]float32{0, -3, 0}
	cfg.Orbit.MaxDistance = 30
	cfg.Animation.AnimateLight = true
	if err := cfg.ApplyLive(sys); err != nil {
		t.Fatal(err)
	}
	if sys.Light.SkyColor != (glsolar.Color{R: 1}) || sys.Light.Position != (ms3.Vec{Y: -3}) {
		t.Errorf("light not updated: %+v", *sys.Light)
	}
	if sys.LightHelper.Position != sys.Light.Position {
		t.Error("light helper should follow the light")
	}
	if sys.Controls.MaxDistance != 30 || !sys.AnimateLight {
		t.Error("controls/animation not updated")
	}
}

func TestSolarConfigMatchesApplyLive(t *testing.T) {
	const doc = `
[light]
intensity = 0
position = [2.0, 0.0, -1.0]

[animation]
solar_time_scale = 0
spin_scale = 0
light_time_scale = 0
animate_light = true
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := cfg.SolarConfig()
	if err != nil {
		t.Fatal(err)
	}
	startup := glsolar.NewSolarSystem(sc)
	live := glsolar.NewSolarSystem(glsolar.SolarConfig{})
	if err := cfg.ApplyLive(live); err != nil {
		t.Fatal(err)
	}
	for _, sys := range []*glsolar.SolarSystem{startup, live} {
		if sys.Light.Intensity != 0 {
			t.Errorf("zero intensity must turn the light off, got %v", sys.Light.Intensity)
		}
		if sys.SolarTimeScale != 0 || sys.SpinScale != 0 || sys.LightTimeScale != 0 {
			t.Errorf("zero time scales must freeze the animation, got %v %v %v", sys.SolarTimeScale, sys.SpinScale, sys.LightTimeScale)
		}
	}
	if *startup.Light != *live.Light {
		t.Errorf("light differs between startup and reload:\n%+v\n%+v", *startup.Light, *live.Light)
	}
	if startup.AnimateLight != live.AnimateLight || !startup.AnimateLight {
		t.Error("animate_light must apply at startup and on reload")
	}
	if startup.Controls.MinDistance != live.Controls.MinDistance || startup.Controls.MaxDistance != live.Controls.MaxDistance {
		t.Error("orbit limits differ between startup and reload")
	}
	before := startup.EarthOrbit.Rotation
	startup.Update(glsolar.FrameTime{Elapsed: 1, Delta: 0.5})
	if startup.EarthOrbit.Rotation != before {
		t.Error("zero spin scale must not rotate the orbits")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glsolar.toml")
	if err := os.WriteFile(path, []byte("[window]\nwidth = 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads, err := Watch(ctx, path, func(err error) { t.Log(err) })
	if err != nil {
		t.Fatal(err)
	}
	// Writes to sibling files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[window]\nwidth = 320\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloads:
			// Truncate and write may arrive as separate events.
			if cfg.Window.Width == 320 {
				cancel()
				for range reloads {
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for config reload")
		}
	}
}
