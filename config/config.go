// Package config holds the user tunable settings of the solar system viewer and
// reads them from TOML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glsolar"
	"golang.org/x/image/colornames"
)

// PositionLimit bounds each light position coordinate, matching the panel slider range.
const PositionLimit = 50

// Window sets the initial window size in screen coordinates and its title.
type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Light configures the hemisphere light. Colors are CSS color names or #rrggbb.
type Light struct {
	Sky       string     `toml:"sky"`
	Ground    string     `toml:"ground"`
	Intensity float32    `toml:"intensity"`
	Position  [3]float32 `toml:"position"`
}

// Orbit bounds the orbit camera's distance to its target.
type Orbit struct {
	MinDistance float32 `toml:"min_distance"`
	MaxDistance float32 `toml:"max_distance"`
}

// Animation scales elapsed and frame time for each animated part of the scene.
type Animation struct {
	SolarTimeScale float32 `toml:"solar_time_scale"`
	SpinScale      float32 `toml:"spin_scale"`
	LightTimeScale float32 `toml:"light_time_scale"`
	AnimateLight   bool    `toml:"animate_light"`
}

// Config is the complete viewer configuration.
type Config struct {
	// Assets is the directory the texture paths are relative to.
	Assets string `toml:"assets"`
	// Seed seeds the sun's vertex jitter. Zero picks a random seed.
	Seed      uint64    `toml:"seed"`
	Window    Window    `toml:"window"`
	Light     Light     `toml:"light"`
	Orbit     Orbit     `toml:"orbit"`
	Animation Animation `toml:"animation"`
}

// Default returns the configuration of the stock scene.
func Default() Config {
	return Config{
		Assets: ".",
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "glsolar - hemisphere light",
		},
		Light: Light{
			Sky:       "blue",
			Ground:    "green",
			Intensity: 1,
			Position:  [3]float32{0, 1, 0},
		},
		Orbit: Orbit{
			MinDistance: 1,
			MaxDistance: 70,
		},
		Animation: Animation{
			SolarTimeScale: 3,
			SpinScale:      10,
			LightTimeScale: 0.39,
		},
	}
}

// Parse decodes a TOML document over the defaults and validates the result.
// Keys not present in the document keep their default value. Unknown keys are an error.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the TOML file at path. See [Parse].
func Load(path string) (Config, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer fp.Close()
	cfg, err := Parse(fp)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns all problems found in c joined in a single error.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if _, err := ParseColor(c.Light.Sky); err != nil {
		errs = append(errs, fmt.Errorf("light.sky: %w", err))
	}
	if _, err := ParseColor(c.Light.Ground); err != nil {
		errs = append(errs, fmt.Errorf("light.ground: %w", err))
	}
	if c.Light.Intensity < 0 || !finite(c.Light.Intensity) {
		errs = append(errs, fmt.Errorf("light.intensity must be non-negative, got %v", c.Light.Intensity))
	}
	for i, v := range c.Light.Position {
		if !finite(v) || v < -PositionLimit || v > PositionLimit {
			errs = append(errs, fmt.Errorf("light.position[%d]=%v outside [-%d, %d]", i, v, PositionLimit, PositionLimit))
		}
	}
	if c.Orbit.MinDistance <= 0 || c.Orbit.MaxDistance < c.Orbit.MinDistance {
		errs = append(errs, fmt.Errorf("orbit distances must satisfy 0 < min <= max, got min=%v max=%v", c.Orbit.MinDistance, c.Orbit.MaxDistance))
	}
	a := c.Animation
	if !finite(a.SolarTimeScale) || !finite(a.SpinScale) || !finite(a.LightTimeScale) {
		errs = append(errs, errors.New("animation time scales must be finite"))
	}
	return errors.Join(errs...)
}

// ParseColor resolves a CSS color name such as "blue" or a "#rrggbb"/"#rgb" hex string.
func ParseColor(s string) (glsolar.Color, error) {
	if s == "" {
		return glsolar.Color{}, errors.New("empty color")
	}
	if s[0] != '#' {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return glsolar.Color{}, fmt.Errorf("unknown color name %q", s)
		}
		return glsolar.ColorFromRGBA(c), nil
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return glsolar.Color{}, fmt.Errorf("bad hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return glsolar.Color{}, fmt.Errorf("bad hex color %q: %w", s, err)
	}
	return glsolar.Color{
		R: float32(v>>16&0xff) / 255,
		G: float32(v>>8&0xff) / 255,
		B: float32(v&0xff) / 255,
	}, nil
}

// SolarConfig converts c to the scene construction parameters.
// c must be valid, see [Config.Validate].
func (c Config) SolarConfig() (glsolar.SolarConfig, error) {
	sky, err := ParseColor(c.Light.Sky)
	if err != nil {
		return glsolar.SolarConfig{}, err
	}
	ground, err := ParseColor(c.Light.Ground)
	if err != nil {
		return glsolar.SolarConfig{}, err
	}
	pos := c.lightPosition()
	intensity := c.Light.Intensity
	a := c.Animation
	sc := glsolar.SolarConfig{
		Width:          c.Window.Width,
		Height:         c.Window.Height,
		SkyColor:       &sky,
		GroundColor:    &ground,
		LightIntensity: &intensity,
		LightPosition:  &pos,
		MinDistance:    c.Orbit.MinDistance,
		MaxDistance:    c.Orbit.MaxDistance,
		SolarTimeScale: &a.SolarTimeScale,
		SpinScale:      &a.SpinScale,
		LightTimeScale: &a.LightTimeScale,
		AnimateLight:   a.AnimateLight,
	}
	if c.Seed != 0 {
		sc.Rand = rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	}
	return sc, nil
}

// ApplyLive updates the parts of a running scene that can change without
// rebuilding it: light colors, intensity and position, orbit distance limits
// and animation settings.
func (c Config) ApplyLive(sys *glsolar.SolarSystem) error {
	sky, err := ParseColor(c.Light.Sky)
	if err != nil {
		return err
	}
	ground, err := ParseColor(c.Light.Ground)
	if err != nil {
		return err
	}
	sys.Light.SkyColor = sky
	sys.Light.GroundColor = ground
	sys.Light.Intensity = c.Light.Intensity
	sys.Light.Position = c.lightPosition()
	sys.Controls.MinDistance = c.Orbit.MinDistance
	sys.Controls.MaxDistance = c.Orbit.MaxDistance
	sys.AnimateLight = c.Animation.AnimateLight
	sys.SolarTimeScale = c.Animation.SolarTimeScale
	sys.SpinScale = c.Animation.SpinScale
	sys.LightTimeScale = c.Animation.LightTimeScale
	glsolar.SyncLightHelper(sys.LightHelper, sys.Light)
	return nil
}

func (c Config) lightPosition() ms3.Vec {
	p := c.Light.Position
	return ms3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
