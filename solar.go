package glsolar

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Texture names referenced by the solar system materials.
const (
	TextureEarth = "earth"
	TextureMoon  = "moon"
)

// SolarConfig parametrizes [NewSolarSystem]. The zero value of each field selects
// its default. Pointer fields are used where zero is a meaningful setting: a
// non-nil pointer is applied as is.
type SolarConfig struct {
	// Rand seeds the sun's vertex jitter. Defaults to a randomly seeded source.
	Rand *rand.Rand
	// Viewport dimensions used for the initial camera aspect. Default 800x600.
	Width, Height int
	// Light colors. Default blue sky over green ground.
	SkyColor, GroundColor *Color
	// LightIntensity defaults to 1.
	LightIntensity *float32
	// LightPosition defaults to (0,1,0).
	LightPosition *ms3.Vec
	// Orbit controls distance limits. Default 1 and 70.
	MinDistance, MaxDistance float32
	// Time scales. Defaults 3, 10 and 0.39.
	SolarTimeScale, SpinScale, LightTimeScale *float32
	// AnimateLight starts the scene with the light orbit enabled.
	AnimateLight bool
}

// SolarSystem is the scene of a jittering wireframe sun orbited by a textured
// earth which is in turn orbited by a textured moon.
//
// The three orbit groups nest as SunGroup → EarthOrbit → MoonOrbit and each of
// them is spun by the same amount every frame, so their rotations compound.
type SolarSystem struct {
	Scene    *Scene
	Camera   *PerspectiveCamera
	Controls *OrbitControls
	Light    *HemisphereLight
	// LightHelper visualizes Light.
	LightHelper *Node

	SunGroup, EarthOrbit, MoonOrbit *Node
	Sun, Earth, Moon                *Node

	// Phase is the per-vertex random phase of the sun, index aligned with its positions.
	Phase []ms3.Vec

	// AnimateLight enables the light orbit of radius LightOrbitRadius in the XZ plane.
	// It is off by default.
	AnimateLight     bool
	LightOrbitRadius float32
	SolarTimeScale   float32
	SpinScale        float32
	LightTimeScale   float32
}

// NewSolarSystem builds the scene graph, camera, light and orbit controls and jitters the sun.
func NewSolarSystem(cfg SolarConfig) *SolarSystem {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	sky, ground := Blue, Green
	if cfg.SkyColor != nil {
		sky = *cfg.SkyColor
	}
	if cfg.GroundColor != nil {
		ground = *cfg.GroundColor
	}
	if cfg.MinDistance == 0 {
		cfg.MinDistance = 1
	}
	if cfg.MaxDistance == 0 {
		cfg.MaxDistance = 70
	}
	sys := &SolarSystem{
		AnimateLight:     cfg.AnimateLight,
		LightOrbitRadius: 5,
		SolarTimeScale:   valueOr(cfg.SolarTimeScale, 3),
		SpinScale:        valueOr(cfg.SpinScale, 10),
		LightTimeScale:   valueOr(cfg.LightTimeScale, 0.39),
	}

	scene := NewScene()
	cam := NewPerspectiveCamera(75, float32(cfg.Width)/float32(cfg.Height), 0.1, 1000)
	cam.Position = ms3.Vec{Y: 10, Z: 20}
	cam.LookAt(ms3.Vec{})

	light := NewHemisphereLight(sky, ground, valueOr(cfg.LightIntensity, 1))
	if cfg.LightPosition != nil {
		light.Position = *cfg.LightPosition
	}
	scene.Light = light
	helper := NewHemisphereLightHelper(light, 1)
	scene.Add(helper)

	controls := NewOrbitControls(cam)
	controls.MinDistance = cfg.MinDistance
	controls.MaxDistance = cfg.MaxDistance

	group1 := NewGroup("sunGroup")
	group2 := NewGroup("earthOrbit")
	group3 := NewGroup("moonOrbit")

	solarMaterial := StandardMaterial()
	solarMaterial.DoubleSided = true
	solarMaterial.Wireframe = true
	earthMaterial := StandardMaterial()
	earthMaterial.Texture = TextureEarth
	earthMaterial.Roughness = 0.3
	earthMaterial.Metalness = 0.3
	moonMaterial := StandardMaterial()
	moonMaterial.Texture = TextureMoon

	solarGeometry := NewSphereGeometry(5, 64, 64)
	sun := NewMeshNode("sun", solarGeometry, solarMaterial)
	sys.Phase = Perturb(cfg.Rand, solarGeometry.Positions)
	solarGeometry.MarkDirty()

	earth := NewMeshNode("earth", NewSphereGeometry(0.5, 32, 16), earthMaterial)
	group2.Position.X = 10
	moon := NewMeshNode("moon", NewSphereGeometry(0.1, 32, 16), moonMaterial)
	moon.Position.X = 1

	group3.Add(moon)
	group2.Add(earth, group3)
	group1.Add(sun, group2)
	scene.Add(group1)

	sys.Scene = scene
	sys.Camera = cam
	sys.Controls = controls
	sys.Light = light
	sys.LightHelper = helper
	sys.SunGroup, sys.EarthOrbit, sys.MoonOrbit = group1, group2, group3
	sys.Sun, sys.Earth, sys.Moon = sun, earth, moon
	controls.Update()
	return sys
}

func valueOr(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}

// Orbits returns the three nested transform groups, outermost first.
func (sys *SolarSystem) Orbits() [3]*Node {
	return [3]*Node{sys.SunGroup, sys.EarthOrbit, sys.MoonOrbit}
}

// Update advances the scene by one frame. It depends only on ft and the current
// scene state: it displaces the sun's vertices for the scaled elapsed time, marks
// the sun geometry dirty and adds the scaled frame delta to the Y rotation of each
// orbit group. Rendering is left to the caller.
func (sys *SolarSystem) Update(ft FrameTime) {
	if sys.AnimateLight {
		t := ft.Elapsed * sys.LightTimeScale
		sys.Light.Position.X = math32.Cos(t) * sys.LightOrbitRadius
		sys.Light.Position.Z = -math32.Sin(t) * sys.LightOrbitRadius
	}
	SyncLightHelper(sys.LightHelper, sys.Light)

	solarTime := ft.Elapsed * sys.SolarTimeScale
	geom := sys.Sun.Mesh.Geometry
	Displace(geom.Positions, sys.Phase, solarTime)
	geom.MarkDirty()

	delta := ft.Delta * sys.SpinScale
	for _, g := range sys.Orbits() {
		g.Rotation.Y += delta
	}
}
