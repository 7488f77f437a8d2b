package glsolar

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Perturbation amplitudes.
const (
	// JitterAmplitude is the full width of the uniform offset added to every
	// vertex coordinate by Perturb and of the phase values it records.
	JitterAmplitude = 0.2
	// DisplaceAmplitude scales the per-frame sine increment of Displace.
	DisplaceAmplitude = 0.001
	// PhaseScale multiplies the recorded phase inside the sine of Displace.
	PhaseScale = 100
)

// Perturb adds an independent uniform offset in [-0.1, 0.1) to every coordinate of pos
// and returns a newly allocated phase buffer of the same length holding independently
// drawn values of the same distribution. For each vertex the x,y,z offsets are drawn
// before the x,y,z phases.
func Perturb(rng *rand.Rand, pos []ms3.Vec) (phase []ms3.Vec) {
	jitter := func() float32 { return (rng.Float32() - 0.5) * JitterAmplitude }
	phase = make([]ms3.Vec, len(pos))
	for i := range pos {
		pos[i].X += jitter()
		pos[i].Y += jitter()
		pos[i].Z += jitter()
		phase[i] = ms3.Vec{X: jitter(), Y: jitter(), Z: jitter()}
	}
	return phase
}

// PerturbFlat is Perturb over a flat x,y,z,x,y,z... buffer.
// It panics if len(pos) is not a multiple of 3.
func PerturbFlat(rng *rand.Rand, pos []float32) (phase []float32) {
	if len(pos)%3 != 0 {
		panic("position buffer length not a multiple of 3")
	}
	jitter := func() float32 { return (rng.Float32() - 0.5) * JitterAmplitude }
	phase = make([]float32, len(pos))
	for i := 0; i < len(pos); i += 3 {
		pos[i] += jitter()
		pos[i+1] += jitter()
		pos[i+2] += jitter()
		phase[i] = jitter()
		phase[i+1] = jitter()
		phase[i+2] = jitter()
	}
	return phase
}

// Displace adds sin(t + phase*PhaseScale)*DisplaceAmplitude to every coordinate of pos.
// The update is cumulative: positions drift further each call and are never reset
// to their rest shape. It panics if pos and phase differ in length.
func Displace(pos, phase []ms3.Vec, t float32) {
	if len(pos) != len(phase) {
		panic("position and phase buffer length mismatch")
	}
	for i := range pos {
		ph := phase[i]
		pos[i].X += math32.Sin(t+ph.X*PhaseScale) * DisplaceAmplitude
		pos[i].Y += math32.Sin(t+ph.Y*PhaseScale) * DisplaceAmplitude
		pos[i].Z += math32.Sin(t+ph.Z*PhaseScale) * DisplaceAmplitude
	}
}

// FrameTime is the time context of a single frame, in seconds.
type FrameTime struct {
	// Elapsed is the time since the clock started.
	Elapsed float32
	// Delta is the time since the previous frame.
	Delta float32
}

// Clock turns a monotonic time source into [FrameTime] samples.
// The zero value is not usable, create one with NewClock.
type Clock struct {
	now     func() float64
	start   float64
	last    float64
	started bool
}

// NewClock returns a clock reading seconds from now. The clock starts on the first Tick.
func NewClock(now func() float64) *Clock {
	return &Clock{now: now}
}

// Tick samples the time source once and returns the elapsed time and the delta
// since the previous Tick. The first Tick returns a zero FrameTime.
func (c *Clock) Tick() FrameTime {
	t := c.now()
	if !c.started {
		c.start, c.last, c.started = t, t, true
	}
	ft := FrameTime{
		Elapsed: float32(t - c.start),
		Delta:   float32(t - c.last),
	}
	c.last = t
	return ft
}
