// Package panel implements a small immediate-mode parameter panel of numeric sliders,
// laid out and colored after the dat.GUI widget. The panel rasterizes itself into an
// RGBA image that the caller composes over the rendered frame and is driven by
// pointer events in panel-local pixel coordinates.
package panel

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Layout constants in pixels.
const (
	DefaultWidth  = 245
	rowHeight     = 27
	footerHeight  = 20
	labelFraction = 0.4
	sliderFrac    = 0.66
	padding       = 4
	borderWidth   = 3
	fontSize      = 11
)

var (
	colBackground = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}
	colRowBorder  = color.RGBA{0x2c, 0x2c, 0x2c, 0xff}
	colNumber     = color.RGBA{0x2f, 0xa1, 0xd6, 0xff}
	colTrack      = color.RGBA{0x30, 0x30, 0x30, 0xff}
	colText       = color.RGBA{0xee, 0xee, 0xee, 0xff}
	colFooter     = color.RGBA{0x00, 0x00, 0x00, 0xff}
)

// Slider is a numeric value bound to a float32 variable.
type Slider struct {
	Label string
	Min   float32
	Max   float32
	// Step is the value granularity. Values are snapped to multiples of Step.
	Step  float32
	Value *float32
}

// ImpliedStep returns the step dat.GUI picks for a slider created with the given
// initial value: 1 for zero, otherwise a tenth of the value's order of magnitude.
func ImpliedStep(initial float32) float32 {
	if initial == 0 {
		return 1
	}
	return float32(math.Pow(10, math.Floor(math.Log10(math.Abs(float64(initial))))) / 10)
}

// SetValue clamps v to the slider range, snaps it to the step and stores it.
// It reports whether the bound value changed.
func (s *Slider) SetValue(v float32) bool {
	if s.Step > 0 {
		v = float32(roundToDecimal(math.Round(float64(v/s.Step))*float64(s.Step), s.precision()))
	}
	v = max(s.Min, min(s.Max, v))
	if *s.Value == v {
		return false
	}
	*s.Value = v
	return true
}

// Fraction returns the position of the current value within the slider range in 0..1.
func (s *Slider) Fraction() float32 {
	if s.Max == s.Min {
		return 0
	}
	f := (*s.Value - s.Min) / (s.Max - s.Min)
	return max(0, min(1, f))
}

// Text returns the value formatted with as many decimals as the step has.
func (s *Slider) Text() string {
	return strconv.FormatFloat(float64(*s.Value), 'f', s.precision(), 32)
}

func (s *Slider) precision() int {
	if s.Step <= 0 {
		return 2
	}
	str := strconv.FormatFloat(float64(s.Step), 'f', -1, 32)
	for i := range str {
		if str[i] == '.' {
			return len(str) - i - 1
		}
	}
	return 0
}

func roundToDecimal(v float64, decimals int) float64 {
	tenTo := math.Pow(10, float64(decimals))
	return math.Round(v*tenTo) / tenTo
}

// Panel is a vertical list of sliders with a footer button that collapses it.
type Panel struct {
	Sliders []*Slider
	Width   int
	// Closed collapses the panel to its footer.
	Closed bool

	face   font.Face
	active *Slider
	img    *image.RGBA
	drawn  []float32
	dirty  bool
}

// New returns an empty panel that draws text with face.
// A nil face selects the Go regular font.
func New(face font.Face) (*Panel, error) {
	if face == nil {
		ttf, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, err
		}
		face = truetype.NewFace(ttf, &truetype.Options{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	return &Panel{Width: DefaultWidth, face: face, dirty: true}, nil
}

// Add appends a slider bound to v with the dat.GUI implied step for *v.
func (p *Panel) Add(label string, v *float32, Min, Max float32) *Slider {
	s := &Slider{Label: label, Min: Min, Max: Max, Step: ImpliedStep(*v), Value: v}
	p.Sliders = append(p.Sliders, s)
	p.dirty = true
	return s
}

// Size returns the current panel dimensions in pixels.
func (p *Panel) Size() image.Point {
	h := footerHeight
	if !p.Closed {
		h += rowHeight * len(p.Sliders)
	}
	return image.Pt(p.Width, h)
}

// Toggle opens a closed panel and closes an open one.
func (p *Panel) Toggle() {
	p.Closed = !p.Closed
	p.active = nil
	p.dirty = true
}

// sliderTrack returns the track rectangle of row i in panel coordinates.
func (p *Panel) sliderTrack(i int) image.Rectangle {
	x0 := int(float32(p.Width) * labelFraction)
	controlWidth := p.Width - x0 - padding
	y0 := i * rowHeight
	return image.Rect(x0, y0+padding+1, x0+int(float32(controlWidth)*sliderFrac), y0+rowHeight-padding-1)
}

// numberBox returns the numeric readout rectangle of row i in panel coordinates.
func (p *Panel) numberBox(i int) image.Rectangle {
	track := p.sliderTrack(i)
	return image.Rect(track.Max.X+padding, track.Min.Y, p.Width-padding, track.Max.Y)
}

func (p *Panel) footer() image.Rectangle {
	sz := p.Size()
	return image.Rect(0, sz.Y-footerHeight, sz.X, sz.Y)
}

// MouseDown handles a primary button press at panel-local (x, y). It reports
// whether the event landed on the panel and should not reach the scene.
func (p *Panel) MouseDown(x, y float32) bool {
	pt := image.Pt(int(x), int(y))
	if !pt.In(image.Rectangle{Max: p.Size()}) {
		return false
	}
	if pt.In(p.footer()) {
		p.Toggle()
		return true
	}
	row := pt.Y / rowHeight
	if row < len(p.Sliders) && pt.In(p.sliderTrack(row)) {
		p.active = p.Sliders[row]
		p.drag(x, row)
	}
	return true
}

// MouseMove handles pointer motion. It reports whether a slider drag is in progress.
func (p *Panel) MouseMove(x, y float32) bool {
	if p.active == nil {
		return false
	}
	for i, s := range p.Sliders {
		if s == p.active {
			p.drag(x, i)
		}
	}
	return true
}

// MouseUp ends any slider drag.
func (p *Panel) MouseUp() { p.active = nil }

// Dragging reports whether a slider is being dragged.
func (p *Panel) Dragging() bool { return p.active != nil }

func (p *Panel) drag(x float32, row int) {
	s := p.Sliders[row]
	track := p.sliderTrack(row)
	f := (x - float32(track.Min.X)) / float32(track.Dx())
	f = max(0, min(1, f))
	if s.SetValue(s.Min + f*(s.Max-s.Min)) {
		p.dirty = true
	}
}

// Changed reports whether the panel needs to be redrawn, either because of
// input or because a bound value was modified from outside the panel.
func (p *Panel) Changed() bool {
	if p.dirty || len(p.drawn) != len(p.Sliders) {
		return true
	}
	for i, s := range p.Sliders {
		if *s.Value != p.drawn[i] {
			return true
		}
	}
	return false
}

// Image returns the panel rasterized at its current size, redrawing only if
// it changed since the last call. The returned image is reused between calls.
func (p *Panel) Image() *image.RGBA {
	if !p.Changed() && p.img != nil {
		return p.img
	}
	sz := p.Size()
	if p.img == nil || p.img.Rect.Size() != sz {
		p.img = image.NewRGBA(image.Rectangle{Max: sz})
	}
	p.draw(p.img)
	p.drawn = p.drawn[:0]
	for _, s := range p.Sliders {
		p.drawn = append(p.drawn, *s.Value)
	}
	p.dirty = false
	return p.img
}

func (p *Panel) draw(dst *image.RGBA) {
	fill(dst, dst.Bounds(), colBackground)
	if !p.Closed {
		for i, s := range p.Sliders {
			y0 := i * rowHeight
			row := image.Rect(0, y0, p.Width, y0+rowHeight)
			fill(dst, image.Rect(0, row.Min.Y, borderWidth, row.Max.Y), colNumber)
			fill(dst, image.Rect(0, row.Max.Y-1, p.Width, row.Max.Y), colRowBorder)
			p.text(dst, s.Label, borderWidth+padding+1, row, colText)

			track := p.sliderTrack(i)
			fill(dst, track, colTrack)
			filled := track
			filled.Max.X = track.Min.X + int(s.Fraction()*float32(track.Dx()))
			fill(dst, filled, colNumber)

			box := p.numberBox(i)
			fill(dst, box, colTrack)
			p.text(dst, s.Text(), box.Min.X+2, row, colNumber)
		}
	}
	foot := p.footer()
	fill(dst, foot, colFooter)
	label := "Close Controls"
	if p.Closed {
		label = "Open Controls"
	}
	w := font.MeasureString(p.face, label).Ceil()
	p.text(dst, label, (p.Width-w)/2, foot, colText)
}

// text draws s starting at x, vertically centered in row.
func (p *Panel) text(dst *image.RGBA, s string, x int, row image.Rectangle, c color.Color) {
	m := p.face.Metrics()
	textHeight := (m.Ascent + m.Descent).Ceil()
	baseline := row.Min.Y + (row.Dy()-textHeight)/2 + m.Ascent.Ceil()
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: p.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
