package wear

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Mode selects the per-pixel transform applied to an image.
type Mode int

const (
	ModeWear Mode = iota
	ModeDebug
	ModeTransparencyTest
	ModeSetBlack
)

func (m Mode) String() string {
	switch m {
	case ModeWear:
		return "wear"
	case ModeDebug:
		return "debug"
	case ModeTransparencyTest:
		return "transparency-test"
	case ModeSetBlack:
		return "set-black"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ResolveMode picks the transform for the requested flags.
// Debug wins over the transparency test; conflict is true when both were asked for.
func ResolveMode(debug, transparencyTest bool) (mode Mode, conflict bool) {
	switch {
	case debug:
		return ModeDebug, transparencyTest
	case transparencyTest:
		return ModeTransparencyTest, false
	default:
		return ModeWear, false
	}
}

// PixelFunc maps a source pixel at pos to its replacement.
type PixelFunc func(pos image.Point, c color.NRGBA) color.NRGBA

// Func returns the transform for mode.
func (p *Processor) Func(mode Mode) PixelFunc {
	switch mode {
	case ModeDebug:
		return p.ProcessPixelDebug
	case ModeTransparencyTest:
		return p.TransparencyTest
	case ModeSetBlack:
		return p.SetBlack
	default:
		return p.ProcessPixel
	}
}

// ProcessPixel applies the wear: optional darkening, noise-scaled alpha,
// then full erosion inside any point radius.
func (p *Processor) ProcessPixel(pos image.Point, c color.NRGBA) color.NRGBA {
	out := c

	if p.cfg.Darken {
		dark := p.DarkenComposite(pos) * 255
		out.R = blendHalf(c.R, dark)
		out.G = blendHalf(c.G, dark)
		out.B = blendHalf(c.B, dark)
	}

	out.A = clampU8(float64(c.A) * p.Composite(pos))
	if p.Eroded(pos) {
		out.A = 0
	}
	return out
}

// ProcessPixelDebug encodes the wear inputs into colour channels:
// green adds the noise composite, red marks exact point positions and blue
// marks pixels inside a point radius. Alpha is left untouched.
func (p *Processor) ProcessPixelDebug(pos image.Point, c color.NRGBA) color.NRGBA {
	out := c

	out.G = clampU8(float64(c.G) + math.Round(255*p.Composite(pos)))
	if p.cfg.Diagnostics != nil {
		p.cfg.Diagnostics(pos, out.G)
	}

	if p.IsPoint(pos) {
		out.R = 255
	}
	if p.Eroded(pos) {
		out.B = 255
	}
	return out
}

// TransparencyTest ignores all state and emits a white horizontal alpha ramp.
func (p *Processor) TransparencyTest(pos image.Point, _ color.NRGBA) color.NRGBA {
	return color.NRGBA{R: 255, G: 255, B: 255, A: uint8(mod(pos.X, 255))}
}

// SetBlack stamps opaque black.
func (p *Processor) SetBlack(_ image.Point, _ color.NRGBA) color.NRGBA {
	return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
}

func blendHalf(c uint8, v float64) uint8 {
	return clampU8(float64(c)*0.5 + v*0.5)
}

// clampU8 rounds x and clamps it to [0, 255].
func clampU8(x float64) uint8 {
	x = math.Round(x)
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
