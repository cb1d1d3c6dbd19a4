package pipeline

import (
	"image"
	"image/color"

	"github.com/disintegration/gift"
)

// SoftenAlpha Gaussian-blurs the alpha channel of img in place, leaving RGB untouched.
// Pixels for which holes reports true (positions relative to the bounds
// minimum) end fully transparent after the blur. holes may be nil.
// sigma <= 0 is a no-op.
func SoftenAlpha(img *image.NRGBA, sigma float32, holes func(image.Point) bool) {
	if sigma <= 0 {
		return
	}

	b := img.Bounds()
	alpha := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			alpha.SetGray(x, y, color.Gray{Y: img.NRGBAAt(x, y).A})
		}
	}

	g := gift.New(gift.GaussianBlur(sigma))
	blurred := image.NewGray(g.Bounds(alpha.Bounds()))
	g.Draw(blurred, alpha)

	bb := blurred.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			c.A = blurred.GrayAt(bb.Min.X+x, bb.Min.Y+y).Y
			if holes != nil && holes(image.Pt(x, y)) {
				c.A = 0
			}
			img.SetNRGBA(b.Min.X+x, b.Min.Y+y, c)
		}
	}
}
