package noise

import "github.com/aquilax/go-perlin"

// Perlin wraps aquilax/go-perlin.
// go-perlin stops at three dimensions, so Noise4D folds z and w into one axis.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin creates a Perlin source with alpha=2, beta=2 and three octaves.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2.0, 2.0, 3, seed)}
}

func (p *Perlin) Noise2D(x, y float64) float64 {
	return p.p.Noise2D(x, y)
}

func (p *Perlin) Noise4D(x, y, z, w float64) float64 {
	return p.p.Noise3D(x, y, z+w)
}
