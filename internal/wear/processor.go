// Package wear implements the texture-wear processor: a seeded erosion point
// field plus multi-octave noise, evaluated independently per pixel.
package wear

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/wsm/internal/noise"
)

// pointSeedOffset decorrelates the point field RNG from the noise seed.
const pointSeedOffset = 911

var octaveMultipliers = [...]float64{1, 2, 4}

// Processor holds the immutable per-image wear state.
// All methods are safe for concurrent use.
type Processor struct {
	cfg    Config
	width  int
	height int
	scale  float64
	noise  noise.Source
	points []Point
	marks  *pointMarks
}

// New builds a processor for a width x height image.
// Zero-area images are valid and yield no points.
func New(width, height int, cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := noise.New(cfg.NoiseKind, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return newWithSource(width, height, cfg, src)
}

func newWithSource(width, height int, cfg Config, src noise.Source) (*Processor, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, width, height)
	}

	rng := rand.New(rand.NewSource(cfg.Seed + pointSeedOffset))
	points := GeneratePoints(rng, width, height, cfg)

	scale := 1.0
	if cfg.ResolutionScaling {
		scale = ResolutionScale(width, height, cfg.ResolutionDivision)
	}

	return &Processor{
		cfg:    cfg,
		width:  width,
		height: height,
		scale:  scale,
		noise:  src,
		points: points,
		marks:  newPointMarks(width, height, points),
	}, nil
}

// ResolutionScale keeps apparent noise grain similar across image sizes.
func ResolutionScale(width, height int, division float64) float64 {
	return float64(max(width, height)) / division
}

// PointCount returns the number of generated erosion points.
func (p *Processor) PointCount() int { return len(p.points) }

// Points returns a copy of the erosion points in generation order.
func (p *Processor) Points() []Point {
	out := make([]Point, len(p.points))
	copy(out, p.points)
	return out
}

// Scale returns the noise resolution scale in use.
func (p *Processor) Scale() float64 { return p.scale }

// Seed returns the seed the processor was built with.
func (p *Processor) Seed() int64 { return p.cfg.Seed }

// Bounds returns the image rectangle the processor was built for.
func (p *Processor) Bounds() image.Rectangle { return image.Rect(0, 0, p.width, p.height) }

// Composite is the mean of |noise| over three octaves at pos, roughly in [0, 1].
func (p *Processor) Composite(pos image.Point) float64 {
	return p.octaves(pos, p.noise.Noise2D)
}

// DarkenComposite is Composite computed on a 4D slice at the darken offset.
func (p *Processor) DarkenComposite(pos image.Point) float64 {
	off := p.cfg.DarkenOffset
	return p.octaves(pos, func(x, y float64) float64 {
		return p.noise.Noise4D(x, y, off, off)
	})
}

func (p *Processor) octaves(pos image.Point, sample func(x, y float64) float64) float64 {
	bx := float64(pos.X) / p.cfg.NoiseDivision
	by := float64(pos.Y) / p.cfg.NoiseDivision

	sum := 0.0
	for _, k := range octaveMultipliers {
		f := k * p.scale
		sum += math.Abs(sample(bx*f, by*f)) / float64(len(octaveMultipliers))
	}
	return sum
}

// Eroded reports whether pos lies strictly inside any erosion point's radius.
func (p *Processor) Eroded(pos image.Point) bool {
	return p.marks.has(pos, markEroded)
}

// IsPoint reports whether pos is exactly the position of an erosion point.
func (p *Processor) IsPoint(pos image.Point) bool {
	return p.marks.has(pos, markPoint)
}
