package wear

import (
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/wsm/internal/noise"
)

const (
	DefaultPointFrequency     = 10     // one erosion point per this many pixels of area
	DefaultMinRadius          = 1      // inclusive
	DefaultMaxRadius          = 2      // exclusive
	DefaultNoiseDivision      = 20.0   // pixel-to-noise coordinate divisor
	DefaultResolutionDivision = 1000.0 // longest image side that samples noise at scale 1
	DefaultDarkenOffset       = 5.0    // fixed z/w coordinates of the darkening sample
)

// ErrInvalidConfig is returned (wrapped) for unusable processor settings.
var ErrInvalidConfig = errors.New("invalid wear config")

// DiagnosticFunc receives the green value computed by ProcessPixelDebug.
// It may be called concurrently when pixels are evaluated in parallel.
type DiagnosticFunc func(pos image.Point, green uint8)

// Config tunes the wear processor.
type Config struct {
	Seed           int64
	PointFrequency int
	MinRadius      int
	MaxRadius      int
	NoiseDivision  float64

	// ResolutionScaling multiplies noise coordinates by max(w,h)/ResolutionDivision.
	ResolutionScaling  bool
	ResolutionDivision float64

	// Darken blends RGB 50/50 with a second, 4D noise composite.
	Darken       bool
	DarkenOffset float64

	NoiseKind   noise.Kind
	Diagnostics DiagnosticFunc
}

// DefaultConfig returns the reference settings with resolution scaling and darkening enabled.
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:               seed,
		PointFrequency:     DefaultPointFrequency,
		MinRadius:          DefaultMinRadius,
		MaxRadius:          DefaultMaxRadius,
		NoiseDivision:      DefaultNoiseDivision,
		ResolutionScaling:  true,
		ResolutionDivision: DefaultResolutionDivision,
		Darken:             true,
		DarkenOffset:       DefaultDarkenOffset,
		NoiseKind:          noise.KindOpenSimplex,
	}
}

// Simple returns a copy of c without resolution scaling or darkening.
func (c Config) Simple() Config {
	c.ResolutionScaling = false
	c.Darken = false
	return c
}

// Validate reports settings the processor cannot run with.
func (c Config) Validate() error {
	if c.PointFrequency <= 0 {
		return fmt.Errorf("%w: point frequency must be positive, got %d", ErrInvalidConfig, c.PointFrequency)
	}
	if c.MinRadius < 1 {
		return fmt.Errorf("%w: min radius must be at least 1, got %d", ErrInvalidConfig, c.MinRadius)
	}
	if c.MaxRadius <= c.MinRadius {
		return fmt.Errorf("%w: radius range [%d,%d) is empty", ErrInvalidConfig, c.MinRadius, c.MaxRadius)
	}
	if c.NoiseDivision <= 0 {
		return fmt.Errorf("%w: noise division must be positive, got %g", ErrInvalidConfig, c.NoiseDivision)
	}
	if c.ResolutionScaling && c.ResolutionDivision <= 0 {
		return fmt.Errorf("%w: resolution division must be positive, got %g", ErrInvalidConfig, c.ResolutionDivision)
	}
	return nil
}
