package wear

import (
	"image"
	"math/rand"
)

// Point is an erosion point: pixels closer than Radius to Position lose all alpha.
type Point struct {
	Position image.Point
	Radius   int
}

// GeneratePoints scatters floor(width*height/PointFrequency) points over the image.
// Radii are uniform in [MinRadius, MaxRadius). Points may coincide; clusters
// read as larger worn patches.
func GeneratePoints(rng *rand.Rand, width, height int, cfg Config) []Point {
	if width <= 0 || height <= 0 || cfg.PointFrequency <= 0 {
		return nil
	}

	n := width * height / cfg.PointFrequency
	span := cfg.MaxRadius - cfg.MinRadius
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		radius := cfg.MinRadius
		if span > 0 {
			radius += rng.Intn(span)
		}
		x := rng.Intn(width)
		y := rng.Intn(height)

		points = append(points, Point{
			Position: image.Pt(x, y),
			Radius:   radius,
		})
	}
	return points
}

const (
	markPoint  uint8 = 1 << iota // pixel is exactly a point position
	markEroded                   // pixel is inside some point's radius
)

// pointMarks rasterizes the point field into per-pixel flags so lookups are O(1).
type pointMarks struct {
	w     int
	h     int
	flags []uint8
}

func newPointMarks(w, h int, points []Point) *pointMarks {
	m := &pointMarks{w: w, h: h}
	if w <= 0 || h <= 0 {
		return m
	}
	m.flags = make([]uint8, w*h)

	for _, p := range points {
		m.flags[m.idx(p.Position.X, p.Position.Y)] |= markPoint

		r := p.Radius
		r2 := r * r
		for dy := -r + 1; dy < r; dy++ {
			y := p.Position.Y + dy
			if y < 0 || y >= h {
				continue
			}
			for dx := -r + 1; dx < r; dx++ {
				x := p.Position.X + dx
				if x < 0 || x >= w {
					continue
				}
				// Strict: distance == radius is not eroded.
				if dx*dx+dy*dy < r2 {
					m.flags[m.idx(x, y)] |= markEroded
				}
			}
		}
	}
	return m
}

func (m *pointMarks) idx(x, y int) int { return y*m.w + x }

func (m *pointMarks) has(pos image.Point, flag uint8) bool {
	if pos.X < 0 || pos.Y < 0 || pos.X >= m.w || pos.Y >= m.h {
		return false
	}
	return m.flags[m.idx(pos.X, pos.Y)]&flag != 0
}
