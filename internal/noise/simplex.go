package noise

import "math/rand"

const (
	f2 = 0.36602540378443865 // (sqrt(3)-1)/2
	g2 = 0.21132486540518713 // (3-sqrt(3))/6
	f4 = 0.30901699437494745 // (sqrt(5)-1)/4
	g4 = 0.1381966011250105  // (5-sqrt(5))/20
)

var grad2 = [8][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

var grad4 = [32][4]float64{
	{0, 1, 1, 1}, {0, 1, 1, -1}, {0, 1, -1, 1}, {0, 1, -1, -1},
	{0, -1, 1, 1}, {0, -1, 1, -1}, {0, -1, -1, 1}, {0, -1, -1, -1},
	{1, 0, 1, 1}, {1, 0, 1, -1}, {1, 0, -1, 1}, {1, 0, -1, -1},
	{-1, 0, 1, 1}, {-1, 0, 1, -1}, {-1, 0, -1, 1}, {-1, 0, -1, -1},
	{1, 1, 0, 1}, {1, 1, 0, -1}, {1, -1, 0, 1}, {1, -1, 0, -1},
	{-1, 1, 0, 1}, {-1, 1, 0, -1}, {-1, -1, 0, 1}, {-1, -1, 0, -1},
	{1, 1, 1, 0}, {1, 1, -1, 0}, {1, -1, 1, 0}, {1, -1, -1, 0},
	{-1, 1, 1, 0}, {-1, 1, -1, 0}, {-1, -1, 1, 0}, {-1, -1, -1, 0},
}

// Simplex is a permutation-table simplex noise in two and four dimensions.
type Simplex struct {
	perm [512]uint8
}

// NewSimplex shuffles the permutation table with a math/rand source seeded by seed.
func NewSimplex(seed int64) *Simplex {
	s := &Simplex{}
	r := rand.New(rand.NewSource(seed))
	p := make([]uint8, 256)
	for i := range p {
		p[i] = uint8(i)
	}
	r.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	for i := range s.perm {
		s.perm[i] = p[i&255]
	}
	return s
}

func floor(x float64) int {
	i := int(x)
	if x < float64(i) {
		i--
	}
	return i
}

func (s *Simplex) hash2(i, j int) int {
	return int(s.perm[i+int(s.perm[j])])
}

func (s *Simplex) hash4(i, j, k, l int) int {
	return int(s.perm[i+int(s.perm[j+int(s.perm[k+int(s.perm[l])])])])
}

// Noise2D returns 2D simplex noise in [-1, 1].
func (s *Simplex) Noise2D(x, y float64) float64 {
	t := (x + y) * f2
	i := floor(x + t)
	j := floor(y + t)

	t0 := float64(i+j) * g2
	x0 := x - (float64(i) - t0)
	y0 := y - (float64(j) - t0)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	corners := [3][2]float64{
		{x0, y0},
		{x0 - float64(i1) + g2, y0 - float64(j1) + g2},
		{x0 - 1 + 2*g2, y0 - 1 + 2*g2},
	}
	ii := i & 255
	jj := j & 255
	grads := [3]int{
		s.hash2(ii, jj) % 8,
		s.hash2(ii+i1, jj+j1) % 8,
		s.hash2(ii+1, jj+1) % 8,
	}

	sum := 0.0
	for c, p := range corners {
		tc := 0.5 - p[0]*p[0] - p[1]*p[1]
		if tc <= 0 {
			continue
		}
		tc *= tc
		g := grad2[grads[c]]
		sum += tc * tc * (g[0]*p[0] + g[1]*p[1])
	}
	return 70 * sum
}

// Noise4D returns 4D simplex noise in [-1, 1].
func (s *Simplex) Noise4D(x, y, z, w float64) float64 {
	in := [4]float64{x, y, z, w}
	t := (x + y + z + w) * f4

	var cell [4]int
	sumCell := 0
	for a := range in {
		cell[a] = floor(in[a] + t)
		sumCell += cell[a]
	}
	t0 := float64(sumCell) * g4

	var d0 [4]float64
	for a := range in {
		d0[a] = in[a] - (float64(cell[a]) - t0)
	}

	// Rank each axis by magnitude of its offset to pick the simplex traversal.
	var rank [4]int
	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			if d0[a] > d0[b] {
				rank[a]++
			} else {
				rank[b]++
			}
		}
	}

	var offsets [5][4]int
	for step := 1; step <= 3; step++ {
		for a := 0; a < 4; a++ {
			if rank[a] >= 4-step {
				offsets[step][a] = 1
			}
		}
	}
	offsets[4] = [4]int{1, 1, 1, 1}

	var wrapped [4]int
	for a := range cell {
		wrapped[a] = cell[a] & 255
	}

	sum := 0.0
	for c := 0; c < 5; c++ {
		o := offsets[c]
		var p [4]float64
		tc := 0.6
		for a := 0; a < 4; a++ {
			p[a] = d0[a] - float64(o[a]) + float64(c)*g4
			tc -= p[a] * p[a]
		}
		if tc <= 0 {
			continue
		}
		gi := s.hash4(wrapped[0]+o[0], wrapped[1]+o[1], wrapped[2]+o[2], wrapped[3]+o[3]) % 32
		g := grad4[gi]
		tc *= tc
		sum += tc * tc * (g[0]*p[0] + g[1]*p[1] + g[2]*p[2] + g[3]*p[3])
	}
	return 27 * sum
}
