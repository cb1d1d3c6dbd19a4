package noise

import "github.com/ojrac/opensimplex-go"

// OpenSimplex wraps ojrac/opensimplex-go. It is the default backend.
type OpenSimplex struct {
	n opensimplex.Noise
}

// NewOpenSimplex creates an OpenSimplex source for seed.
func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{n: opensimplex.New(seed)}
}

func (o *OpenSimplex) Noise2D(x, y float64) float64 {
	return o.n.Eval2(x, y)
}

func (o *OpenSimplex) Noise4D(x, y, z, w float64) float64 {
	return o.n.Eval4(x, y, z, w)
}
