// Package noise provides seeded coherent-noise sources for the wear processor.
//
// Every Source returns values roughly in [-1, 1] and is safe for concurrent
// reads once constructed.
package noise

import (
	"fmt"
	"strings"
)

// Source is a seeded coherent-noise function.
type Source interface {
	Noise2D(x, y float64) float64
	Noise4D(x, y, z, w float64) float64
}

// Kind names a noise backend.
type Kind string

const (
	KindOpenSimplex Kind = "opensimplex"
	KindPerlin      Kind = "perlin"
	KindSimplex     Kind = "simplex"
)

// Kinds lists the supported backends in display order.
var Kinds = []Kind{KindOpenSimplex, KindPerlin, KindSimplex}

// ParseKind resolves a backend name. Empty selects opensimplex.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindOpenSimplex, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown noise backend %q (expected one of %v)", s, Kinds)
}

// New builds a Source of the given kind.
func New(kind Kind, seed int64) (Source, error) {
	switch kind {
	case KindOpenSimplex, "":
		return NewOpenSimplex(seed), nil
	case KindPerlin:
		return NewPerlin(seed), nil
	case KindSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("unsupported noise backend: %s", kind)
	}
}
