// Package encoder turns raw (ball, paddle) observations into the
// representations the learners consume: integer bins for the tabular
// agent and radial-basis place-cell activations for the linear one.
package encoder

import "math"

// Grid quantizes each coordinate of a bounded continuous state into a
// fixed number of bins. Inputs outside [Min, Max] are clamped.
type Grid struct {
	Bins []int
	Min  float64
	Max  float64
}

// NewGrid returns a grid spanning [-1, 1] in every dimension.
func NewGrid(bins ...int) Grid {
	return Grid{Bins: bins, Min: -1, Max: 1}
}

// Bin returns the bin of every coordinate of x. Missing trailing
// coordinates land in bin 0.
func (g Grid) Bin(x []float64) []int {
	out := make([]int, len(g.Bins))
	width := g.Max - g.Min
	for i, n := range g.Bins {
		if i >= len(x) || n <= 1 || width <= 0 {
			continue
		}
		v := x[i]
		if math.IsNaN(v) {
			continue
		}
		b := math.Floor((v - g.Min) / width * float64(n))
		b = math.Min(b, float64(n-1))
		b = math.Max(b, 0)
		out[i] = int(b)
	}
	return out
}

// Index flattens Bin(x) into a single row-major index.
func (g Grid) Index(x []float64) int {
	bins := g.Bin(x)
	idx := 0
	for i, b := range bins {
		idx = idx*g.Bins[i] + b
	}
	return idx
}

// Size is the number of distinct cells.
func (g Grid) Size() int {
	n := 1
	for _, b := range g.Bins {
		n *= b
	}
	return n
}
