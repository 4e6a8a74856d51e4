package encoder

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrBadDeviation       = errors.New("place cell deviation must be > 0")
	ErrPlacementExhausted = errors.New("place cell placement exhausted retries before reaching count")
)

// PlaceParams controls place cell generation.
type PlaceParams struct {
	// Dev is both the gaussian width and the minimum distance between centers.
	Dev float64 `toml:"dev"`
	// MaxTries bounds how often a too-close candidate is redrawn.
	MaxTries int `toml:"max_tries"`
	// Count is the number of cells wanted; 0 fills the space until a
	// candidate exhausts MaxTries.
	Count int `toml:"count"`
	// Radius is the half-width of the square the centers are drawn from.
	Radius float64 `toml:"radius"`
}

func (pp *PlaceParams) Defaults() {
	pp.Dev = 0.15
	pp.MaxTries = 1000
	pp.Count = 0
	pp.Radius = 1
}

// PlaceCells is a fixed set of 2D prototype locations. Encode maps a state
// to one gaussian activation per prototype.
type PlaceCells struct {
	Centers [][]float64
	Dev     float64
	// Radius bounds encoded inputs to [-Radius, Radius] per coordinate;
	// 0 leaves finite inputs as they are.
	Radius float64
}

// NewPlaceCells places centers by rejection sampling so that every pair is
// at least Dev apart. A candidate still too close after MaxTries redraws
// is discarded and generation stops there.
func NewPlaceCells(rng *rand.Rand, pp PlaceParams) (*PlaceCells, error) {
	if !(pp.Dev > 0) {
		return nil, ErrBadDeviation
	}
	if pp.MaxTries < 0 {
		pp.MaxTries = 0
	}
	if pp.Radius <= 0 {
		pp.Radius = 1
	}

	centers := [][]float64{randomLocation(rng, pp.Radius)}
	for pp.Count <= 0 || len(centers) < pp.Count {
		loc := randomLocation(rng, pp.Radius)
		tries := 0
		for nearest(centers, loc) < pp.Dev && tries < pp.MaxTries {
			loc = randomLocation(rng, pp.Radius)
			tries++
		}
		if nearest(centers, loc) < pp.Dev {
			if pp.Count > 0 {
				return nil, fmt.Errorf("%w: placed %d of %d", ErrPlacementExhausted, len(centers), pp.Count)
			}
			break
		}
		centers = append(centers, loc)
	}
	return &PlaceCells{Centers: centers, Dev: pp.Dev, Radius: pp.Radius}, nil
}

// Len is the number of place cells.
func (pc *PlaceCells) Len() int {
	return len(pc.Centers)
}

// Encode returns exp(-d^2 / (2 dev^2)) for the distance d between x and
// every center. x is clamped to the placement square first. The vector is
// not normalized.
func (pc *PlaceCells) Encode(x []float64) []float64 {
	loc := clampPoint(x, pc.Radius)
	out := make([]float64, len(pc.Centers))
	den := 2 * pc.Dev * pc.Dev
	for i, c := range pc.Centers {
		d := floats.Distance(c, loc, 2)
		out[i] = math.Exp(-d * d / den)
	}
	return out
}

// MinSeparation is the smallest pairwise distance between centers, or
// +Inf when there are fewer than two.
func (pc *PlaceCells) MinSeparation() float64 {
	min := math.Inf(1)
	for i := range pc.Centers {
		for j := i + 1; j < len(pc.Centers); j++ {
			min = math.Min(min, floats.Distance(pc.Centers[i], pc.Centers[j], 2))
		}
	}
	return min
}

func randomLocation(rng *rand.Rand, radius float64) []float64 {
	return []float64{
		rng.Float64()*2*radius - radius,
		rng.Float64()*2*radius - radius,
	}
}

func nearest(centers [][]float64, loc []float64) float64 {
	min := math.Inf(1)
	for _, c := range centers {
		min = math.Min(min, floats.Distance(c, loc, 2))
	}
	return min
}

// clampPoint bounds both coordinates of x to [-radius, radius]; NaN and
// missing coordinates become 0. radius <= 0 only replaces non-finite values.
func clampPoint(x []float64, radius float64) []float64 {
	lo, hi := -math.MaxFloat64, math.MaxFloat64
	if radius > 0 {
		lo, hi = -radius, radius
	}
	loc := make([]float64, 2)
	for i := 0; i < 2 && i < len(x); i++ {
		if math.IsNaN(x[i]) {
			continue
		}
		loc[i] = math.Max(lo, math.Min(hi, x[i]))
	}
	return loc
}
