package agent

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var ErrNonFiniteScores = errors.New("no finite action scores")

// Selector picks an action index from per-action scores.
type Selector interface {
	Select(scores []float64, rng *rand.Rand) (int, error)
}

// Softmax samples an action in proportion to exp(score).
type Softmax struct{}

func (Softmax) Select(scores []float64, rng *rand.Rand) (int, error) {
	probs, err := softmax(scores)
	if err != nil {
		return 0, err
	}
	return sampleCategorical(probs, rng), nil
}

// EpsilonGreedy takes a uniformly random action with probability Epsilon
// and the best scoring one otherwise.
type EpsilonGreedy struct {
	Epsilon float64
}

func (eg EpsilonGreedy) Select(scores []float64, rng *rand.Rand) (int, error) {
	if len(scores) == 0 {
		return 0, ErrNonFiniteScores
	}
	if rng.Float64() < eg.Epsilon {
		return rng.Intn(len(scores)), nil
	}
	best := -1
	for i, v := range scores {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, ErrNonFiniteScores
	}
	return best, nil
}

// NewSelector maps a config name onto a Selector.
func NewSelector(name string, epsilon float64) (Selector, error) {
	switch name {
	case "", "softmax":
		return Softmax{}, nil
	case "epsilon":
		return EpsilonGreedy{Epsilon: epsilon}, nil
	default:
		return nil, errors.New("selector must be 'softmax' or 'epsilon'")
	}
}

// softmax returns exp(v - max) normalized over the finite entries. Non-finite
// entries get probability zero.
func softmax(logits []float64) ([]float64, error) {
	maxLogit := math.Inf(-1)
	finite := 0
	for _, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite++
		if v > maxLogit {
			maxLogit = v
		}
	}
	if finite == 0 {
		return nil, ErrNonFiniteScores
	}
	values := make([]float64, len(logits))
	for i, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(values), values)
	return values, nil
}

func sampleCategorical(probs []float64, rng *rand.Rand) int {
	threshold := rng.Float64()
	var cumulativeProb float64
	last := 0
	for i, prob := range probs {
		if prob == 0 {
			continue
		}
		last = i
		cumulativeProb += prob
		if threshold <= cumulativeProb {
			return i
		}
	}
	return last
}

// ActionMove maps action indices to paddle directions: down, stay, up.
var ActionMove = []int{-1, 0, 1}
