package agent

import (
	"errors"
	"math/rand"
)

// TabularParams configure the tabular actor-critic.
type TabularParams struct {
	// Alpha is the critic learning rate.
	Alpha float64 `toml:"alpha"`
	// Beta is the actor learning rate.
	Beta     float64 `toml:"beta"`
	Discount float64 `toml:"discount"`
	Actions  int     `toml:"actions"`
}

func (tp *TabularParams) Defaults() {
	tp.Alpha = 0.1
	tp.Beta = 0.1
	tp.Discount = 0.9
	tp.Actions = 3
}

// Cell is a discretized (ball, paddle) state.
type Cell struct {
	Ball   int
	Paddle int
}

// Tabular is an actor-critic over a small grid of states. Policy is
// indexed [paddle][ball][action] and Values [paddle][ball].
type Tabular struct {
	Params TabularParams
	Policy [][][]float64
	Values [][]float64

	ballBins   int
	paddleBins int
	rng        *rand.Rand
}

// NewTabular starts from a uniformly random policy and zero values.
func NewTabular(params TabularParams, ballBins, paddleBins int, rng *rand.Rand) (*Tabular, error) {
	if ballBins <= 0 || paddleBins <= 0 || params.Actions <= 0 {
		return nil, errors.New("tabular dimensions must be > 0")
	}
	tb := &Tabular{
		Params:     params,
		ballBins:   ballBins,
		paddleBins: paddleBins,
		rng:        rng,
	}
	tb.Policy = make([][][]float64, paddleBins)
	tb.Values = make([][]float64, paddleBins)
	for p := range tb.Policy {
		tb.Policy[p] = make([][]float64, ballBins)
		tb.Values[p] = make([]float64, ballBins)
		for b := range tb.Policy[p] {
			tb.Policy[p][b] = make([]float64, params.Actions)
			for a := range tb.Policy[p][b] {
				tb.Policy[p][b][a] = rng.Float64()
			}
		}
	}
	return tb, nil
}

func (tb *Tabular) clamp(c Cell) Cell {
	c.Ball = clampInt(c.Ball, 0, tb.ballBins-1)
	c.Paddle = clampInt(c.Paddle, 0, tb.paddleBins-1)
	return c
}

// Act samples an action from the softmax of the policy row for c.
func (tb *Tabular) Act(c Cell) (int, error) {
	c = tb.clamp(c)
	return Softmax{}.Select(tb.Policy[c.Paddle][c.Ball], tb.rng)
}

// Value is the critic's estimate for c.
func (tb *Tabular) Value(c Cell) float64 {
	c = tb.clamp(c)
	return tb.Values[c.Paddle][c.Ball]
}

// Learn updates critic and actor for the transition prev -(action)-> cur.
// Nothing is learned when no reward arrived and the state did not change.
func (tb *Tabular) Learn(prev, cur Cell, action int, reward float64) (float64, bool) {
	prev, cur = tb.clamp(prev), tb.clamp(cur)
	if reward == 0 && prev == cur {
		return 0, false
	}
	if action < 0 || action >= tb.Params.Actions {
		return 0, false
	}
	err := StateError(reward, tb.Values[prev.Paddle][prev.Ball], tb.Values[cur.Paddle][cur.Ball], tb.Params.Discount)
	tb.Values[prev.Paddle][prev.Ball] += tb.Params.Alpha * err
	tb.Policy[prev.Paddle][prev.Ball][action] += tb.Params.Beta * err
	return err, true
}

// SetTables replaces policy and values, checking their shape.
func (tb *Tabular) SetTables(policy [][][]float64, values [][]float64) error {
	if len(policy) != tb.paddleBins || len(values) != tb.paddleBins {
		return ErrShape
	}
	for p := range policy {
		if len(policy[p]) != tb.ballBins || len(values[p]) != tb.ballBins {
			return ErrShape
		}
		for b := range policy[p] {
			if len(policy[p][b]) != tb.Params.Actions {
				return ErrShape
			}
		}
	}
	tb.Policy = policy
	tb.Values = values
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
