package agent

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// TDParams are the temporal difference parameters.
type TDParams struct {
	// Period is the decision period in simulated seconds.
	Period float64 `toml:"period"`
	// Tolerance is how far past a period boundary a tick still counts as
	// the boundary. Keep it below the tick length.
	Tolerance float64 `toml:"tolerance"`
	// Discount applied to the next state's value.
	Discount float64 `toml:"discount"`
	// RewardDecay scales the accumulated reward after each boundary;
	// 0 resets it.
	RewardDecay float64 `toml:"reward_decay"`
	// FloorOn places NegFloor in the error signal of every other action
	// whose current value is negative.
	FloorOn  bool    `toml:"floor_on"`
	NegFloor float64 `toml:"neg_floor"`
}

func (tp *TDParams) Defaults() {
	tp.Period = 0.1
	tp.Tolerance = 0.0005
	tp.Discount = 0.9
	tp.RewardDecay = 0.6
	tp.FloorOn = false
	tp.NegFloor = 0.001
}

// Signal is the outcome of one decision boundary.
type Signal struct {
	Time   float64
	Error  float64
	Reward float64
	// Next is Discount * max of the new values.
	Next float64
	// Prev is the saved value of the action that was in effect.
	Prev   float64
	Action int
	// Vector carries Error at Action and zero (or the floor) elsewhere.
	Vector []float64
}

// TDErrorCalc computes the TD error once per decision period. It is
// called on every tick; only boundary ticks change its saved values.
type TDErrorCalc struct {
	Params TDParams

	reward    float64
	saved     []float64
	period    int64
	hasPeriod bool
}

func NewTDErrorCalc(params TDParams, actions int) *TDErrorCalc {
	return &TDErrorCalc{
		Params: params,
		saved:  make([]float64, actions),
	}
}

// OnBoundary reports whether t falls within tol after a multiple of
// period, and which multiple it is.
func OnBoundary(t, period, tol float64) (int64, bool) {
	if period <= 0 {
		return 0, true
	}
	n := math.Floor(t/period + 1e-9)
	r := t - n*period
	return int64(n), r <= tol
}

// Step adds reward to the running total. On the first tick of each new
// period, normally within Tolerance of its start, it returns the TD error
// for action, the action in effect over the period just completed, given
// vals, the per-action values of the new state.
func (td *TDErrorCalc) Step(t, reward float64, vals []float64, action int) (Signal, bool) {
	td.reward += reward

	n, ok := OnBoundary(t, td.Params.Period, td.Params.Tolerance)
	if len(vals) != len(td.saved) || (td.hasPeriod && n <= td.period) {
		return Signal{}, false
	}
	if !ok && !td.hasPeriod {
		// Started inside period n: its boundary has passed unseen.
		td.period = n
		td.hasPeriod = true
		return Signal{}, false
	}
	// A period index ahead of the last one fires even when the ticks
	// stepped over its tolerance window.
	td.period = n
	td.hasPeriod = true
	if action < 0 || action >= len(vals) {
		action = 0
	}

	next := td.Params.Discount * floats.Max(vals)
	prev := td.saved[action]
	sig := Signal{
		Time:   t,
		Error:  td.reward + next - prev,
		Reward: td.reward,
		Next:   next,
		Prev:   prev,
		Action: action,
		Vector: make([]float64, len(vals)),
	}
	for i, v := range vals {
		switch {
		case i == action:
			sig.Vector[i] = sig.Error
		case td.Params.FloorOn && v < 0:
			sig.Vector[i] = td.Params.NegFloor
		}
	}

	td.reward *= td.Params.RewardDecay
	copy(td.saved, vals)
	return sig, true
}

// Saved returns a copy of the values stored at the last boundary.
func (td *TDErrorCalc) Saved() []float64 {
	return append([]float64(nil), td.saved...)
}

// Reward returns the reward accumulated since the last boundary.
func (td *TDErrorCalc) Reward() float64 {
	return td.reward
}

// StateError is the state-value TD error used by the tabular learner.
func StateError(reward, prev, cur, discount float64) float64 {
	return reward - prev + discount*cur
}
