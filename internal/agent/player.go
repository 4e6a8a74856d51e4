package agent

import (
	"fmt"
	"math/rand"

	"pong-actor-critic/internal/encoder"
)

// Params configure a place cell actor-critic player.
type Params struct {
	Actions   int     `toml:"actions"`
	LRate     float64 `toml:"lrate"`
	InitValue float64 `toml:"init_value"`
	Selector  string  `toml:"selector"`
	Epsilon   float64 `toml:"epsilon"`

	Place encoder.PlaceParams `toml:"place"`
	TD    TDParams            `toml:"td"`
}

func (p *Params) Defaults() {
	p.Actions = 3
	p.LRate = 0.05
	p.InitValue = 0.1
	p.Selector = "softmax"
	p.Epsilon = 0.1
	p.Place.Defaults()
	p.TD.Defaults()
}

// Decision is what the player did on one tick.
type Decision struct {
	Action   int
	Boundary bool
	Signal   Signal
}

// Player owns the place cells, the value readout and the TD state of one
// agent. It is not safe for concurrent use; all updates happen in Tick.
type Player struct {
	Params Params

	Cells   *encoder.PlaceCells
	Readout *Readout
	TD      *TDErrorCalc

	sel      Selector
	rng      *rand.Rand
	action   int
	features []float64
	prev     []float64
	pending  float64
}

// NewPlayer draws the place cells from rng and keeps rng for action
// sampling, so a fixed seed fixes the whole run.
func NewPlayer(params Params, rng *rand.Rand) (*Player, error) {
	if params.Actions <= 0 {
		return nil, fmt.Errorf("actions must be > 0, got %d", params.Actions)
	}
	sel, err := NewSelector(params.Selector, params.Epsilon)
	if err != nil {
		return nil, err
	}
	cells, err := encoder.NewPlaceCells(rng, params.Place)
	if err != nil {
		return nil, fmt.Errorf("place cells: %w", err)
	}
	return &Player{
		Params:  params,
		Cells:   cells,
		Readout: NewReadout(params.Actions, cells.Len(), params.InitValue),
		TD:      NewTDErrorCalc(params.TD, params.Actions),
		sel:     sel,
		rng:     rng,
		action:  params.Actions / 2,
	}, nil
}

// Action is the action currently in effect.
func (p *Player) Action() int {
	return p.action
}

// Tick advances the player by one environment tick at simulated time t.
// state is the normalized (ball, paddle) observation; when fresh is false
// the previous features are reused. On a decision boundary the readout
// learns from the TD error and a new action is sampled.
func (p *Player) Tick(t float64, state []float64, fresh bool, reward float64) (Decision, error) {
	if fresh {
		p.features = p.Cells.Encode(state)
	}
	if p.features == nil {
		p.pending += reward
		return Decision{Action: p.action}, nil
	}
	reward += p.pending
	p.pending = 0

	vals, err := p.Readout.Values(p.features)
	if err != nil {
		return Decision{Action: p.action}, err
	}
	sig, ok := p.TD.Step(t, reward, vals, p.action)
	if !ok {
		return Decision{Action: p.action}, nil
	}
	if p.prev != nil {
		if err := p.Readout.Learn(p.prev, sig.Vector, p.Params.LRate); err != nil {
			return Decision{Action: p.action}, err
		}
	}

	next, err := p.sel.Select(vals, p.rng)
	if err != nil {
		return Decision{Action: p.action, Boundary: true, Signal: sig}, fmt.Errorf("select at t=%.3f: %w", t, err)
	}
	p.action = next
	p.prev = append(p.prev[:0], p.features...)
	return Decision{Action: next, Boundary: true, Signal: sig}, nil
}

// Restore swaps in saved place cell centers and the readout rows learned
// over them. The cell count may differ from the current one; the player is
// unchanged on error.
func (p *Player) Restore(centers, rows [][]float64) error {
	if len(centers) == 0 {
		return ErrShape
	}
	for _, c := range centers {
		if len(c) != 2 {
			return ErrShape
		}
	}
	ro := NewReadout(p.Params.Actions, len(centers), p.Params.InitValue)
	if err := ro.SetRows(rows); err != nil {
		return err
	}
	p.Cells = &encoder.PlaceCells{Centers: centers, Dev: p.Cells.Dev, Radius: p.Cells.Radius}
	p.Readout = ro
	p.features = nil
	p.prev = nil
	return nil
}
