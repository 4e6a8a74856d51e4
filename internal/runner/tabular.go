package runner

import (
	"context"
	"errors"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/encoder"
	"pong-actor-critic/internal/pong"
)

// TabularRunner plays a tabular learner one decision per Move. Cell maps
// an observation to its table cell.
type TabularRunner struct {
	Learner  *agent.Tabular
	Env      pong.Environment
	Side     int
	Opponent *pong.Tracker
	Cell     func(pong.State) agent.Cell
	// Moves is how many decisions to make; 0 runs until ctx is done.
	Moves int

	OnLearn func(move int, tdErr float64, stats pong.Stats)
}

func (r *TabularRunner) Run(ctx context.Context) error {
	if r.Learner == nil || r.Env == nil || r.Cell == nil {
		return errors.New("tabular runner needs a learner, an environment and a cell mapping")
	}
	state, _ := r.Env.GetState(r.Side)

	for move := 0; r.Moves <= 0 || move < r.Moves; move++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if r.Opponent != nil {
			other := 1 - r.Side
			if s, ok := r.Env.GetState(other); ok {
				r.Env.Move(r.Opponent.Act(s), other)
			}
		}

		prev := r.Cell(state)
		action, err := r.Learner.Act(prev)
		if err != nil {
			return err
		}
		next, reward := r.Env.Move(moveFor(action), r.Side)
		if tdErr, ok := r.Learner.Learn(prev, r.Cell(next), action, reward); ok && r.OnLearn != nil {
			r.OnLearn(move, tdErr, r.Env.Stats())
		}
		state = next
	}
	return nil
}

// GridCell reads a grid environment state, whose coordinates already are
// bin indices.
func GridCell(s pong.State) agent.Cell {
	return agent.Cell{Ball: int(s.Ball), Paddle: int(s.Paddle)}
}

// BinnedCell quantizes a pixel observation of the arcade game with g.
func BinnedCell(g encoder.Grid, maxY float64) func(pong.State) agent.Cell {
	return func(s pong.State) agent.Cell {
		bins := g.Bin(s.Normalize(maxY))
		return agent.Cell{Ball: bins[0], Paddle: bins[1]}
	}
}

// Coverage counts the distinct grid cells a run has visited.
type Coverage struct {
	Grid encoder.Grid

	seen    []bool
	visited int
}

func NewCoverage(g encoder.Grid) *Coverage {
	return &Coverage{Grid: g, seen: make([]bool, g.Size())}
}

// Observe marks the cell holding the normalized state x.
func (c *Coverage) Observe(x []float64) {
	i := c.Grid.Index(x)
	if i < 0 || i >= len(c.seen) || c.seen[i] {
		return
	}
	c.seen[i] = true
	c.visited++
}

// Visited is the number of distinct cells observed.
func (c *Coverage) Visited() int {
	return c.visited
}

// Fraction is Visited over the number of cells in the grid.
func (c *Coverage) Fraction() float64 {
	if len(c.seen) == 0 {
		return 0
	}
	return float64(c.visited) / float64(len(c.seen))
}
