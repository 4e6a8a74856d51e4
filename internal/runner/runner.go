package runner

import (
	"context"
	"errors"
	"time"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/pong"
)

// Runner is the decision loop of a place cell player. Each tick it sends
// the held action to the environment, feeds the resulting observation to
// the player and picks up the action for the next tick.
type Runner struct {
	Player   *agent.Player
	Env      pong.Environment
	Side     int
	Opponent *pong.Tracker
	MaxY     float64
	// Duration is simulated seconds to run; 0 runs until ctx is done.
	Duration float64
	// Clock reports simulated time. Nil counts ticks of pong.SimStep.
	Clock func() float64
	// Tick paces the loop in wall time; 0 runs as fast as possible.
	Tick time.Duration

	OnSignal func(agent.Signal, pong.Stats)

	ticks int
}

func (r *Runner) Run(ctx context.Context) error {
	if r.Player == nil || r.Env == nil {
		return errors.New("runner needs a player and an environment")
	}
	if r.MaxY <= 0 {
		r.MaxY = pong.Height
	}

	var pace <-chan time.Time
	if r.Tick > 0 {
		ticker := time.NewTicker(r.Tick)
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		}

		t := r.now()
		if r.Duration > 0 && t >= r.Duration {
			return nil
		}
		if err := r.step(t); err != nil {
			return err
		}
		r.ticks++
	}
}

func (r *Runner) now() float64 {
	if r.Clock != nil {
		return r.Clock()
	}
	return float64(r.ticks) * pong.SimStep
}

func (r *Runner) step(t float64) error {
	if r.Opponent != nil {
		other := 1 - r.Side
		if s, ok := r.Env.GetState(other); ok {
			r.Env.Move(r.Opponent.Act(s), other)
		}
	}

	_, fresh := r.Env.GetState(r.Side)
	s, reward := r.Env.Move(moveFor(r.Player.Action()), r.Side)
	d, err := r.Player.Tick(t, s.Normalize(r.MaxY), fresh, reward)
	if err != nil {
		return err
	}
	if d.Boundary && r.OnSignal != nil {
		r.OnSignal(d.Signal, r.Env.Stats())
	}
	return nil
}

func moveFor(action int) int {
	if action < 0 || action >= len(agent.ActionMove) {
		return 0
	}
	return agent.ActionMove[action]
}
