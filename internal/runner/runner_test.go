package runner

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pong-actor-critic/internal/agent"
	"pong-actor-critic/internal/encoder"
	"pong-actor-critic/internal/pong"
)

func newPlayer(t *testing.T, seed int64) *agent.Player {
	var p agent.Params
	p.Defaults()
	p.Place.Dev = 0.3
	pl, err := agent.NewPlayer(p, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return pl
}

func newLocal(t *testing.T, seed int64) *pong.Local {
	var cfg pong.AdapterConfig
	cfg.Defaults()
	a, err := pong.NewAdapter(pong.NewGame(rand.New(rand.NewSource(seed))), cfg)
	require.NoError(t, err)
	return &pong.Local{Adapter: a, Driver: 1, Frames: 1}
}

func runSync(t *testing.T, seed int64, duration float64) ([]agent.Signal, *agent.Player) {
	var signals []agent.Signal
	r := &Runner{
		Player:   newPlayer(t, seed),
		Env:      newLocal(t, seed),
		Side:     1,
		Opponent: &pong.Tracker{Deadband: 2},
		Duration: duration,
		OnSignal: func(s agent.Signal, _ pong.Stats) { signals = append(signals, s) },
	}
	require.NoError(t, r.Run(context.Background()))
	return signals, r.Player
}

func TestRunnerSignalsOncePerPeriod(t *testing.T) {
	signals, _ := runSync(t, 1, 1.0)
	require.Len(t, signals, 10)
	for i, s := range signals {
		assert.InDelta(t, float64(i)*0.1, s.Time, 1e-9)
	}
}

func TestRunnerDeterministic(t *testing.T) {
	a, pa := runSync(t, 3, 5)
	b, pb := runSync(t, 3, 5)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Action, b[i].Action)
		assert.Equal(t, a[i].Error, b[i].Error)
	}
	assert.Equal(t, pa.Readout.Rows(), pb.Readout.Rows())
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Player: newPlayer(t, 1), Env: newLocal(t, 1), Side: 1}
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)

	assert.Error(t, (&Runner{}).Run(context.Background()))
}

func TestRunnerGameFasterThanLoop(t *testing.T) {
	env := newLocal(t, 4)
	env.Frames = 3
	p := newPlayer(t, 4)
	initial := p.Readout.Rows()

	var signals []agent.Signal
	var last pong.Stats
	r := &Runner{
		Player:   p,
		Env:      env,
		Side:     1,
		Opponent: &pong.Tracker{Deadband: 2},
		Duration: 1.0,
		Clock:    env.Time,
		OnSignal: func(s agent.Signal, stats pong.Stats) {
			signals = append(signals, s)
			last = stats
		},
	}
	require.NoError(t, r.Run(context.Background()))

	// Ticks 3ms apart step over most boundary windows; every period still
	// gets exactly one update, at its first tick.
	require.Len(t, signals, 10)
	rewarded := false
	for i, s := range signals {
		start := float64(i) * 0.1
		assert.GreaterOrEqual(t, s.Time, start-1e-9, "period %d", i)
		assert.Less(t, s.Time, start+0.003, "period %d", i)
		if s.Reward != 0 {
			rewarded = true
		}
	}
	assert.True(t, rewarded)
	assert.Greater(t, last.Hits[1]+last.Misses[1], 0)
	assert.NotEqual(t, initial, p.Readout.Rows())
}

func TestRunnerAsync(t *testing.T) {
	var cfg pong.AdapterConfig
	cfg.Defaults()
	a, err := pong.NewAdapter(pong.NewGame(rand.New(rand.NewSource(1))), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = a.Run(ctx, time.Millisecond) }()

	var seen []float64
	signals := 0
	r := &Runner{
		Player:   newPlayer(t, 1),
		Env:      a,
		Side:     0,
		Opponent: &pong.Tracker{},
		Duration: 0.35,
		Clock: func() float64 {
			tm := a.Time()
			seen = append(seen, tm)
			return tm
		},
		// The game produces frames faster than the loop ticks.
		Tick:     3 * time.Millisecond,
		OnSignal: func(agent.Signal, pong.Stats) { signals++ },
	}
	require.NoError(t, r.Run(ctx))
	assert.GreaterOrEqual(t, a.Time(), 0.35)

	// The last clock reading ended the run without a tick.
	ticked := seen[:len(seen)-1]
	require.NotEmpty(t, ticked)
	var td agent.TDParams
	td.Defaults()
	want := 0
	prev, ok := agent.OnBoundary(ticked[0], td.Period, td.Tolerance)
	if ok {
		want++
	}
	for _, tm := range ticked[1:] {
		if n, _ := agent.OnBoundary(tm, td.Period, td.Tolerance); n > prev {
			want++
			prev = n
		}
	}
	assert.Equal(t, want, signals)
	assert.GreaterOrEqual(t, signals, 3)
}

// silentEnv never produces an observation.
type silentEnv struct{ moves int }

func (e *silentEnv) GetState(int) (pong.State, bool)     { return pong.State{}, false }
func (e *silentEnv) Move(int, int) (pong.State, float64) { e.moves++; return pong.State{}, 0 }
func (e *silentEnv) Stats() pong.Stats                   { return pong.Stats{} }

func TestRunnerHoldsActionWithoutState(t *testing.T) {
	env := &silentEnv{}
	p := newPlayer(t, 1)
	r := &Runner{Player: p, Env: env, Duration: 0.5}
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 500, env.moves)
	assert.Equal(t, 1, p.Action())
}

func TestTabularRunnerGrid(t *testing.T) {
	var tp agent.TabularParams
	tp.Defaults()
	tb, err := agent.NewTabular(tp, 12, 12, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	env := pong.NewGrid(12, 12, rand.New(rand.NewSource(2)))
	updates := 0
	r := &TabularRunner{
		Learner: tb,
		Env:     env,
		Cell:    GridCell,
		Moves:   3000,
		OnLearn: func(int, float64, pong.Stats) { updates++ },
	}
	require.NoError(t, r.Run(context.Background()))
	assert.Greater(t, updates, 0)
	assert.Greater(t, env.Stats().Hits[0], 0)
	assert.Equal(t, 3000, env.Stats().Hits[0]+env.Stats().Misses[0])
}

func TestTabularRunnerGame(t *testing.T) {
	var tp agent.TabularParams
	tp.Defaults()
	tb, err := agent.NewTabular(tp, 12, 12, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	env := newLocal(t, 2)
	env.Frames = 50
	r := &TabularRunner{
		Learner:  tb,
		Env:      env,
		Side:     1,
		Opponent: &pong.Tracker{Deadband: 2},
		Cell:     BinnedCell(encoder.NewGrid(12, 12), pong.Height),
		Moves:    200,
	}
	require.NoError(t, r.Run(context.Background()))
	assert.InDelta(t, 200*50*pong.SimStep, env.Time(), 1e-6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestCoverage(t *testing.T) {
	c := NewCoverage(encoder.NewGrid(4, 4))
	assert.Equal(t, 0.0, c.Fraction())
	c.Observe([]float64{-1, -1})
	c.Observe([]float64{-0.9, -0.9})
	c.Observe([]float64{1, 1})
	c.Observe([]float64{5, 5})
	assert.Equal(t, 2, c.Visited())
	assert.Equal(t, 2.0/16, c.Fraction())
}
