package pong

import (
	"context"
	"errors"
	"sync"
	"time"

	"pong-actor-critic/internal/buffer"
)

// State is one player's observation in pixels.
type State struct {
	Ball   float64 `json:"ball"`
	Paddle float64 `json:"paddle"`
}

// Normalize maps pixel heights onto [-1, 1].
func (s State) Normalize(maxY float64) []float64 {
	return []float64{2*s.Ball/maxY - 1, 2*s.Paddle/maxY - 1}
}

// Environment is the view a learning player has of a running game.
// None of the methods block.
type Environment interface {
	// GetState returns the latest observation for player, false if the
	// game has not produced one yet.
	GetState(player int) (State, bool)
	// Move queues a paddle direction for player and returns the latest
	// observation with the reward accrued since the previous call.
	Move(action, player int) (State, float64)
	Stats() Stats
}

// Snapshot is the game state published after every frame.
type Snapshot struct {
	Frame int
	Time  float64
	Ball  float64
	Pads  [2]float64
	Stats Stats
}

func (s Snapshot) state(player int) State {
	return State{Ball: s.Ball, Paddle: s.Pads[player]}
}

// AdapterConfig sizes the queues between game and players.
type AdapterConfig struct {
	RewardCapacity int    `toml:"reward_capacity"`
	RewardPolicy   string `toml:"reward_policy"`
}

func (ac *AdapterConfig) Defaults() {
	ac.RewardCapacity = 8
	ac.RewardPolicy = buffer.PolicyDrop
}

// Adapter couples a Game to its players through bounded rings: a single
// overwrite slot for the latest snapshot, one action slot per player and
// one reward queue per player. Step is the only method touching the Game,
// so the game can run on its own goroutine.
type Adapter struct {
	game     *Game
	snapshot *buffer.Ring[Snapshot]
	actions  [2]*buffer.Ring[int]
	rewards  [2]*buffer.Ring[float64]

	mu sync.Mutex // serializes Step
}

func NewAdapter(game *Game, cfg AdapterConfig) (*Adapter, error) {
	snap, err := buffer.NewRing[Snapshot](1, buffer.PolicyOverwrite)
	if err != nil {
		return nil, err
	}
	a := &Adapter{game: game, snapshot: snap}
	for i := range a.actions {
		if a.actions[i], err = buffer.NewRing[int](1, buffer.PolicyOverwrite); err != nil {
			return nil, err
		}
		if a.rewards[i], err = buffer.NewRing[float64](cfg.RewardCapacity, cfg.RewardPolicy); err != nil {
			return nil, err
		}
	}
	a.publish()
	return a, nil
}

func (a *Adapter) GetState(player int) (State, bool) {
	if player < 0 || player > 1 {
		return State{}, false
	}
	snap, ok := a.snapshot.Latest()
	if !ok {
		return State{}, false
	}
	return snap.state(player), true
}

func (a *Adapter) Move(action, player int) (State, float64) {
	if player < 0 || player > 1 {
		return State{}, 0
	}
	_ = a.actions[player].Push(clampDir(action))
	reward := a.Rewards(player)
	snap, _ := a.snapshot.Latest()
	return snap.state(player), reward
}

// Rewards drains and sums the rewards queued for player.
func (a *Adapter) Rewards(player int) float64 {
	if player < 0 || player > 1 {
		return 0
	}
	var reward float64
	for _, r := range a.rewards[player].Drain() {
		reward += r
	}
	return reward
}

func (a *Adapter) Stats() Stats {
	snap, _ := a.snapshot.Latest()
	return snap.Stats
}

// Time is the simulated time of the latest snapshot.
func (a *Adapter) Time() float64 {
	snap, _ := a.snapshot.Latest()
	return snap.Time
}

// DroppedRewards counts rewards lost because a player's queue was full.
func (a *Adapter) DroppedRewards(player int) int {
	if player < 0 || player > 1 {
		return 0
	}
	return a.rewards[player].Dropped()
}

// RewardQueue reports the backlog, capacity and overflow policy of the
// reward queue of player.
func (a *Adapter) RewardQueue(player int) (size, capacity int, policy string) {
	if player < 0 || player > 1 {
		return 0, 0, ""
	}
	ring := a.rewards[player]
	return ring.Size(), ring.Capacity(), ring.Policy()
}

// SetRewardPolicy switches the overflow policy of both reward queues.
func (a *Adapter) SetRewardPolicy(policy string) error {
	for _, ring := range a.rewards {
		if err := ring.SetPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

// Step applies the latest queued actions, advances the game one frame and
// publishes the result.
func (a *Adapter) Step() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, ring := range a.actions {
		if dir, err := ring.Pop(); err == nil {
			a.game.SetMove(i, dir)
		}
	}
	rewards := a.game.Step()
	for i, r := range rewards {
		if r != 0 {
			_ = a.rewards[i].Push(r)
		}
	}
	a.publish()
}

func (a *Adapter) publish() {
	g := a.game
	_ = a.snapshot.Push(Snapshot{
		Frame: g.Frames,
		Time:  g.Time,
		Ball:  g.Ball.Y,
		Pads:  [2]float64{g.Paddles[0].Y, g.Paddles[1].Y},
		Stats: g.Stats,
	})
}

// Run steps the game every interval until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("frame interval must be > 0")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.Step()
		}
	}
}

// Local drives an Adapter synchronously: a Move by the Driver player
// advances the game Frames frames before returning, so the returned state
// and reward belong to exactly that action. A Move by the other player
// sets the direction it holds over those frames.
type Local struct {
	*Adapter
	Driver int
	Frames int

	dirs [2]int
}

func (l *Local) Move(action, player int) (State, float64) {
	if player < 0 || player > 1 {
		return State{}, 0
	}
	l.dirs[player] = clampDir(action)
	if player != l.Driver {
		s, _ := l.GetState(player)
		return s, l.Rewards(player)
	}
	frames := l.Frames
	if frames <= 0 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		for p, dir := range l.dirs {
			_ = l.actions[p].Push(dir)
		}
		l.Step()
	}
	s, _ := l.GetState(player)
	return s, l.Rewards(player)
}
