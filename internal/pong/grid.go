package pong

import "math/rand"

const (
	gridAlignReward = 600.0
	gridStepReward  = -10.0
	gridBeamDelay   = 2
)

// Grid is a discrete training world: the ball sits in one of BallBins
// rows and the paddle in one of PaddleBins. Lining the paddle up with the
// ball pays off, and a couple of moves later the ball jumps somewhere
// random.
type Grid struct {
	BallBins   int
	PaddleBins int
	Rand       *rand.Rand

	ball, paddle int
	beamNext     bool
	beamTimer    int
	stats        Stats
}

func NewGrid(ballBins, paddleBins int, rng *rand.Rand) *Grid {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Grid{
		BallBins:   ballBins,
		PaddleBins: paddleBins,
		Rand:       rng,
		ball:       1,
		beamTimer:  gridBeamDelay,
	}
}

// GetState returns bin indices as a State; player is ignored.
func (g *Grid) GetState(int) (State, bool) {
	return State{Ball: float64(g.ball), Paddle: float64(g.paddle)}, true
}

// Move shifts the paddle one bin in the direction of action and returns
// the resulting state and reward.
func (g *Grid) Move(action, player int) (State, float64) {
	g.paddle += clampDir(action)

	if g.beamNext {
		if g.beamTimer <= 0 {
			g.ball = g.Rand.Intn(g.BallBins)
			g.paddle = g.Rand.Intn(g.PaddleBins)
			g.beamNext = false
			g.beamTimer = gridBeamDelay
		} else {
			g.beamTimer--
		}
	}

	if g.paddle < 0 {
		g.paddle = 0
	}
	if g.paddle > g.PaddleBins-1 {
		g.paddle = g.PaddleBins - 1
	}

	reward := gridStepReward
	if g.ball == g.paddle {
		reward = gridAlignReward
		g.beamNext = true
		g.stats.Hits[0]++
	} else {
		g.stats.Misses[0]++
	}
	s, _ := g.GetState(player)
	return s, reward
}

func (g *Grid) Stats() Stats {
	return g.stats
}
