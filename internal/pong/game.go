package pong

import (
	"math"
	"math/rand"
)

const (
	Width  = 640.0
	Height = 480.0

	paddleOffset        = 32.0
	paddleWidth         = 8.0
	paddleHeight        = 80.0
	computerPaddleSpeed = 2.0
	paddleVerticalForce = 1.0/12 + 0.01

	ballSize         = 32.0
	ballStartSpeed   = 2.0
	ballAcceleration = 0.0
	ballMaxSpeed     = 15.0
	wallDamping      = 0.25
	serveOffset      = 200.0

	// SimStep is the simulated time covered by one frame.
	SimStep = 0.001

	hitReward  = 1.0
	missReward = -1.0
)

// Body is an axis aligned box centred on (X, Y).
type Body struct {
	X, Y   float64
	VX, VY float64
	W, H   float64
}

func (b *Body) left() float64   { return b.X - b.W/2 }
func (b *Body) right() float64  { return b.X + b.W/2 }
func (b *Body) top() float64    { return b.Y - b.H/2 }
func (b *Body) bottom() float64 { return b.Y + b.H/2 }

func (b *Body) overlaps(o *Body) bool {
	return b.left() < o.right() && b.right() > o.left() &&
		b.top() < o.bottom() && b.bottom() > o.top()
}

// Stats counts paddle contacts and misses per player.
type Stats struct {
	Hits   [2]int `json:"hits"`
	Misses [2]int `json:"misses"`
}

// Game is the Pong field: one ball and two computer paddles. Player 0
// defends the left edge, player 1 the right.
type Game struct {
	Ball    Body
	Paddles [2]Body
	Moves   [2]int
	Stats   Stats
	Time    float64
	Frames  int
	Rand    *rand.Rand
}

func NewGame(rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	g := &Game{Rand: rng}
	for i := range g.Paddles {
		x := paddleOffset
		if i == 1 {
			x = Width - paddleOffset
		}
		g.Paddles[i] = Body{X: x, Y: Height / 2, W: paddleWidth, H: paddleHeight}
	}
	g.Ball = Body{W: ballSize, H: ballSize}
	g.serve(1)
	return g
}

// SetMove sets the direction (-1, 0, +1) a paddle travels on the next
// frame.
func (g *Game) SetMove(player, dir int) {
	if player < 0 || player > 1 {
		return
	}
	g.Moves[player] = clampDir(dir)
}

// Step advances the game by one frame and returns the reward each player
// earned during it.
func (g *Game) Step() [2]float64 {
	var rewards [2]float64

	for i := range g.Paddles {
		p := &g.Paddles[i]
		p.VY = float64(g.Moves[i]) * computerPaddleSpeed
		p.Y += p.VY
		if p.top() < 0 {
			p.Y = p.H / 2
		} else if p.bottom() > Height {
			p.Y = Height - p.H/2
		}
	}

	b := &g.Ball
	b.X += b.VX
	b.Y += b.VY

	loser := -1
	if b.right() < 0 {
		loser = 0
	} else if b.left() > Width {
		loser = 1
	}
	if loser >= 0 {
		g.Stats.Misses[loser]++
		rewards[loser] += missReward
		if loser == 0 {
			g.serve(1)
		} else {
			g.serve(-1)
		}
	}

	if b.bottom() > Height {
		b.Y = Height - b.H/2
		b.VY = -math.Abs(b.VY) * wallDamping
	} else if b.top() < 0 {
		b.Y = b.H / 2
		b.VY = math.Abs(b.VY) * wallDamping
	}

	for i := range g.Paddles {
		p := &g.Paddles[i]
		if !b.overlaps(p) {
			continue
		}
		if i == 0 {
			b.X = p.right() + 1 + b.W/2
			b.VX = math.Min(math.Abs(b.VX)+ballAcceleration, ballMaxSpeed)
		} else {
			b.X = p.left() - 1 - b.W/2
			b.VX = math.Max(-math.Abs(b.VX)-ballAcceleration, -ballMaxSpeed)
		}
		b.VY += (b.Y - p.Y) * paddleVerticalForce
		g.Stats.Hits[i]++
		rewards[i] += hitReward
	}

	g.Moves = [2]int{}
	g.Time += SimStep
	g.Frames++
	return rewards
}

// State is what player sees: the ball height and its own paddle height.
func (g *Game) State(player int) State {
	if player < 0 || player > 1 {
		player = 0
	}
	return State{Ball: g.Ball.Y, Paddle: g.Paddles[player].Y}
}

// serve restarts the ball 200px off centre on the side away from the
// direction it will travel, at a random height.
func (g *Game) serve(direction float64) {
	g.Ball.X = Width/2 - serveOffset*direction
	g.Ball.Y = float64(g.Rand.Intn(int(Height) + 1))
	g.Ball.VX = ballStartSpeed * direction
	g.Ball.VY = 0
}

func clampDir(dir int) int {
	switch {
	case dir < 0:
		return -1
	case dir > 0:
		return 1
	}
	return 0
}
