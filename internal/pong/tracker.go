package pong

// Tracker is a scripted opponent that steers its paddle toward the ball.
type Tracker struct {
	// Deadband is how close, in pixels, counts as lined up.
	Deadband float64
}

// Act returns the paddle direction for s.
func (t Tracker) Act(s State) int {
	switch d := s.Ball - s.Paddle; {
	case d < -t.Deadband:
		return -1
	case d > t.Deadband:
		return 1
	}
	return 0
}
