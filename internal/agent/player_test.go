package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestReadoutLearn(t *testing.T) {
	r := NewReadout(3, 2, 0.1)
	vals, err := r.Values([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.1, 0.1}, vals)

	require.NoError(t, r.Learn([]float64{1, 0.5}, []float64{2, 0, 0}, 0.5))
	assert.Equal(t, []float64{1, 0.5}, mat.Row(nil, 0, r.W))
	assert.Equal(t, []float64{0, 0}, mat.Row(nil, 1, r.W))
	assert.InDelta(t, 1.1, r.Bias[0], 1e-12)

	vals, err = r.Values([]float64{1, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.6, 0.1, 0.1}, vals, 1e-12)

	_, err = r.Values([]float64{1})
	assert.ErrorIs(t, err, ErrShape)
	assert.ErrorIs(t, r.Learn([]float64{1, 1}, []float64{1}, 1), ErrShape)
}

func TestReadoutRows(t *testing.T) {
	r := NewReadout(2, 2, 0)
	require.NoError(t, r.Learn([]float64{1, 2}, []float64{1, -1}, 1))

	rows := r.Rows()
	assert.Equal(t, [][]float64{{1, 2, 1}, {-1, -2, -1}}, rows)

	other := NewReadout(2, 2, 0)
	require.NoError(t, other.SetRows(rows))
	assert.True(t, mat.Equal(r.W, other.W))
	assert.Equal(t, r.Bias, other.Bias)

	assert.ErrorIs(t, other.SetRows([][]float64{{1, 2}}), ErrShape)
	assert.ErrorIs(t, other.SetRows([][]float64{{1, 2}, {3, 4}}), ErrShape)
}

func testParams() Params {
	var p Params
	p.Defaults()
	p.Place.Dev = 0.3
	return p
}

type tick struct {
	state  []float64
	reward float64
}

func script(n int) []tick {
	rng := rand.New(rand.NewSource(99))
	out := make([]tick, n)
	for i := range out {
		out[i].state = []float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		if i%37 == 0 {
			out[i].reward = 1
		} else if i%53 == 0 {
			out[i].reward = -1
		}
	}
	return out
}

func run(t *testing.T, seed int64, ticks []tick) ([]int, [][]float64) {
	p, err := NewPlayer(testParams(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	actions := make([]int, 0, len(ticks))
	for i, tk := range ticks {
		d, err := p.Tick(float64(i)*0.001, tk.state, true, tk.reward)
		require.NoError(t, err)
		actions = append(actions, d.Action)
	}
	return actions, p.Readout.Rows()
}

func TestPlayerDeterministic(t *testing.T) {
	ticks := script(2000)
	a1, w1 := run(t, 5, ticks)
	a2, w2 := run(t, 5, ticks)
	assert.Equal(t, a1, a2)
	assert.Equal(t, w1, w2)
}

func TestPlayerLearnsOnlyOnBoundary(t *testing.T) {
	p, err := NewPlayer(testParams(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	state := []float64{0.2, -0.1}
	d, err := p.Tick(0, state, true, 0)
	require.NoError(t, err)
	require.True(t, d.Boundary)
	first := d.Action

	// Second boundary: prev features now exist, so the readout changes.
	for i := 1; i < 100; i++ {
		before := p.Readout.Rows()
		d, err := p.Tick(float64(i)*0.001, state, true, 1)
		require.NoError(t, err)
		assert.False(t, d.Boundary)
		assert.Equal(t, first, d.Action)
		assert.Equal(t, before, p.Readout.Rows())
	}
	before := p.Readout.Rows()
	d, err = p.Tick(0.1, state, true, 0)
	require.NoError(t, err)
	require.True(t, d.Boundary)
	assert.Greater(t, d.Signal.Error, 0.0)
	assert.NotEqual(t, before, p.Readout.Rows())
}

func TestPlayerHoldsWithoutState(t *testing.T) {
	p, err := NewPlayer(testParams(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	d, err := p.Tick(0, nil, false, 1)
	require.NoError(t, err)
	assert.False(t, d.Boundary)
	assert.Equal(t, 1, d.Action)

	d, err = p.Tick(0.001, []float64{0, 0}, true, 0)
	require.NoError(t, err)
	assert.False(t, d.Boundary)
	d, err = p.Tick(0.1, nil, false, 0)
	require.NoError(t, err)
	require.True(t, d.Boundary)
	assert.InDelta(t, 1.0, d.Signal.Reward, 1e-12)
}

func TestNewPlayerErrors(t *testing.T) {
	p := testParams()
	p.Actions = 0
	_, err := NewPlayer(p, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	p = testParams()
	p.Selector = "nope"
	_, err = NewPlayer(p, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	p = testParams()
	p.Place.Dev = -1
	_, err = NewPlayer(p, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestPlayerRestore(t *testing.T) {
	p, err := NewPlayer(testParams(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, err = p.Tick(0, []float64{0, 0}, true, 0)
	require.NoError(t, err)

	centers := [][]float64{{0, 0}, {0.5, 0.5}}
	rows := [][]float64{{1, 0, 0.1}, {0, 1, 0.2}, {0, 0, 0.3}}
	require.NoError(t, p.Restore(centers, rows))
	assert.Equal(t, 2, p.Cells.Len())
	assert.Equal(t, 0.3, p.Cells.Dev)
	assert.Equal(t, rows, p.Readout.Rows())

	vals, err := p.Readout.Values(p.Cells.Encode([]float64{0, 0}))
	require.NoError(t, err)
	assert.InDelta(t, 1.1, vals[0], 1e-12)

	// The next tick encodes with the restored cells.
	_, err = p.Tick(0.001, []float64{0, 0}, true, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Restore(nil, rows), ErrShape)
	assert.ErrorIs(t, p.Restore([][]float64{{0}}, [][]float64{{0, 1}, {0, 1}, {0, 1}}), ErrShape)
	assert.ErrorIs(t, p.Restore(centers, rows[:2]), ErrShape)
	assert.Equal(t, rows, p.Readout.Rows())
}

func TestTabularLearn(t *testing.T) {
	var tp TabularParams
	tp.Defaults()
	tb, err := NewTabular(tp, 12, 12, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	prev := Cell{Ball: 3, Paddle: 4}
	before := tb.Policy[4][3][2]

	_, ok := tb.Learn(prev, prev, 2, 0)
	assert.False(t, ok)

	e, ok := tb.Learn(prev, Cell{Ball: 3, Paddle: 3}, 2, 600)
	require.True(t, ok)
	assert.Equal(t, 600.0, e)
	assert.InDelta(t, 60, tb.Value(prev), 1e-12)
	assert.InDelta(t, before+60, tb.Policy[4][3][2], 1e-12)

	e, ok = tb.Learn(Cell{Ball: 3, Paddle: 3}, prev, 0, -10)
	require.True(t, ok)
	assert.InDelta(t, -10+0.9*60, e, 1e-12)

	// Out of range cells are clamped.
	assert.Equal(t, tb.Value(Cell{Ball: 11, Paddle: 11}), tb.Value(Cell{Ball: 40, Paddle: 99}))
	a, err := tb.Act(Cell{Ball: -3, Paddle: 100})
	require.NoError(t, err)
	assert.Less(t, a, 3)
}

func TestTabularSetTables(t *testing.T) {
	var tp TabularParams
	tp.Defaults()
	tb, err := NewTabular(tp, 2, 2, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	err = tb.SetTables([][][]float64{{{1, 2, 3}}}, [][]float64{{0}})
	assert.ErrorIs(t, err, ErrShape)

	policy := [][][]float64{{{1, 2, 3}, {1, 2, 3}}, {{1, 2, 3}, {1, 2, 3}}}
	values := [][]float64{{1, 2}, {3, 4}}
	require.NoError(t, tb.SetTables(policy, values))
	assert.Equal(t, 4.0, tb.Value(Cell{Ball: 1, Paddle: 1}))
}
