package agent

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("readout shape mismatch")

// Readout is a per-action linear map from features to values. It serves
// as both the critic (value estimates) and the actor (action scores).
type Readout struct {
	W    *mat.Dense // actions x features
	Bias []float64
}

// NewReadout returns a readout whose every output starts at initValue.
func NewReadout(actions, features int, initValue float64) *Readout {
	bias := make([]float64, actions)
	for i := range bias {
		bias[i] = initValue
	}
	return &Readout{
		W:    mat.NewDense(actions, features, nil),
		Bias: bias,
	}
}

func (r *Readout) Actions() int {
	rows, _ := r.W.Dims()
	return rows
}

func (r *Readout) Features() int {
	_, cols := r.W.Dims()
	return cols
}

// Values returns W*features + bias.
func (r *Readout) Values(features []float64) ([]float64, error) {
	if len(features) != r.Features() {
		return nil, ErrShape
	}
	out := mat.NewVecDense(r.Actions(), nil)
	out.MulVec(r.W, mat.NewVecDense(len(features), features))
	vals := make([]float64, r.Actions())
	for i := range vals {
		vals[i] = out.AtVec(i) + r.Bias[i]
	}
	return vals, nil
}

// Learn applies the delta rule W[a] += lrate * signal[a] * features.
func (r *Readout) Learn(features, signal []float64, lrate float64) error {
	if len(features) != r.Features() || len(signal) != r.Actions() {
		return ErrShape
	}
	var dw mat.Dense
	dw.Outer(lrate, mat.NewVecDense(len(signal), signal), mat.NewVecDense(len(features), features))
	r.W.Add(r.W, &dw)
	for i, s := range signal {
		r.Bias[i] += lrate * s
	}
	return nil
}

// Rows returns a copy of each action's weights with its bias appended.
func (r *Readout) Rows() [][]float64 {
	rows := make([][]float64, r.Actions())
	for i := range rows {
		row := make([]float64, 0, r.Features()+1)
		row = append(row, mat.Row(nil, i, r.W)...)
		rows[i] = append(row, r.Bias[i])
	}
	return rows
}

// SetRows is the inverse of Rows.
func (r *Readout) SetRows(rows [][]float64) error {
	if len(rows) != r.Actions() {
		return ErrShape
	}
	for _, row := range rows {
		if len(row) != r.Features()+1 {
			return ErrShape
		}
	}
	for i, row := range rows {
		r.W.SetRow(i, row[:len(row)-1])
		r.Bias[i] = row[len(row)-1]
	}
	return nil
}
