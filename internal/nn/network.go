// Package nn implements the small recurrent regressor used for next-step
// prediction: LSTM(units) -> Dense(hidden, relu) -> Dense(1, linear), trained
// with mean squared error and Adam.
package nn

import (
	"math/rand"

	"github.com/pkg/errors"
)

// ErrShape is returned when an input or a checkpoint does not fit the network
var ErrShape = errors.New("nn: shape mismatch")

// Shape describes the network topology
type Shape struct {
	Window     int `json:"window"`      // time steps per input
	Features   int `json:"features"`    // values per time step
	LSTMUnits  int `json:"lstm_units"`  // LSTM hidden size
	DenseUnits int `json:"dense_units"` // width of the relu layer
}

// DefaultShape is the LSTM(64) -> Dense(8) network over a univariate window
func DefaultShape(window int) Shape {
	return Shape{Window: window, Features: 1, LSTMUnits: 64, DenseUnits: 8}
}

// Validate reports whether every dimension is positive
func (s Shape) Validate() error {
	if s.Window <= 0 || s.Features <= 0 || s.LSTMUnits <= 0 || s.DenseUnits <= 0 {
		return errors.Errorf("nn: all dimensions must be positive, got %+v", s)
	}
	return nil
}

// Network is a sequential LSTM regressor. It is not safe for concurrent use.
type Network struct {
	shape     Shape
	lstm      *lstm
	hidden    *dense
	out       *dense
	Optimizer Adam
}

// NewNetwork creates a network with freshly initialized weights. The same
// seed always yields the same weights.
func NewNetwork(shape Shape, seed int64) (*Network, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	return &Network{
		shape:     shape,
		lstm:      newLSTM(shape.Features, shape.LSTMUnits, rng),
		hidden:    newDense("dense", shape.LSTMUnits, shape.DenseUnits, ReLU, rng),
		out:       newDense("dense_1", shape.DenseUnits, 1, Linear, rng),
		Optimizer: DefaultAdam(),
	}, nil
}

// Shape returns the topology the network was built with
func (n *Network) Shape() Shape {
	return n.shape
}

func (n *Network) params() []*param {
	ps := n.lstm.params()
	ps = append(ps, n.hidden.params()...)
	return append(ps, n.out.params()...)
}

// NumParams returns the number of trainable scalars
func (n *Network) NumParams() int {
	total := 0
	for _, p := range n.params() {
		total += p.size()
	}
	return total
}

func (n *Network) checkInput(x [][]float64) error {
	if len(x) != n.shape.Window {
		return errors.Wrapf(ErrShape, "input has %d time steps, network expects %d", len(x), n.shape.Window)
	}
	for t, step := range x {
		if len(step) != n.shape.Features {
			return errors.Wrapf(ErrShape, "time step %d has %d features, network expects %d", t, len(step), n.shape.Features)
		}
	}
	return nil
}

type trace struct {
	steps  []lstmStep
	hidden denseCache
	out    denseCache
}

func (n *Network) forward(x [][]float64) (float64, trace) {
	h, steps := n.lstm.forward(x)
	a, hc := n.hidden.forward(h)
	y, oc := n.out.forward(a)
	return y[0], trace{steps: steps, hidden: hc, out: oc}
}

func (n *Network) backward(tr trace, dy float64) {
	da := n.out.backward(tr.out, []float64{dy})
	dh := n.hidden.backward(tr.hidden, da)
	n.lstm.backward(tr.steps, dh)
}

// Predict returns the network output for a single window
func (n *Network) Predict(x [][]float64) (float64, error) {
	if err := n.checkInput(x); err != nil {
		return 0, err
	}
	y, _ := n.forward(x)
	return y, nil
}

// PredictBatch runs Predict over every window
func (n *Network) PredictBatch(xs [][][]float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		y, err := n.Predict(x)
		if err != nil {
			return nil, errors.Wrapf(err, "window %d", i)
		}
		out[i] = y
	}
	return out, nil
}

// accumulate zeroes the gradients, then runs forward and backward over the
// batch and returns its mean squared error. Gradients are left in the params.
func (n *Network) accumulate(xs [][][]float64, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, errors.Errorf("nn: %d inputs but %d targets", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return 0, errors.New("nn: empty batch")
	}
	for i, x := range xs {
		if err := n.checkInput(x); err != nil {
			return 0, errors.Wrapf(err, "window %d", i)
		}
	}

	for _, p := range n.params() {
		p.zeroGrad()
	}

	var loss float64
	for i, x := range xs {
		y, tr := n.forward(x)
		d := y - ys[i]
		loss += d * d
		n.backward(tr, mseDeriv(y, ys[i], len(xs)))
	}

	return loss / float64(len(xs)), nil
}

// TrainBatch performs one optimizer step on the batch and returns the batch
// loss measured before the update.
func (n *Network) TrainBatch(xs [][][]float64, ys []float64) (float64, error) {
	loss, err := n.accumulate(xs, ys)
	if err != nil {
		return 0, err
	}
	n.Optimizer.update(n.params())
	return loss, nil
}

// Evaluate returns MSE and RMSE of the network over the examples
func (n *Network) Evaluate(xs [][][]float64, ys []float64) (mse, rmse float64, err error) {
	if len(xs) != len(ys) {
		return 0, 0, errors.Errorf("nn: %d inputs but %d targets", len(xs), len(ys))
	}
	preds, err := n.PredictBatch(xs)
	if err != nil {
		return 0, 0, err
	}
	mse = MSE(preds, ys)
	return mse, RMSE(preds, ys), nil
}
