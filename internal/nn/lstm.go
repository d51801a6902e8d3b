package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// lstm is a single LSTM layer returning its final hidden state. Gates are
// stacked in the order input, forget, cell candidate, output, so rows
// [0,H) of every parameter belong to the input gate, [H,2H) to the forget
// gate and so on.
type lstm struct {
	in, units int

	wx *param // 4H x in
	wh *param // 4H x H
	b  *param // 4H x 1
}

func newLSTM(in, units int, rng *rand.Rand) *lstm {
	l := &lstm{
		in:    in,
		units: units,
		wx:    newParam("lstm/kernel", 4*units, in),
		wh:    newParam("lstm/recurrent_kernel", 4*units, units),
		b:     newParam("lstm/bias", 4*units, 1),
	}

	glorotUniform(l.wx, in, 4*units, rng)
	orthogonal(l.wh, rng)

	// forget gate starts open
	for i := units; i < 2*units; i++ {
		l.b.w[i] = 1
	}

	return l
}

func (l *lstm) params() []*param {
	return []*param{l.wx, l.wh, l.b}
}

// lstmStep keeps what the backward pass needs from one time step
type lstmStep struct {
	x           []float64
	hPrev       []float64
	cPrev       []float64
	i, f, g, o  []float64
	c, tanhC, h []float64
}

// forward runs the layer over a sequence of feature vectors and returns the
// last hidden state plus the per-step cache.
func (l *lstm) forward(xs [][]float64) ([]float64, []lstmStep) {
	H := l.units
	wx, wh, b := l.wx.dense(), l.wh.dense(), l.b.vec()

	h := make([]float64, H)
	c := make([]float64, H)
	steps := make([]lstmStep, len(xs))

	z := mat.NewVecDense(4*H, nil)
	rec := mat.NewVecDense(4*H, nil)

	for t, x := range xs {
		z.MulVec(wx, mat.NewVecDense(l.in, x))
		rec.MulVec(wh, mat.NewVecDense(H, h))
		z.AddVec(z, rec)
		z.AddVec(z, b)

		s := lstmStep{
			x:     x,
			hPrev: h,
			cPrev: c,
			i:     make([]float64, H),
			f:     make([]float64, H),
			g:     make([]float64, H),
			o:     make([]float64, H),
			c:     make([]float64, H),
			tanhC: make([]float64, H),
			h:     make([]float64, H),
		}

		for k := 0; k < H; k++ {
			s.i[k] = sigmoid(z.AtVec(k))
			s.f[k] = sigmoid(z.AtVec(H + k))
			s.g[k] = math.Tanh(z.AtVec(2*H + k))
			s.o[k] = sigmoid(z.AtVec(3*H + k))

			s.c[k] = s.f[k]*c[k] + s.i[k]*s.g[k]
			s.tanhC[k] = math.Tanh(s.c[k])
			s.h[k] = s.o[k] * s.tanhC[k]
		}

		steps[t] = s
		h, c = s.h, s.c
	}

	return h, steps
}

// backward propagates dh (the gradient w.r.t. the final hidden state) through
// time and accumulates parameter gradients.
func (l *lstm) backward(steps []lstmStep, dhLast []float64) {
	H := l.units
	wh := l.wh.dense()
	gwx, gwh, gb := l.wx.gradDense(), l.wh.gradDense(), l.b.gradVec()

	dh := mat.NewVecDense(H, append([]float64(nil), dhLast...))
	dc := make([]float64, H)
	dz := mat.NewVecDense(4*H, nil)

	for t := len(steps) - 1; t >= 0; t-- {
		s := steps[t]

		for k := 0; k < H; k++ {
			dhk := dh.AtVec(k)
			do := dhk * s.tanhC[k]
			dc[k] += dhk * s.o[k] * (1 - s.tanhC[k]*s.tanhC[k])

			di := dc[k] * s.g[k]
			dg := dc[k] * s.i[k]
			df := dc[k] * s.cPrev[k]

			dz.SetVec(k, di*s.i[k]*(1-s.i[k]))
			dz.SetVec(H+k, df*s.f[k]*(1-s.f[k]))
			dz.SetVec(2*H+k, dg*(1-s.g[k]*s.g[k]))
			dz.SetVec(3*H+k, do*s.o[k]*(1-s.o[k]))

			// carry to the previous step
			dc[k] *= s.f[k]
		}

		gwx.RankOne(gwx, 1, dz, mat.NewVecDense(l.in, s.x))
		gwh.RankOne(gwh, 1, dz, mat.NewVecDense(H, s.hPrev))
		gb.AddVec(gb, dz)

		next := mat.NewVecDense(H, nil)
		next.MulVec(wh.T(), dz)
		dh = next
	}
}
