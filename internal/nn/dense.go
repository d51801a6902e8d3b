package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// dense is a fully connected layer: a = act(W x + b)
type dense struct {
	in, out    int
	activation string

	w *param // out x in
	b *param // out x 1
}

func newDense(name string, in, out int, activation string, rng *rand.Rand) *dense {
	d := &dense{
		in:         in,
		out:        out,
		activation: activation,
		w:          newParam(name+"/kernel", out, in),
		b:          newParam(name+"/bias", out, 1),
	}
	glorotUniform(d.w, in, out, rng)
	return d
}

func (d *dense) params() []*param {
	return []*param{d.w, d.b}
}

type denseCache struct {
	x, z, a []float64
}

func (d *dense) forward(x []float64) ([]float64, denseCache) {
	z := mat.NewVecDense(d.out, nil)
	z.MulVec(d.w.dense(), mat.NewVecDense(d.in, x))
	z.AddVec(z, d.b.vec())

	zs := z.RawVector().Data
	a := make([]float64, d.out)
	activate(d.activation, zs, a)

	return a, denseCache{x: x, z: zs, a: a}
}

// backward accumulates parameter gradients and returns the gradient w.r.t.
// the layer input
func (d *dense) backward(c denseCache, da []float64) []float64 {
	dz := mat.NewVecDense(d.out, nil)
	for k := range da {
		dz.SetVec(k, da[k]*activationDeriv(d.activation, c.z[k], c.a[k]))
	}

	gw, gb := d.w.gradDense(), d.b.gradVec()
	gw.RankOne(gw, 1, dz, mat.NewVecDense(d.in, c.x))
	gb.AddVec(gb, dz)

	dx := mat.NewVecDense(d.in, nil)
	dx.MulVec(d.w.dense().T(), dz)
	return dx.RawVector().Data
}
