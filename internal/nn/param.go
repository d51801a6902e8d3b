package nn

import (
	"gonum.org/v1/gonum/mat"
)

// param is a trainable tensor together with its gradient and optimizer
// state. The gonum views returned by dense and vec share the backing slices,
// so writes through them land in w and g directly.
type param struct {
	name       string
	rows, cols int

	w []float64 // values
	g []float64 // accumulated gradient

	// Adam moments
	m []float64
	v []float64
}

func newParam(name string, rows, cols int) *param {
	n := rows * cols
	return &param{
		name: name,
		rows: rows,
		cols: cols,
		w:    make([]float64, n),
		g:    make([]float64, n),
		m:    make([]float64, n),
		v:    make([]float64, n),
	}
}

func (p *param) size() int {
	return len(p.w)
}

func (p *param) dense() *mat.Dense {
	return mat.NewDense(p.rows, p.cols, p.w)
}

func (p *param) gradDense() *mat.Dense {
	return mat.NewDense(p.rows, p.cols, p.g)
}

func (p *param) vec() *mat.VecDense {
	return mat.NewVecDense(p.size(), p.w)
}

func (p *param) gradVec() *mat.VecDense {
	return mat.NewVecDense(p.size(), p.g)
}

func (p *param) zeroGrad() {
	for i := range p.g {
		p.g[i] = 0
	}
}
