package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// glorotUniform fills p with U(-l, l), l = sqrt(6 / (fanIn + fanOut))
func glorotUniform(p *param, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range p.w {
		p.w[i] = (rng.Float64()*2 - 1) * limit
	}
}

// orthogonal fills p (rows >= cols) with a matrix whose columns are
// orthonormal, taken from the QR decomposition of a gaussian matrix.
func orthogonal(p *param, rng *rand.Rand) {
	a := mat.NewDense(p.rows, p.cols, nil)
	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			a.Set(r, c, rng.NormFloat64())
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var q, rm mat.Dense
	qr.QTo(&q)
	qr.RTo(&rm)

	for c := 0; c < p.cols; c++ {
		// sign fix makes the result uniformly distributed
		sign := 1.0
		if rm.At(c, c) < 0 {
			sign = -1
		}
		for r := 0; r < p.rows; r++ {
			p.w[r*p.cols+c] = sign * q.At(r, c)
		}
	}
}
