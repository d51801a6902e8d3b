package nn

import "math"

// Adam holds the hyperparameters of the Adam optimizer
type Adam struct {
	LearningRate float64 `json:"learning_rate"`
	Beta1        float64 `json:"beta1"`
	Beta2        float64 `json:"beta2"`
	Epsilon      float64 `json:"epsilon"`

	step int
}

// DefaultAdam returns the usual defaults: lr 0.001, betas 0.9/0.999, eps 1e-7
func DefaultAdam() Adam {
	return Adam{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// Step returns how many updates have been applied
func (a *Adam) Step() int {
	return a.step
}

// update applies one bias-corrected Adam step to every parameter using the
// gradients currently accumulated in them
func (a *Adam) update(params []*param) {
	a.step++
	t := float64(a.step)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for _, p := range params {
		for i, g := range p.g {
			p.m[i] = a.Beta1*p.m[i] + (1-a.Beta1)*g
			p.v[i] = a.Beta2*p.v[i] + (1-a.Beta2)*g*g
			p.w[i] -= lr * p.m[i] / (math.Sqrt(p.v[i]) + a.Epsilon)
		}
	}
}
