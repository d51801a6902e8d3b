package nn

import "math"

// Activation names accepted by Dense layers
const (
	Linear = "linear"
	ReLU   = "relu"
	Tanh   = "tanh"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// activate applies the named activation elementwise into out
func activate(name string, z, out []float64) {
	for i, v := range z {
		switch name {
		case ReLU:
			out[i] = math.Max(0, v)
		case Tanh:
			out[i] = math.Tanh(v)
		default:
			out[i] = v
		}
	}
}

// activationDeriv returns d act / d z, given the pre-activation z and the
// activation output a
func activationDeriv(name string, z, a float64) float64 {
	switch name {
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case Tanh:
		return 1 - a*a
	default:
		return 1
	}
}

