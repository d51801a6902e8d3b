package nn

import "math"

// MSE is the mean squared error between predictions and targets. Empty input
// gives 0.
func MSE(predicted, actual []float64) float64 {
	if len(predicted) == 0 {
		return 0
	}

	var sum float64
	for i := range predicted {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return sum / float64(len(predicted))
}

// RMSE is the root of MSE
func RMSE(predicted, actual []float64) float64 {
	return math.Sqrt(MSE(predicted, actual))
}

// mseDeriv is d MSE / d predicted for one sample of a batch of size n
func mseDeriv(predicted, actual float64, n int) float64 {
	return 2 * (predicted - actual) / float64(n)
}
