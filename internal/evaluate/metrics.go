package evaluate

import (
	"math"

	"github.com/Alias1177/bikecast/internal/model"
)

// CalculateMetrics fills the error metrics from the detailed predictions
func CalculateMetrics(results *model.EvaluationResults) {
	if results == nil {
		return
	}

	results.Count = len(results.Predictions)
	if results.Count == 0 {
		return
	}

	var sumSq, sumAbs, sum, maxAbs float64
	for _, p := range results.Predictions {
		e := p.Error()
		sumSq += e * e
		sumAbs += math.Abs(e)
		sum += e
		maxAbs = math.Max(maxAbs, math.Abs(e))
	}

	n := float64(results.Count)
	results.MSE = sumSq / n
	results.RMSE = math.Sqrt(results.MSE)
	results.MAE = sumAbs / n
	results.MeanError = sum / n
	results.MaxAbsError = maxAbs
}
