// Package evaluate runs a trained network over a split and compares its
// predictions with the observed values.
package evaluate

import (
	"fmt"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/scale"
	"github.com/Alias1177/bikecast/internal/window"
)

// Predictor produces one value per window
type Predictor interface {
	PredictBatch(xs [][][]float64) ([]float64, error)
}

// Run predicts every window of ds and reports errors in original units.
// ds is expected in scaled space; scaler maps both predictions and targets
// back.
func Run(name string, p Predictor, ds *window.Dataset, scaler scale.Standard) (*model.EvaluationResults, error) {
	results := &model.EvaluationResults{
		Split:       name,
		Predictions: []model.Prediction{},
	}
	if ds == nil || ds.Len() == 0 {
		return results, nil
	}

	outs, err := p.PredictBatch(ds.X)
	if err != nil {
		return nil, fmt.Errorf("predicting %s split: %w", name, err)
	}

	predicted := scaler.InverseAll(outs)
	actual := scaler.InverseAll(ds.Y)

	for i := range predicted {
		pred := model.Prediction{
			Index:     ds.Offset + i,
			Predicted: predicted[i],
			Actual:    actual[i],
		}
		if ds.Times != nil {
			pred.Time = ds.Times[i]
		}
		results.Predictions = append(results.Predictions, pred)
	}

	CalculateMetrics(results)
	return results, nil
}
