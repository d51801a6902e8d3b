package model

// EvaluationResults stores the outcome of running a trained network over a split
type EvaluationResults struct {
	Split       string       `json:"split"`
	Count       int          `json:"count"`
	MSE         float64      `json:"mse"`
	RMSE        float64      `json:"rmse"`
	MAE         float64      `json:"mae"`
	MeanError   float64      `json:"mean_error"` // Positive means the model over-predicts
	MaxAbsError float64      `json:"max_abs_error"`
	Predictions []Prediction `json:"predictions"`
}
