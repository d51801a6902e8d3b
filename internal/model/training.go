package model

import "time"

// EpochResult holds the metrics reported after a single training epoch
type EpochResult struct {
	Epoch    int           `json:"epoch"`
	Loss     float64       `json:"loss"`
	RMSE     float64       `json:"rmse"`
	ValLoss  float64       `json:"val_loss"`
	ValRMSE  float64       `json:"val_rmse"`
	Improved bool          `json:"improved"` // Validation loss improved and a checkpoint was written
	Duration time.Duration `json:"duration"`
}

// History is the sequence of epoch results of one training run
type History struct {
	RunID     string        `json:"run_id"`
	Epochs    []EpochResult `json:"epochs"`
	BestEpoch int           `json:"best_epoch"`
	BestLoss  float64       `json:"best_val_loss"`
}
