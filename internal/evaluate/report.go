package evaluate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/scale"
)

// FormatResults creates a human-readable table of predictions against actual
// values. Only the first and last rows are listed when there are more than
// 2*rows predictions.
func FormatResults(results *model.EvaluationResults, rows int) string {
	if results == nil {
		return "No evaluation results available"
	}

	output := fmt.Sprintf("\n===== %s PREDICTIONS =====\n", results.Split)
	if results.Count == 0 {
		return output + "No examples in split\n"
	}

	output += fmt.Sprintf("%8s  %-19s  %14s  %14s\n", "index", "time", "Predictions", "Actual Values")

	line := func(p model.Prediction) string {
		ts := ""
		if !p.Time.IsZero() {
			ts = p.Time.Format("2006-01-02 15:04")
		}
		return fmt.Sprintf("%8d  %-19s  %14.4f  %14.4f\n", p.Index, ts, p.Predicted, p.Actual)
	}

	preds := results.Predictions
	if rows <= 0 || len(preds) <= 2*rows {
		for _, p := range preds {
			output += line(p)
		}
	} else {
		for _, p := range preds[:rows] {
			output += line(p)
		}
		output += fmt.Sprintf("%8s\n", "...")
		for _, p := range preds[len(preds)-rows:] {
			output += line(p)
		}
	}

	output += fmt.Sprintf("\n[%d rows]\n", results.Count)
	output += fmt.Sprintf("MSE: %.4f | RMSE: %.4f | MAE: %.4f\n", results.MSE, results.RMSE, results.MAE)
	output += fmt.Sprintf("Mean error: %+.4f | Max abs error: %.4f\n", results.MeanError, results.MaxAbsError)

	return output
}

// FormatHistory summarises a training run. Losses are reported in the scaled
// space the network trains in; RMSE is repeated in original units.
func FormatHistory(h *model.History, scaler scale.Standard) string {
	if h == nil || len(h.Epochs) == 0 {
		return "No training history available"
	}

	output := "\n===== TRAINING =====\n"
	output += fmt.Sprintf("Run: %s\n", h.RunID)
	output += fmt.Sprintf("Epochs: %d | Best epoch: %d | Best monitored loss (scaled): %.4f\n", len(h.Epochs), h.BestEpoch, h.BestLoss)

	last := h.Epochs[len(h.Epochs)-1]
	output += fmt.Sprintf("Last epoch (scaled): loss: %.4f - root_mean_squared_error: %.4f - val_loss: %.4f - val_root_mean_squared_error: %.4f\n",
		last.Loss, last.RMSE, last.ValLoss, last.ValRMSE)
	output += fmt.Sprintf("Last epoch (original units): root_mean_squared_error: %.4f - val_root_mean_squared_error: %.4f\n",
		scaler.Spread(last.RMSE), scaler.Spread(last.ValRMSE))

	return output
}

// WriteCSV writes split,index,time,predicted,actual rows for external plotting
func WriteCSV(w io.Writer, results ...*model.EvaluationResults) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"split", "index", "time", "predicted", "actual"}); err != nil {
		return err
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		for _, p := range r.Predictions {
			ts := ""
			if !p.Time.IsZero() {
				ts = p.Time.Format(time.RFC3339)
			}
			record := []string{
				r.Split,
				strconv.Itoa(p.Index),
				ts,
				strconv.FormatFloat(p.Predicted, 'f', -1, 64),
				strconv.FormatFloat(p.Actual, 'f', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
