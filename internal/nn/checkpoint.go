package nn

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Alias1177/bikecast/internal/scale"
	"github.com/pkg/errors"
)

// Checkpoint is the persisted form of a trained network
type Checkpoint struct {
	RunID   string               `json:"run_id"`
	Epoch   int                  `json:"epoch"`
	ValLoss float64              `json:"val_loss"`
	SavedAt time.Time            `json:"saved_at"`
	Shape   Shape                `json:"shape"`
	Scaler  scale.Standard       `json:"scaler"`
	Params  map[string][]float64 `json:"params"`
}

// Checkpoint captures a copy of the current weights
func (n *Network) Checkpoint(runID string, epoch int, valLoss float64, scaler scale.Standard) *Checkpoint {
	cp := &Checkpoint{
		RunID:   runID,
		Epoch:   epoch,
		ValLoss: valLoss,
		SavedAt: time.Now().UTC(),
		Shape:   n.shape,
		Scaler:  scaler,
		Params:  make(map[string][]float64),
	}
	for _, p := range n.params() {
		cp.Params[p.name] = append([]float64(nil), p.w...)
	}
	return cp
}

// Restore builds a network from a checkpoint. Optimizer state is not
// persisted, so a restored network starts Adam from scratch.
func Restore(cp *Checkpoint) (*Network, error) {
	n, err := NewNetwork(cp.Shape, 0)
	if err != nil {
		return nil, errors.Wrap(err, "restoring checkpoint")
	}

	for _, p := range n.params() {
		w, ok := cp.Params[p.name]
		if !ok {
			return nil, errors.Wrapf(ErrShape, "checkpoint has no parameter %q", p.name)
		}
		if len(w) != p.size() {
			return nil, errors.Wrapf(ErrShape, "parameter %q has %d values, expected %d", p.name, len(w), p.size())
		}
		copy(p.w, w)
	}

	return n, nil
}

// Save writes the checkpoint as JSON. The file is written next to path and
// renamed into place so a crash never leaves a truncated checkpoint.
func Save(path string, cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding checkpoint")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating checkpoint directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temporary checkpoint")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing checkpoint")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing checkpoint")
	}

	return errors.Wrapf(os.Rename(tmp.Name(), path), "moving checkpoint to %s", path)
}

// Load reads a checkpoint written by Save
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading checkpoint")
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, errors.Wrapf(err, "decoding checkpoint %s", path)
	}
	return &cp, nil
}
