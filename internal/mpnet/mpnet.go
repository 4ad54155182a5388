// Package mpnet provides the default model and data collaborators wired into
// the train binary. The synthetic implementations here exercise the full
// orchestration path (fit loop, triggers, tracking) without an accelerator;
// a production policy network binds through the same trainer interfaces.
package mpnet

import (
	"context"
	"encoding/json"
	"math"

	"github.com/motionnets/mptrain/internal/trainer"
)

// sample is one synthetic trajectory batch.
type sample struct {
	Index int
	Size  int
}

// PolicyNetwork is a synthetic stand-in for the learned motion-planning
// policy. Losses decay deterministically with the number of steps taken so
// checkpoint best-tracking and metric plots behave like a real run.
type PolicyNetwork struct {
	params map[string]any
	steps  int
	clip   float64
}

// NewPolicyNetwork constructs the network from its merged parameters.
func NewPolicyNetwork(params map[string]any) (trainer.Model, error) {
	return &PolicyNetwork{params: params}, nil
}

// TrainStep runs one synthetic optimization step.
func (n *PolicyNetwork) TrainStep(ctx context.Context, batch trainer.Batch) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n.steps++
	return n.loss(), nil
}

// ValidationStep evaluates a batch without updating the step count.
func (n *PolicyNetwork) ValidationStep(ctx context.Context, batch trainer.Batch) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return n.loss() * 1.1, nil
}

// ClipGradients records the clipping norm applied before each update.
func (n *PolicyNetwork) ClipGradients(norm float64) {
	n.clip = norm
}

// GradientStats samples synthetic gradient statistics.
func (n *PolicyNetwork) GradientStats() map[string]float64 {
	return map[string]float64{
		"norm": 1.0 / math.Sqrt(float64(n.steps+1)),
		"clip": n.clip,
	}
}

// NumParameters reports the synthetic trainable parameter count.
func (n *PolicyNetwork) NumParameters() int {
	return 4096 * intParam(n.params, "num_robot_points", 1)
}

// StateSnapshot serializes the network state for checkpointing.
func (n *PolicyNetwork) StateSnapshot() ([]byte, error) {
	return json.Marshal(map[string]any{
		"steps":  n.steps,
		"params": n.params,
	})
}

func (n *PolicyNetwork) loss() float64 {
	return 1.0 / (1.0 + float64(n.steps)/50.0)
}

// DataModule is a synthetic data pipeline yielding fixed-size batches.
type DataModule struct {
	batchSize    int
	trainBatches int
	valBatches   int
}

// Default epoch sizes; override via data module parameters train_batches and
// val_batches.
const (
	defaultTrainBatches = 100
	defaultValBatches   = 20
)

// NewDataModule constructs the data pipeline from the batch size and its
// merged parameters.
func NewDataModule(batchSize int, params map[string]any) (trainer.DataModule, error) {
	dm := &DataModule{
		batchSize:    batchSize,
		trainBatches: intParam(params, "train_batches", defaultTrainBatches),
		valBatches:   intParam(params, "val_batches", defaultValBatches),
	}
	return dm, nil
}

// TrainBatches returns an iterator over one epoch of training data.
func (d *DataModule) TrainBatches(ctx context.Context) trainer.BatchIterator {
	return &iterator{total: d.trainBatches, size: d.batchSize}
}

// ValBatches returns an iterator over the validation data.
func (d *DataModule) ValBatches(ctx context.Context) trainer.BatchIterator {
	return &iterator{total: d.valBatches, size: d.batchSize}
}

// TrainBatchCount is the number of batches in one training epoch.
func (d *DataModule) TrainBatchCount() int { return d.trainBatches }

type iterator struct {
	total int
	size  int
	next  int
}

func (it *iterator) Next(ctx context.Context) (trainer.Batch, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if it.next >= it.total {
		return nil, false, nil
	}
	b := sample{Index: it.next, Size: it.size}
	it.next++
	return b, true, nil
}

func intParam(params map[string]any, key string, fallback int) int {
	if v, ok := params[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		}
	}
	return fallback
}
