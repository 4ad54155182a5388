// Package trainer drives the fit loop: it composes the reproducibility gate,
// the configuration resolver, the execution plan, and the checkpoint policy,
// then hands control to Fit with the resolved model and data collaborators.
package trainer

import "context"

// Batch is an opaque unit of training or validation data. The fit loop moves
// batches from the data module to the model without inspecting them.
type Batch any

// Model is the learned-model collaborator. Its forward/loss computation is
// external; the orchestration layer only drives the protocol below.
type Model interface {
	// TrainStep runs one optimization step on a batch and returns the loss.
	TrainStep(ctx context.Context, batch Batch) (float64, error)
	// ValidationStep evaluates a batch and returns the loss.
	ValidationStep(ctx context.Context, batch Batch) (float64, error)
	// ClipGradients clips gradient norms to the given value before the
	// optimizer applies them.
	ClipGradients(norm float64)
	// GradientStats samples named gradient statistics for the observer.
	GradientStats() map[string]float64
	// NumParameters is the trainable parameter count, reported at startup.
	NumParameters() int
	// StateSnapshot serializes model and optimizer state for checkpointing.
	StateSnapshot() ([]byte, error)
}

// BatchIterator yields batches until exhausted.
type BatchIterator interface {
	// Next returns the next batch. ok is false when the iterator is drained.
	Next(ctx context.Context) (batch Batch, ok bool, err error)
}

// DataModule is the data-pipeline collaborator.
type DataModule interface {
	// TrainBatches returns a fresh iterator over one epoch of training data.
	TrainBatches(ctx context.Context) BatchIterator
	// ValBatches returns a fresh iterator over the validation data.
	ValBatches(ctx context.Context) BatchIterator
	// TrainBatchCount is the number of batches in one training epoch, used to
	// turn a fraction-of-epoch validation cadence into a batch count.
	TrainBatchCount() int
}

// ModelFactory constructs the model collaborator from its merged parameters.
type ModelFactory func(params map[string]any) (Model, error)

// DataFactory constructs the data collaborator from the batch size and its
// merged parameters.
type DataFactory func(batchSize int, params map[string]any) (DataModule, error)
