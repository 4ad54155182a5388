package trainer

import (
	"context"
	"math"
	"time"

	"github.com/motionnets/mptrain/internal/checkpoint"
	"github.com/motionnets/mptrain/internal/logger"
	"github.com/motionnets/mptrain/internal/plan"
	"github.com/motionnets/mptrain/internal/rerrors"
	"github.com/motionnets/mptrain/internal/tracking"
)

// Progress is an optional observer of fit-loop progression, used to feed the
// operator status endpoint.
type Progress func(epoch, step int, trainLoss, valLoss float64)

// FitConfig carries everything Fit needs besides the collaborators.
type FitConfig struct {
	Plan    plan.ExecutionPlan
	Policy  *checkpoint.Policy
	Tracker tracking.Tracker
	// ShouldLog gates gradient-statistics sampling.
	ShouldLog bool
	Log       *logger.Logger
	// Progress may be nil.
	Progress Progress
	// Now is the wall clock used for the interval trigger. Defaults to
	// time.Now.
	Now func() time.Time
}

// Fit runs the training loop to completion. A failure from the model or data
// collaborator is not retried; it propagates as a fatal run failure.
func (fc *FitConfig) Fit(ctx context.Context, model Model, data DataModule) error {
	now := fc.Now
	if now == nil {
		now = time.Now
	}
	log := fc.Log.WithComponent("fit")

	valEvery := fc.validationCadence(data)
	globalStep := 0
	lastValLoss := math.NaN()

	for epoch := 0; epoch < fc.Plan.MaxEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return rerrors.RunFailure("training interrupted", err)
		}

		batches := data.TrainBatches(ctx)
		epochBatch := 0
		for {
			batch, ok, err := batches.Next(ctx)
			if err != nil {
				return rerrors.RunFailure("data pipeline failed", err)
			}
			if !ok {
				break
			}
			if fc.Plan.LimitTrainBatches > 0 && epochBatch >= fc.Plan.LimitTrainBatches {
				break
			}

			loss, err := model.TrainStep(ctx, batch)
			if err != nil {
				return rerrors.RunFailure("training step failed", err)
			}
			if fc.Plan.GradientClip > 0 {
				model.ClipGradients(fc.Plan.GradientClip)
			}
			epochBatch++
			globalStep++

			fc.Tracker.LogMetrics(ctx, globalStep, map[string]float64{"train_loss": loss})
			if fc.ShouldLog && globalStep%tracking.GradientWatchFrequency == 0 {
				fc.Tracker.LogMetrics(ctx, globalStep, prefixed("gradients/", model.GradientStats()))
			}

			if valEvery > 0 && epochBatch%valEvery == 0 {
				valLoss, err := fc.validate(ctx, model, data)
				if err != nil {
					return err
				}
				lastValLoss = valLoss
				fc.Tracker.LogMetrics(ctx, globalStep, map[string]float64{"val_loss": valLoss})
			}

			err = fc.Policy.OnBatchEnd(ctx, now(), fc.snapshotFunc(model, epoch, globalStep, lastValLoss))
			if err != nil {
				return rerrors.RunFailure("interval checkpoint failed", err)
			}

			if fc.Progress != nil {
				fc.Progress(epoch, globalStep, loss, lastValLoss)
			}
		}

		err := fc.Policy.OnEpochEnd(ctx, epoch, fc.snapshotFunc(model, epoch, globalStep, lastValLoss))
		if err != nil {
			return rerrors.RunFailure("epoch-end checkpoint failed", err)
		}
		log.Info("epoch finished", logger.Fields(
			logger.FieldEpoch, epoch,
			logger.FieldStep, globalStep,
			"val_loss", lastValLoss,
		))
	}

	return nil
}

// validationCadence turns the configured cadence into a batch count: a value
// in (0,1] is a fraction of one training epoch, a larger value an absolute
// batch count.
func (fc *FitConfig) validationCadence(data DataModule) int {
	interval := fc.Plan.ValCheckInterval
	if interval <= 0 {
		return 0
	}
	if interval <= 1 {
		n := int(interval * float64(data.TrainBatchCount()))
		if n < 1 {
			n = 1
		}
		return n
	}
	return int(interval)
}

func (fc *FitConfig) validate(ctx context.Context, model Model, data DataModule) (float64, error) {
	batches := data.ValBatches(ctx)
	var total float64
	count := 0
	for {
		batch, ok, err := batches.Next(ctx)
		if err != nil {
			return 0, rerrors.RunFailure("validation data pipeline failed", err)
		}
		if !ok {
			break
		}
		if fc.Plan.LimitValBatches > 0 && count >= fc.Plan.LimitValBatches {
			break
		}
		loss, err := model.ValidationStep(ctx, batch)
		if err != nil {
			return 0, rerrors.RunFailure("validation step failed", err)
		}
		total += loss
		count++
	}
	if count == 0 {
		return math.NaN(), nil
	}
	return total / float64(count), nil
}

func (fc *FitConfig) snapshotFunc(model Model, epoch, step int, valLoss float64) checkpoint.SnapshotFunc {
	return func() (checkpoint.Snapshot, error) {
		state, err := model.StateSnapshot()
		if err != nil {
			return checkpoint.Snapshot{}, rerrors.RunFailure("serializing model state failed", err)
		}
		return checkpoint.Snapshot{
			Epoch:      epoch,
			GlobalStep: step,
			ValLoss:    valLoss,
			SavedAt:    time.Now(),
			State:      state,
		}, nil
	}
}

func prefixed(prefix string, m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[prefix+k] = v
	}
	return out
}
