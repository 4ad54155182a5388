// Package plan derives the execution plan for a run: batching limits,
// validation cadence, and the parallel-execution strategy.
package plan

import (
	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/rerrors"
)

// StrategyKind names the parallelism mode used to distribute computation
// across devices.
type StrategyKind string

const (
	// StrategyNone runs on a single device with no parallelism.
	StrategyNone StrategyKind = "none"
	// StrategyDataParallel replicates the model across devices and splits
	// each batch between them.
	StrategyDataParallel StrategyKind = "ddp"
)

// Strategy is the chosen parallel-execution strategy.
type Strategy struct {
	Kind StrategyKind
	// FindUnusedParameters enables per-pass detection of parameters that
	// receive no gradient. The model graph uses every parameter on every
	// pass, so this stays off under data parallelism.
	FindUnusedParameters bool
}

// Test-mode limits: smoke tests must complete quickly and deterministically
// regardless of the configured cadence.
const (
	testLimitTrainBatches = 10
	testLimitValBatches   = 3
	testValCheckInterval  = 2

	testMaxEpochs = 1
	fullMaxEpochs = 500

	defaultGradientClip = 1.0
)

// ExecutionPlan holds everything the fit loop needs to know about how to
// execute: batch-limit overrides, validation cadence, and the strategy.
// Computed once from the device spec and run mode, never mutated after.
type ExecutionPlan struct {
	// LimitTrainBatches caps the number of training batches per epoch.
	// Zero means no cap.
	LimitTrainBatches int
	// LimitValBatches caps the number of validation batches per pass.
	// Zero means no cap.
	LimitValBatches int
	// ValCheckInterval is the validation cadence: a value in (0,1] is a
	// fraction of one training epoch, a value > 1 an absolute batch count.
	ValCheckInterval float64
	// Strategy is the chosen parallel-execution strategy.
	Strategy Strategy
	// MaxEpochs bounds the run.
	MaxEpochs int
	// GradientClip is the gradient-norm clipping value.
	GradientClip float64
	// HalfPrecision requests 16-bit mixed-precision execution.
	HalfPrecision bool
}

// Select derives the execution plan from the device spec, the run mode, and
// the requested validation cadence.
//
// Test mode caps batches to 10 train / 3 validation and overrides the cadence
// to 2 regardless of what was requested. More than one device selects data
// parallelism with unused-parameter detection off; otherwise no parallelism.
// A cadence not overridden by test mode passes through unchanged.
func Select(devices config.DeviceSpec, testMode bool, validationInterval float64) (ExecutionPlan, error) {
	if err := devices.Validate(); err != nil {
		return ExecutionPlan{}, err
	}
	if validationInterval <= 0 {
		return ExecutionPlan{}, rerrors.Configurationf("validation interval must be positive (got %v)", validationInterval)
	}

	p := ExecutionPlan{
		ValCheckInterval: validationInterval,
		MaxEpochs:        fullMaxEpochs,
		GradientClip:     defaultGradientClip,
		HalfPrecision:    true,
		Strategy:         Strategy{Kind: StrategyNone},
	}

	if testMode {
		p.LimitTrainBatches = testLimitTrainBatches
		p.LimitValBatches = testLimitValBatches
		p.ValCheckInterval = testValCheckInterval
		p.MaxEpochs = testMaxEpochs
	}

	if devices.Count() > 1 {
		p.Strategy = Strategy{Kind: StrategyDataParallel, FindUnusedParameters: false}
	}

	return p, nil
}
