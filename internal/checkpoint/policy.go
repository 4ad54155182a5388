// Package checkpoint implements the dual-trigger checkpoint policy: a
// wall-clock interval trigger and an epoch-boundary trigger writing
// disjointly-named artifacts into one per-experiment directory.
package checkpoint

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/motionnets/mptrain/internal/logger"
	"github.com/motionnets/mptrain/internal/rerrors"
)

// DefaultRoot is the checkpoint root used when the configuration gives none.
const DefaultRoot = "checkpoints"

const bestName = "best.ckpt"

// Policy holds the resolved directory and the two trigger specifications for
// one run. A nil-Disabled policy installs no triggers and creates no
// directory.
type Policy struct {
	// Enabled reports whether checkpointing is on for this run.
	Enabled bool
	// Dir is the resolved per-experiment directory, the sole recovery point.
	Dir string

	interval *IntervalTrigger
	epochEnd *EpochEndTrigger
	store    Store
	log      *logger.Logger

	bestVal  float64
	haveBest bool
}

// Disabled returns the no-checkpointing sentinel.
func Disabled() *Policy {
	return &Policy{Enabled: false}
}

// Resolve derives the checkpoint policy for an experiment. The directory is
// the explicit root if provided, else DefaultRoot, joined with the experiment
// identity, so differently-identified runs never collide and reruns of the
// same identity resume into the same directory.
func Resolve(enabled bool, experimentID, rootDir string, intervalMinutes int, store Store, log *logger.Logger) (*Policy, error) {
	if !enabled {
		return Disabled(), nil
	}
	if experimentID == "" {
		return nil, rerrors.Configuration("experiment identity is required for checkpointing")
	}
	if intervalMinutes <= 0 {
		return nil, rerrors.Configurationf("checkpoint interval must be positive (got %d minutes)", intervalMinutes)
	}

	root := rootDir
	if root == "" {
		root = DefaultRoot
	}
	dir, err := filepath.Abs(filepath.Join(root, experimentID))
	if err != nil {
		return nil, rerrors.Configuration("cannot resolve checkpoint directory").WithCause(err)
	}

	now := time.Now()
	p := &Policy{
		Enabled:  true,
		Dir:      dir,
		interval: NewIntervalTrigger(time.Duration(intervalMinutes)*time.Minute, now),
		epochEnd: NewEpochEndTrigger(),
		store:    store,
		log:      log.WithComponent("checkpoint"),
		bestVal:  math.Inf(1),
	}
	if err := p.checkNaming(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkNaming enforces the invariant that the two triggers never share a
// filename for their latest artifact. A collision would let a race between
// the timers corrupt or silently drop one of them.
func (p *Policy) checkNaming() error {
	intervalName := p.interval.LatestName()
	for _, epoch := range []int{0, 1, 500} {
		if p.epochEnd.LatestName(epoch) == intervalName {
			return fmt.Errorf("checkpoint trigger artifact names collide: %q", intervalName)
		}
	}
	if strings.HasPrefix(intervalName, "epoch-") {
		return fmt.Errorf("interval artifact name %q shadows the epoch-end naming scheme", intervalName)
	}
	return nil
}

// Prepare creates the resolved directory and records the run hyperparameters
// inside it. Called only after the reproducibility gate has resolved, so an
// aborted run leaves no directory behind.
func (p *Policy) Prepare(hparams map[string]any) error {
	if !p.Enabled {
		return nil
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory %s: %w", p.Dir, err)
	}
	if hparams != nil {
		if err := WriteHyperparams(p.Dir, hparams); err != nil {
			return err
		}
	}
	p.log.Info("saving checkpoints", logger.Fields(logger.FieldDir, p.Dir))
	return nil
}

// SnapshotFunc builds a snapshot on demand. Serializing model state is not
// free, so the policy only invokes it when a trigger is due.
type SnapshotFunc func() (Snapshot, error)

// OnBatchEnd evaluates the interval trigger after a training batch. The
// snapshot is written as the interval trigger's latest artifact when due.
func (p *Policy) OnBatchEnd(ctx context.Context, now time.Time, make SnapshotFunc) error {
	if !p.Enabled {
		return nil
	}
	if !p.interval.Tick(now) {
		return nil
	}
	snap, err := make()
	if err != nil {
		return err
	}
	p.interval.Fire()
	if err := p.save(ctx, p.interval.LatestName(), snap); err != nil {
		return err
	}
	p.interval.Complete(now)
	return p.trackBest(ctx, snap)
}

// OnEpochEnd evaluates the epoch-boundary trigger. It saves exactly once per
// epoch, independent of the interval trigger's timer.
func (p *Policy) OnEpochEnd(ctx context.Context, epoch int, make SnapshotFunc) error {
	if !p.Enabled {
		return nil
	}
	if !p.epochEnd.EpochEnded(epoch) {
		return nil
	}
	snap, err := make()
	if err != nil {
		return err
	}
	p.epochEnd.Fire()
	if err := p.save(ctx, p.epochEnd.LatestName(epoch), snap); err != nil {
		return err
	}
	p.epochEnd.Complete()
	return p.trackBest(ctx, snap)
}

// trackBest keeps a secondary best-artifact monitored against the validation
// loss signal.
func (p *Policy) trackBest(ctx context.Context, snap Snapshot) error {
	if math.IsNaN(snap.ValLoss) {
		return nil
	}
	if p.haveBest && snap.ValLoss >= p.bestVal {
		return nil
	}
	if err := p.save(ctx, bestName, snap); err != nil {
		return err
	}
	p.bestVal = snap.ValLoss
	p.haveBest = true
	return nil
}

func (p *Policy) save(ctx context.Context, name string, snap Snapshot) error {
	if err := p.store.Save(ctx, p.Dir, name, snap); err != nil {
		return err
	}
	p.log.Info("checkpoint saved", logger.Fields(
		"name", name,
		logger.FieldEpoch, snap.Epoch,
		logger.FieldStep, snap.GlobalStep,
	))
	return nil
}

// IntervalState exposes the interval trigger state for tests and status.
func (p *Policy) IntervalState() TriggerState { return p.interval.State() }

// EpochEndState exposes the epoch-end trigger state for tests and status.
func (p *Policy) EpochEndState() TriggerState { return p.epochEnd.State() }
