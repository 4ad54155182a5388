package trainer

import (
	"context"
	"os"

	"github.com/motionnets/mptrain/internal/checkpoint"
	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/logger"
	"github.com/motionnets/mptrain/internal/plan"
	"github.com/motionnets/mptrain/internal/rerrors"
	"github.com/motionnets/mptrain/internal/status"
	"github.com/motionnets/mptrain/internal/tracking"
	"github.com/motionnets/mptrain/internal/worktree"
)

// TrackerFactory opens a tracking session for an enabled-logging run.
type TrackerFactory func(ctx context.Context, runName string, cfg config.TrackingConfig, log *logger.Logger) (tracking.Tracker, error)

// Driver composes the gate, resolver, selector, and policy, then obtains the
// collaborators and starts the fit loop. All dependencies are injected so
// tests can run the whole sequence with fakes.
type Driver struct {
	Flags     config.Flags
	Inspector worktree.Inspector
	Confirmer worktree.Confirmer

	Store      checkpoint.Store
	NewTracker TrackerFactory

	NewModel ModelFactory
	NewData  DataFactory

	// LoaderOptions are forwarded to the configuration loader.
	LoaderOptions []config.LoaderOption
	// Hostname overrides the training-node identity lookup. Defaults to
	// os.Hostname.
	Hostname func() (string, error)
}

// Run executes one training run from launch to completion. The gate resolves
// before anything else: an abort leaves no partial side effects, no
// checkpoint directory and no tracking session.
func (d *Driver) Run(ctx context.Context) error {
	gate := &worktree.Gate{Inspector: d.Inspector, Confirmer: d.Confirmer}
	decision, err := gate.Check(ctx, d.Flags.Test, d.Flags.AllowDirtyRepo)
	if err != nil {
		return err
	}
	if decision == worktree.Abort {
		return rerrors.Reproducibility("reproducibility gate aborted the run")
	}

	file, raw, err := config.Load(d.Flags.ConfigPath, d.LoaderOptions...)
	if err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return err
	}

	node, err := d.hostname()
	if err != nil {
		node = "unknown"
	}

	cfg, err := config.Resolve(node, file, raw, d.Flags, decision == worktree.ProceedWithoutLogging)
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("experiment name", logger.Fields("name", cfg.ExperimentName))

	execPlan, err := plan.Select(cfg.Devices, cfg.Test, cfg.ValidationInterval)
	if err != nil {
		return err
	}
	log.Info("execution plan", logger.Fields(
		logger.FieldStrategy, string(execPlan.Strategy.Kind),
		logger.FieldDevices, cfg.Devices.String(),
		"max_epochs", execPlan.MaxEpochs,
	))

	var tracker tracking.Tracker
	if cfg.ShouldLog() {
		tracker, err = d.NewTracker(ctx, cfg.ExperimentName, cfg.Tracking, log)
		if err != nil {
			return rerrors.Internal("opening tracking session failed", err)
		}
	} else {
		log.Info("disabling all logs")
		tracker = tracking.NewNoopTracker()
	}
	experimentID := tracker.SessionID()
	log = log.WithExperiment(experimentID)

	policy, err := checkpoint.Resolve(
		!cfg.NoCheckpointing,
		experimentID,
		cfg.SaveCheckpointDir,
		cfg.CheckpointInterval,
		d.Store,
		log,
	)
	if err != nil {
		return err
	}
	if err := policy.Prepare(cfg.Hyperparams()); err != nil {
		return rerrors.Internal("preparing checkpoint directory failed", err)
	}

	tracker.LogHyperparams(cfg.Hyperparams())

	runState := status.NewState(experimentID, policy.Dir, string(execPlan.Strategy.Kind))
	var statusServer *status.Server
	if cfg.Status.Enabled {
		statusServer = status.NewServer(cfg.Status, runState, log)
		statusServer.Start()
		defer func() {
			_ = statusServer.Stop(context.Background())
		}()
	}

	model, err := d.NewModel(MergeParams(cfg.SharedParameters, cfg.TrainingModelParameters))
	if err != nil {
		return rerrors.RunFailure("constructing model collaborator failed", err)
	}
	log.Info("model constructed", logger.Fields("parameters", model.NumParameters()))
	data, err := d.NewData(cfg.BatchSize, MergeParams(cfg.SharedParameters, cfg.DataModuleParameters))
	if err != nil {
		return rerrors.RunFailure("constructing data collaborator failed", err)
	}

	fc := &FitConfig{
		Plan:      execPlan,
		Policy:    policy,
		Tracker:   tracker,
		ShouldLog: cfg.ShouldLog(),
		Log:       log,
		Progress:  runState.Update,
	}
	if err := fc.Fit(ctx, model, data); err != nil {
		_ = tracker.Finish(context.Background())
		return err
	}

	return tracker.Finish(ctx)
}

func (d *Driver) hostname() (string, error) {
	if d.Hostname != nil {
		return d.Hostname()
	}
	return os.Hostname()
}
