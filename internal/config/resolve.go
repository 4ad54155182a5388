package config

import "github.com/motionnets/mptrain/internal/logger"

// RunConfig is the immutable configuration for one training run, produced
// once at launch by Resolve and read-only thereafter.
type RunConfig struct {
	TrainingNodeName string

	ExperimentName     string
	Devices            DeviceSpec
	BatchSize          int
	CheckpointInterval int
	SaveCheckpointDir  string
	ValidationInterval float64

	SharedParameters        map[string]any
	TrainingModelParameters map[string]any
	DataModuleParameters    map[string]any

	Test            bool
	NoLogging       bool
	NoCheckpointing bool
	AllowDirtyRepo  bool

	Logging  logger.Config
	Tracking TrackingConfig
	Status   StatusConfig

	hyperparams map[string]any
}

// Resolve merges the three configuration sources into one RunConfig. Inputs
// in increasing precedence: the training node identity, the file contents,
// and the command-line flags. Flag semantics that force a value regardless of
// the file (test-mode forcing no-logging, a confirmed dirty override forcing
// no-logging) are applied here; order-dependent in-place mutation is avoided
// by building a fresh value.
//
// forceNoLogging reflects the reproducibility gate's decision: when the gate
// resolved to proceed-without-logging, logging stays off even if neither flag
// asked for it.
func Resolve(node string, file *FileConfig, raw map[string]any, flags Flags, forceNoLogging bool) (RunConfig, error) {
	devices, err := ParseDeviceSpec(file.Gpus)
	if err != nil {
		return RunConfig{}, err
	}
	if err := devices.Validate(); err != nil {
		return RunConfig{}, err
	}

	noLogging := flags.NoLogging || flags.Test || forceNoLogging

	cfg := RunConfig{
		TrainingNodeName: node,

		ExperimentName:     file.ExperimentName,
		Devices:            devices,
		BatchSize:          file.BatchSize,
		CheckpointInterval: file.CheckpointInterval,
		SaveCheckpointDir:  file.SaveCheckpointDir,
		ValidationInterval: file.ValidationInterval,

		SharedParameters:        file.SharedParameters,
		TrainingModelParameters: file.TrainingModelParameters,
		DataModuleParameters:    file.DataModuleParameters,

		Test:            flags.Test,
		NoLogging:       noLogging,
		NoCheckpointing: flags.NoCheckpointing,
		AllowDirtyRepo:  flags.AllowDirtyRepo,

		Logging:  file.Logging,
		Tracking: file.Tracking,
		Status:   file.Status,
	}

	// Node identity first, then file values, then flags: right-most wins.
	hp := make(map[string]any, len(raw)+6)
	hp["training_node_name"] = node
	for k, v := range raw {
		hp[k] = v
	}
	hp["test"] = flags.Test
	hp["no_logging"] = noLogging
	hp["no_checkpointing"] = flags.NoCheckpointing
	hp["allow_dirty_repo"] = flags.AllowDirtyRepo
	cfg.hyperparams = hp

	return cfg, nil
}

// Hyperparams returns the full resolved configuration as a flat mapping, the
// form handed to the experiment tracker. Callers must not mutate it.
func (c *RunConfig) Hyperparams() map[string]any {
	return c.hyperparams
}

// ShouldLog reports whether experiment tracking is enabled for this run.
func (c *RunConfig) ShouldLog() bool {
	return !c.NoLogging
}
