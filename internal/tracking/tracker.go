// Package tracking connects a run to the external experiment-tracking
// service. The orchestration layer hands it a run name, a project identifier,
// the full resolved configuration, and periodic metric samples; everything
// else about the backend is opaque.
package tracking

import "context"

// Tracker is the experiment-tracking collaborator for one run.
type Tracker interface {
	// SessionID returns the tracking-session identifier issued for this run.
	// It doubles as the experiment identity when logging is enabled.
	SessionID() string
	// LogHyperparams records the full resolved run configuration.
	LogHyperparams(hparams map[string]any)
	// LogMetrics records a batch of named scalar metrics at a global step.
	LogMetrics(ctx context.Context, step int, metrics map[string]float64)
	// Finish flushes and closes the session.
	Finish(ctx context.Context) error
}

// GradientWatchFrequency is the fixed batch-count frequency at which the run
// driver samples gradient statistics from the model.
const GradientWatchFrequency = 100
