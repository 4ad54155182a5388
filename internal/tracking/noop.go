package tracking

import (
	"context"

	"github.com/google/uuid"
)

// NoopTracker is the tracker used when logging is disabled. It issues a
// freshly generated random identity so checkpoint namespacing still works,
// and drops everything else.
type NoopTracker struct {
	sessionID string
}

// NewNoopTracker creates a disabled tracker with a random run identity.
func NewNoopTracker() *NoopTracker {
	return &NoopTracker{sessionID: uuid.NewString()}
}

// SessionID returns the generated run identity.
func (t *NoopTracker) SessionID() string { return t.sessionID }

// LogHyperparams discards the configuration.
func (t *NoopTracker) LogHyperparams(map[string]any) {}

// LogMetrics discards the samples.
func (t *NoopTracker) LogMetrics(context.Context, int, map[string]float64) {}

// Finish is a no-op.
func (t *NoopTracker) Finish(context.Context) error { return nil }
