package checkpoint

import (
	"fmt"
	"time"
)

// TriggerState tracks the lifecycle of a checkpoint trigger. Each trigger is
// its own small state machine: idle until its condition holds, armed once it
// does, fired while the save is in flight, then idle again.
type TriggerState int

const (
	StateIdle TriggerState = iota
	StateArmed
	StateFired
)

// String renders the state for logs.
func (s TriggerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	default:
		return "unknown"
	}
}

// IntervalTrigger saves at most once per configured wall-clock interval of
// training time, keeping exactly one latest artifact.
type IntervalTrigger struct {
	interval time.Duration
	last     time.Time
	state    TriggerState
}

// NewIntervalTrigger creates an interval trigger that arms every d of
// wall-clock training time, measured from start.
func NewIntervalTrigger(d time.Duration, start time.Time) *IntervalTrigger {
	return &IntervalTrigger{interval: d, last: start, state: StateIdle}
}

// Tick advances the state machine. It returns true when the trigger is armed
// and a save should be performed.
func (t *IntervalTrigger) Tick(now time.Time) bool {
	if t.state == StateIdle && now.Sub(t.last) >= t.interval {
		t.state = StateArmed
	}
	return t.state == StateArmed
}

// Fire marks the save as in flight. Only valid when armed.
func (t *IntervalTrigger) Fire() {
	if t.state == StateArmed {
		t.state = StateFired
	}
}

// Complete records that the save finished and resets the timer.
func (t *IntervalTrigger) Complete(now time.Time) {
	t.last = now
	t.state = StateIdle
}

// State returns the current trigger state.
func (t *IntervalTrigger) State() TriggerState { return t.state }

// LatestName is the filename of the trigger's most-recent artifact.
func (t *IntervalTrigger) LatestName() string { return "last.ckpt" }

// EpochEndTrigger saves exactly once at the end of every training epoch,
// independent of the interval trigger's timer. Its latest artifact carries an
// epoch-end tag so it never overwrites the interval trigger's file.
type EpochEndTrigger struct {
	state      TriggerState
	lastEpoch  int
	seenEpochs bool
}

// NewEpochEndTrigger creates an epoch-boundary trigger.
func NewEpochEndTrigger() *EpochEndTrigger {
	return &EpochEndTrigger{state: StateIdle}
}

// EpochEnded arms the trigger for the given epoch. It returns true when a
// save should be performed; repeated calls for the same epoch do not re-arm.
func (t *EpochEndTrigger) EpochEnded(epoch int) bool {
	if t.state == StateIdle && (!t.seenEpochs || epoch > t.lastEpoch) {
		t.state = StateArmed
		t.lastEpoch = epoch
		t.seenEpochs = true
	}
	return t.state == StateArmed
}

// Fire marks the save as in flight. Only valid when armed.
func (t *EpochEndTrigger) Fire() {
	if t.state == StateArmed {
		t.state = StateFired
	}
}

// Complete records that the save finished.
func (t *EpochEndTrigger) Complete() {
	t.state = StateIdle
}

// State returns the current trigger state.
func (t *EpochEndTrigger) State() TriggerState { return t.state }

// LatestName is the filename of the trigger's most-recent artifact for the
// given epoch.
func (t *EpochEndTrigger) LatestName(epoch int) string {
	return fmt.Sprintf("epoch-%d-end.ckpt", epoch)
}
