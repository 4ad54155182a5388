package plan

import (
	"testing"

	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/rerrors"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name    string
		devices config.DeviceSpec
		want    StrategyKind
	}{
		{"single device count", config.DeviceSpec{N: 1}, StrategyNone},
		{"single device list", config.DeviceSpec{IDs: []int{0}}, StrategyNone},
		{"multi device count", config.DeviceSpec{N: 4}, StrategyDataParallel},
		{"multi device list", config.DeviceSpec{IDs: []int{0, 1, 2, 3}}, StrategyDataParallel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Select(tc.devices, false, 1.0)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if p.Strategy.Kind != tc.want {
				t.Errorf("expected strategy %q, got %q", tc.want, p.Strategy.Kind)
			}
			if p.Strategy.Kind == StrategyDataParallel && p.Strategy.FindUnusedParameters {
				t.Error("unused-parameter detection must stay off under data parallelism")
			}
		})
	}
}

func TestSelectTestModeOverrides(t *testing.T) {
	// The requested cadence of 0.5 is silently overridden in test mode; that
	// precedence is deliberate, smoke tests must finish fast.
	p, err := Select(config.DeviceSpec{N: 1}, true, 0.5)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if p.LimitTrainBatches != 10 {
		t.Errorf("expected train batch cap 10, got %d", p.LimitTrainBatches)
	}
	if p.LimitValBatches != 3 {
		t.Errorf("expected validation batch cap 3, got %d", p.LimitValBatches)
	}
	if p.ValCheckInterval != 2 {
		t.Errorf("expected cadence override 2, got %v", p.ValCheckInterval)
	}
	if p.MaxEpochs != 1 {
		t.Errorf("expected one epoch in test mode, got %d", p.MaxEpochs)
	}
}

func TestSelectFullRunDefaults(t *testing.T) {
	p, err := Select(config.DeviceSpec{N: 2}, false, 0.25)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if p.LimitTrainBatches != 0 || p.LimitValBatches != 0 {
		t.Error("expected no batch caps outside test mode")
	}
	if p.ValCheckInterval != 0.25 {
		t.Errorf("expected requested cadence to pass through, got %v", p.ValCheckInterval)
	}
	if p.MaxEpochs != 500 {
		t.Errorf("expected 500 max epochs, got %d", p.MaxEpochs)
	}
	if p.GradientClip != 1.0 {
		t.Errorf("expected gradient clip 1.0, got %v", p.GradientClip)
	}
	if !p.HalfPrecision {
		t.Error("expected half precision enabled")
	}
}

func TestSelectInvalidInputs(t *testing.T) {
	if _, err := Select(config.DeviceSpec{N: 0}, false, 1.0); err == nil {
		t.Fatal("expected error for zero devices")
	} else if !rerrors.Is(err, rerrors.ErrCodeConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}

	if _, err := Select(config.DeviceSpec{N: -2}, false, 1.0); err == nil {
		t.Fatal("expected error for negative devices")
	}

	if _, err := Select(config.DeviceSpec{N: 1}, false, 0); err == nil {
		t.Fatal("expected error for non-positive validation interval")
	}
}
