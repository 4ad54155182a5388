package rerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("read-only filesystem")
	err := RunFailure("saving checkpoint failed", cause).WithDetail("dir", "/ckpt")

	msg := err.Error()
	if msg == "" {
		t.Fatal("expected a message")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"reproducibility", Reproducibility("dirty tree"), ErrCodeReproducibility},
		{"configuration", MissingKey("gpus"), ErrCodeConfiguration},
		{"run failure", RunFailure("nan loss", nil), ErrCodeRunFailure},
		{"wrapped", fmt.Errorf("launch: %w", Configuration("bad devices")), ErrCodeConfiguration},
		{"plain error", errors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("expected code %s, got %s", tt.want, got)
			}
			if !Is(tt.err, tt.want) {
				t.Errorf("expected Is(%v, %s) to hold", tt.err, tt.want)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeConfiguration, 2},
		{ErrCodeReproducibility, 3},
		{ErrCodeRunFailure, 1},
		{ErrCodeInternal, 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.code); got != tt.want {
			t.Errorf("ExitCode(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestIsPreRunCode(t *testing.T) {
	if !IsPreRunCode(ErrCodeReproducibility) || !IsPreRunCode(ErrCodeConfiguration) {
		t.Error("gate and configuration failures are pre-run")
	}
	if IsPreRunCode(ErrCodeRunFailure) {
		t.Error("run failures are not pre-run")
	}
}
