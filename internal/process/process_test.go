package process

import (
	"context"
	"strings"
	"testing"
)

func TestRunCapturesOutput(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "out" {
		t.Errorf("expected stdout 'out', got %q", got)
	}
	if got := strings.TrimSpace(string(result.Stderr)); got != "err" {
		t.Errorf("expected stderr 'err', got %q", got)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestRunMissingBinary(t *testing.T) {
	if _, err := Run(context.Background(), Command{Binary: ""}); err == nil {
		t.Error("expected error for empty binary")
	}
	if _, err := Run(context.Background(), Command{Binary: "definitely-not-a-real-binary"}); err == nil {
		t.Error("expected error for unknown binary")
	}
}

func TestRunStdin(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Binary: "cat",
		Stdin:  strings.NewReader("hello"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(result.Stdout) != "hello" {
		t.Errorf("expected stdin to reach the process, got %q", result.Stdout)
	}
}
