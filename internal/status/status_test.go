package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/logger"
)

func TestProgressionSnapshot(t *testing.T) {
	state := NewState("run-42", "/ckpt/run-42", "ddp")

	p := state.snapshot()
	if p.ExperimentID != "run-42" {
		t.Errorf("expected experiment id run-42, got %q", p.ExperimentID)
	}
	if len(p.Metrics) != 0 {
		t.Errorf("expected no metrics before the first update, got %v", p.Metrics)
	}

	state.Update(3, 120, 0.25, 0.31)
	p = state.snapshot()
	if p.CurrentEpoch != 3 || p.CurrentStep != 120 {
		t.Errorf("expected epoch 3 step 120, got epoch %d step %d", p.CurrentEpoch, p.CurrentStep)
	}
	if p.Metrics["train_loss"] != 0.25 {
		t.Errorf("expected train_loss 0.25, got %v", p.Metrics["train_loss"])
	}
	if p.Metrics["val_loss"] != 0.31 {
		t.Errorf("expected val_loss 0.31, got %v", p.Metrics["val_loss"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	state := NewState("run-7", "/ckpt/run-7", "none")
	state.Update(1, 50, 0.8, 0.9)
	srv := NewServer(config.StatusConfig{Addr: ":0"}, state, logger.NewDefault())

	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var p Progression
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if p.ExperimentID != "run-7" {
		t.Errorf("expected experiment id run-7, got %q", p.ExperimentID)
	}
	if p.CheckpointDir != "/ckpt/run-7" {
		t.Errorf("expected checkpoint dir in response, got %q", p.CheckpointDir)
	}
	if p.CurrentStep != 50 {
		t.Errorf("expected step 50, got %d", p.CurrentStep)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(config.StatusConfig{Addr: ":0"}, NewState("x", "", "none"), logger.NewDefault())

	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
