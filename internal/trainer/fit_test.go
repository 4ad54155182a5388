package trainer

import (
	"context"
	"errors"
	"testing"

	"github.com/motionnets/mptrain/internal/checkpoint"
	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/logger"
	"github.com/motionnets/mptrain/internal/plan"
	"github.com/motionnets/mptrain/internal/rerrors"
)

type fakeModel struct {
	trainSteps int
	valSteps   int
	clips      int
	trainErr   error
}

func (m *fakeModel) TrainStep(ctx context.Context, batch Batch) (float64, error) {
	if m.trainErr != nil {
		return 0, m.trainErr
	}
	m.trainSteps++
	return 1.0 / float64(m.trainSteps), nil
}

func (m *fakeModel) ValidationStep(ctx context.Context, batch Batch) (float64, error) {
	m.valSteps++
	return 0.5, nil
}

func (m *fakeModel) ClipGradients(norm float64) { m.clips++ }
func (m *fakeModel) NumParameters() int { return 1024 }
func (m *fakeModel) StateSnapshot() ([]byte, error) { return []byte("state"), nil }

func (m *fakeModel) GradientStats() map[string]float64 {
	return map[string]float64{"norm": 0.1}
}

type sliceIterator struct {
	n    int
	next int
}

func (it *sliceIterator) Next(ctx context.Context) (Batch, bool, error) {
	if it.next >= it.n {
		return nil, false, nil
	}
	it.next++
	return it.next, true, nil
}

type fakeData struct {
	trainN int
	valN   int
}

func (d *fakeData) TrainBatches(ctx context.Context) BatchIterator { return &sliceIterator{n: d.trainN} }
func (d *fakeData) ValBatches(ctx context.Context) BatchIterator   { return &sliceIterator{n: d.valN} }
func (d *fakeData) TrainBatchCount() int                           { return d.trainN }

type metricSample struct {
	step    int
	metrics map[string]float64
}

type fakeTracker struct {
	id       string
	samples  []metricSample
	hparams  map[string]any
	finished bool
}

func (t *fakeTracker) SessionID() string                  { return t.id }
func (t *fakeTracker) LogHyperparams(hp map[string]any)   { t.hparams = hp }
func (t *fakeTracker) Finish(ctx context.Context) error   { t.finished = true; return nil }
func (t *fakeTracker) LogMetrics(ctx context.Context, step int, metrics map[string]float64) {
	t.samples = append(t.samples, metricSample{step: step, metrics: metrics})
}

func (t *fakeTracker) count(metric string) int {
	n := 0
	for _, s := range t.samples {
		if _, ok := s.metrics[metric]; ok {
			n++
		}
	}
	return n
}

func testModePlan(t *testing.T) plan.ExecutionPlan {
	t.Helper()
	p, err := plan.Select(config.DeviceSpec{N: 1}, true, 0.5)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	return p
}

func TestFitTestModeLimits(t *testing.T) {
	model := &fakeModel{}
	data := &fakeData{trainN: 100, valN: 20}
	tracker := &fakeTracker{id: "t"}

	fc := &FitConfig{
		Plan:      testModePlan(t),
		Policy:    checkpoint.Disabled(),
		Tracker:   tracker,
		ShouldLog: false,
		Log:       logger.NewDefault(),
	}
	if err := fc.Fit(context.Background(), model, data); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// One epoch of ten capped batches, validating every two batches with
	// three validation batches per pass.
	if model.trainSteps != 10 {
		t.Errorf("expected 10 training steps, got %d", model.trainSteps)
	}
	if model.valSteps != 5*3 {
		t.Errorf("expected 15 validation steps, got %d", model.valSteps)
	}
	if model.clips != 10 {
		t.Errorf("expected gradient clipping on every step, got %d", model.clips)
	}
	if got := tracker.count("train_loss"); got != 10 {
		t.Errorf("expected 10 train_loss samples, got %d", got)
	}
	if got := tracker.count("val_loss"); got != 5 {
		t.Errorf("expected 5 val_loss samples, got %d", got)
	}
}

func TestFitFractionalValidationCadence(t *testing.T) {
	model := &fakeModel{}
	data := &fakeData{trainN: 20, valN: 2}
	tracker := &fakeTracker{id: "t"}

	p, err := plan.Select(config.DeviceSpec{N: 1}, false, 0.5)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	p.MaxEpochs = 1

	fc := &FitConfig{
		Plan:    p,
		Policy:  checkpoint.Disabled(),
		Tracker: tracker,
		Log:     logger.NewDefault(),
	}
	if err := fc.Fit(context.Background(), model, data); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// 0.5 of a 20-batch epoch validates every 10 batches.
	if got := tracker.count("val_loss"); got != 2 {
		t.Errorf("expected 2 validation passes, got %d", got)
	}
}

func TestFitGradientWatchFrequency(t *testing.T) {
	model := &fakeModel{}
	data := &fakeData{trainN: 150, valN: 1}
	tracker := &fakeTracker{id: "t"}

	p, err := plan.Select(config.DeviceSpec{N: 1}, false, 200)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	p.MaxEpochs = 1

	fc := &FitConfig{
		Plan:      p,
		Policy:    checkpoint.Disabled(),
		Tracker:   tracker,
		ShouldLog: true,
		Log:       logger.NewDefault(),
	}
	if err := fc.Fit(context.Background(), model, data); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if got := tracker.count("gradients/norm"); got != 1 {
		t.Errorf("expected one gradient sample in 150 batches, got %d", got)
	}
}

func TestFitNoGradientWatchWhenLoggingDisabled(t *testing.T) {
	model := &fakeModel{}
	data := &fakeData{trainN: 150, valN: 1}
	tracker := &fakeTracker{id: "t"}

	p, err := plan.Select(config.DeviceSpec{N: 1}, false, 200)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	p.MaxEpochs = 1

	fc := &FitConfig{
		Plan:    p,
		Policy:  checkpoint.Disabled(),
		Tracker: tracker,
		Log:     logger.NewDefault(),
	}
	if err := fc.Fit(context.Background(), model, data); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if got := tracker.count("gradients/norm"); got != 0 {
		t.Errorf("expected no gradient samples, got %d", got)
	}
}

func TestFitPropagatesRunFailure(t *testing.T) {
	model := &fakeModel{trainErr: errors.New("nan loss")}
	data := &fakeData{trainN: 10, valN: 1}

	fc := &FitConfig{
		Plan:    testModePlan(t),
		Policy:  checkpoint.Disabled(),
		Tracker: &fakeTracker{id: "t"},
		Log:     logger.NewDefault(),
	}
	err := fc.Fit(context.Background(), model, data)
	if err == nil {
		t.Fatal("expected error")
	}
	if !rerrors.Is(err, rerrors.ErrCodeRunFailure) {
		t.Errorf("expected run failure, got %v", err)
	}
}

func TestFitCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := &FitConfig{
		Plan:    testModePlan(t),
		Policy:  checkpoint.Disabled(),
		Tracker: &fakeTracker{id: "t"},
		Log:     logger.NewDefault(),
	}
	err := fc.Fit(ctx, &fakeModel{}, &fakeData{trainN: 10, valN: 1})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
