package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"annealer_control/internal/engine"
	"annealer_control/internal/faults"
	"annealer_control/internal/logger"
	"annealer_control/internal/models"
	"annealer_control/internal/process"
	"annealer_control/internal/steps"
)

type fakeRunRepo struct {
	mu       sync.Mutex
	created  []models.Run
	finished map[string]string
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{finished: map[string]string{}}
}

func (f *fakeRunRepo) Create(ctx context.Context, r models.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, r)
	return nil
}

func (f *fakeRunRepo) Finish(ctx context.Context, runID, finalStatus string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished[runID] = finalStatus
	return nil
}

func (f *fakeRunRepo) List(ctx context.Context, limit int) ([]models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Run, len(f.created))
	copy(out, f.created)
	return out, nil
}

func (f *fakeRunRepo) finalStatus(runID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.finished[runID]
	return st, ok
}

func newRunner(t *testing.T, stepKinds ...string) (*RunnerService, *fakeRunRepo, *engine.Engine) {
	t.Helper()
	proc := process.New()
	for _, kind := range stepKinds {
		step, err := steps.New(kind, nil)
		if err != nil {
			t.Fatalf("build step %s: %v", kind, err)
		}
		if err := proc.AddStep(-1, step); err != nil {
			t.Fatalf("add step: %v", err)
		}
	}
	eng := engine.New(proc, &stubControl{tempC: 25}, time.Millisecond, nil, logger.New(logger.ErrorLevel))
	runs := newFakeRunRepo()
	return NewRunnerService(eng, runs, logger.New(logger.ErrorLevel)), runs, eng
}

func TestRunnerService_StartRecordsAndFinishesRun(t *testing.T) {
	svc, runs, eng := newRunner(t, "StopHeating")
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	runID := eng.RunID()
	if runID == "" {
		t.Fatal("no run id after start")
	}

	// StopHeating completes on its first evaluation, so the run ends on
	// its own shortly after.
	deadline := time.After(5 * time.Second)
	for {
		if st, ok := runs.finalStatus(runID); ok {
			if st != string(process.StatusStopped) {
				t.Fatalf("expected STOPPED, got %s", st)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("run row was never finished")
		case <-time.After(time.Millisecond):
		}
	}

	runs.mu.Lock()
	created := len(runs.created)
	runs.mu.Unlock()
	if created != 1 {
		t.Fatalf("expected 1 created run, got %d", created)
	}
}

func TestRunnerService_StartEmptyProcess(t *testing.T) {
	svc, _, _ := newRunner(t)

	var stateErr *faults.StateError
	if err := svc.Start(context.Background()); !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestRunnerService_StopWhenIdle(t *testing.T) {
	svc, _, _ := newRunner(t, "StopHeating")

	var stateErr *faults.StateError
	if err := svc.Stop(context.Background(), false); !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestRunnerService_ResetAfterRun(t *testing.T) {
	svc, _, eng := newRunner(t, "StopHeating")
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	eng.Wait()

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := svc.Status(ctx); got.Status != string(process.StatusIdle) {
		t.Fatalf("expected IDLE after reset, got %s", got.Status)
	}
}

func TestRunnerService_StatusReflectsEngine(t *testing.T) {
	svc, _, _ := newRunner(t, "StopHeating")

	st := svc.Status(context.Background())
	if st.Status != string(process.StatusIdle) {
		t.Fatalf("expected IDLE, got %s", st.Status)
	}
	if st.Error != "" {
		t.Fatalf("unexpected error: %s", st.Error)
	}
}
