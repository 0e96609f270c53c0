package service

import (
	"context"
	"time"

	"annealer_control/internal/engine"
	"annealer_control/internal/logger"
	"annealer_control/internal/models"
	"annealer_control/internal/repository"
)

// RunnerService drives the engine lifecycle and keeps the run history
// table in step with it.
type RunnerService struct {
	eng  *engine.Engine
	runs repository.RunRepo
	log  *logger.Logger
}

func NewRunnerService(eng *engine.Engine, runs repository.RunRepo, log *logger.Logger) *RunnerService {
	return &RunnerService{eng: eng, runs: runs, log: log}
}

// Start launches a run and records it. A follow-up goroutine stamps the
// run row with its terminal status once the engine finishes.
func (s *RunnerService) Start(ctx context.Context) error {
	// The run must outlive the request that started it.
	runCtx := context.WithoutCancel(ctx)
	if err := s.eng.Start(runCtx); err != nil {
		return err
	}

	runID := s.eng.RunID()
	proc := s.eng.Process()
	run := models.Run{
		RunID:       runID,
		ProcessPath: proc.Path(),
		Description: proc.Description(),
		StartedAt:   time.Now().UTC(),
	}
	if err := s.runs.Create(runCtx, run); err != nil {
		s.log.Errorw("record run start", "run_id", runID, "error", err)
	}

	go func() {
		final := s.eng.Wait()
		if err := s.runs.Finish(context.Background(), runID, string(final), time.Now().UTC()); err != nil {
			s.log.Errorw("record run finish", "run_id", runID, "error", err)
		}
	}()
	return nil
}

func (s *RunnerService) Stop(ctx context.Context, force bool) error {
	return s.eng.Stop(force)
}

func (s *RunnerService) Reset(ctx context.Context) error {
	return s.eng.Reset()
}

// Status reports the engine state, the current run and the latest
// telemetry sample.
func (s *RunnerService) Status(ctx context.Context) RunStatus {
	st := RunStatus{
		Status:    string(s.eng.Status()),
		RunID:     s.eng.RunID(),
		Telemetry: s.eng.Snapshot(),
	}
	if err := s.eng.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Runs returns the most recent run rows, newest first.
func (s *RunnerService) Runs(ctx context.Context, limit int) ([]models.Run, error) {
	return s.runs.List(ctx, limit)
}
