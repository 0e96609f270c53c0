package service

import (
	"context"

	"annealer_control/internal/engine"
	"annealer_control/internal/models"
)

// MonitoringService exposes the engine's telemetry read-side.
type MonitoringService struct {
	eng *engine.Engine
}

func NewMonitoringService(eng *engine.Engine) *MonitoringService {
	return &MonitoringService{eng: eng}
}

// Snapshot returns the most recent telemetry sample, or a zero sample
// carrying only the engine status when no run has produced one yet.
func (s *MonitoringService) Snapshot(ctx context.Context) models.Telemetry {
	return s.eng.Snapshot()
}

// Subscribe attaches a live telemetry consumer. The returned cancel
// must be called when the consumer goes away.
func (s *MonitoringService) Subscribe(buffer int) (<-chan models.Telemetry, func()) {
	return s.eng.Subscribe(buffer)
}
