package service

import (
	"context"
	"time"

	"annealer_control/internal/engine"
	"annealer_control/internal/logger"
	"annealer_control/internal/models"
	"annealer_control/internal/repository"
	"annealer_control/internal/steps"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// ProcessEditor mutates the current process recipe. Edits are rejected
// while a run is active.
type ProcessEditor interface {
	Get(ctx context.Context) ProcessView
	Load(ctx context.Context, path string) error
	Save(ctx context.Context, path string) error
	SetDescription(ctx context.Context, description string) error
	AddStep(ctx context.Context, p StepParams) error
	MoveStep(ctx context.Context, from, to int) error
	RemoveStep(ctx context.Context, index int) error
	StepTypes(ctx context.Context) []steps.Descriptor
}

// Runner exposes run lifecycle control: start/stop/reset plus run history.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context, force bool) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) RunStatus
	Runs(ctx context.Context, limit int) ([]models.Run, error)
}

// Monitoring exposes read-only telemetry: the latest sample and a live feed.
type Monitoring interface {
	Snapshot(ctx context.Context) models.Telemetry
	Subscribe(buffer int) (<-chan models.Telemetry, func())
}

// EventLog exposes the append-only run event log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.RunEvent, error)
}

// StepParams describes one step to insert: type name plus its raw
// parameter map, validated by the step factory.
type StepParams struct {
	Index  *int           `json:"index,omitempty"` // nil appends
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// StepView is one step as shown to clients.
type StepView struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// ProcessView is the current recipe as shown to clients.
type ProcessView struct {
	Description string     `json:"description"`
	Path        string     `json:"path,omitempty"`
	Status      string     `json:"status"`
	Steps       []StepView `json:"steps"`
}

// RunStatus is the engine state as shown to clients.
type RunStatus struct {
	Status    string           `json:"status"`
	RunID     string           `json:"run_id,omitempty"`
	Error     string           `json:"error,omitempty"`
	Telemetry models.Telemetry `json:"telemetry"`
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STEP_ADVANCE", "STOPPING", "STOPPED", "COMPLETED", "ERROR", "RESET"
}

type Service struct {
	ProcessEditor
	Runner
	Monitoring
	EventLog
	Authorization
}

// NewService wires the repository layer and the execution engine into
// concrete services.
func NewService(repos *repository.Repository, eng *engine.Engine, log *logger.Logger) *Service {
	return &Service{
		ProcessEditor: NewProcessEditorService(eng, log),
		Runner:        NewRunnerService(eng, repos.Runs, log),
		Monitoring:    NewMonitoringService(eng),
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Auth),
	}
}
