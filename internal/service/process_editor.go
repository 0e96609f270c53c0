package service

import (
	"context"

	"annealer_control/internal/engine"
	"annealer_control/internal/logger"
	"annealer_control/internal/process"
	"annealer_control/internal/steps"
)

// ProcessEditorService edits the recipe currently attached to the engine.
type ProcessEditorService struct {
	eng *engine.Engine
	log *logger.Logger
}

func NewProcessEditorService(eng *engine.Engine, log *logger.Logger) *ProcessEditorService {
	return &ProcessEditorService{eng: eng, log: log}
}

// Get returns a snapshot of the current process.
func (s *ProcessEditorService) Get(ctx context.Context) ProcessView {
	p := s.eng.Process()
	stepList := p.Steps()
	view := ProcessView{
		Description: p.Description(),
		Path:        p.Path(),
		Status:      string(p.Status()),
		Steps:       make([]StepView, 0, len(stepList)),
	}
	for _, st := range stepList {
		view.Steps = append(view.Steps, StepView{Type: st.Kind(), Params: st.Params()})
	}
	return view
}

// Load reads a process file and swaps it in as the current process.
// A failed load leaves the current process untouched.
func (s *ProcessEditorService) Load(ctx context.Context, path string) error {
	loaded, err := process.Load(path)
	if err != nil {
		return err
	}
	if err := s.eng.SetProcess(loaded); err != nil {
		return err
	}
	s.log.Infow("process loaded", "path", path, "steps", loaded.Len())
	return nil
}

// Save writes the current process to path, or to its stored path when
// path is empty.
func (s *ProcessEditorService) Save(ctx context.Context, path string) error {
	if err := s.eng.Process().Save(path); err != nil {
		return err
	}
	s.log.Infow("process saved", "path", s.eng.Process().Path())
	return nil
}

func (s *ProcessEditorService) SetDescription(ctx context.Context, description string) error {
	s.eng.Process().SetDescription(description)
	return nil
}

// AddStep validates the parameters through the step factory and inserts
// the step. A nil index appends.
func (s *ProcessEditorService) AddStep(ctx context.Context, p StepParams) error {
	step, err := steps.New(p.Type, p.Params)
	if err != nil {
		return err
	}
	index := -1
	if p.Index != nil {
		index = *p.Index
	}
	return s.eng.Process().AddStep(index, step)
}

func (s *ProcessEditorService) MoveStep(ctx context.Context, from, to int) error {
	return s.eng.Process().MoveStep(from, to)
}

func (s *ProcessEditorService) RemoveStep(ctx context.Context, index int) error {
	return s.eng.Process().RemoveStep(index)
}

// StepTypes lists the registered step kinds and their descriptions.
func (s *ProcessEditorService) StepTypes(ctx context.Context) []steps.Descriptor {
	return steps.Descriptors()
}
