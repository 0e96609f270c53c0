// Package process holds the ordered list of steps describing an annealing
// process, its metadata, and its file persistence.
package process

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"annealer_control/internal/faults"
	"annealer_control/internal/steps"
)

// Status is the lifecycle state shared by a process and the engine run
// driving it.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusRunning  Status = "RUNNING"
	StatusStopping Status = "STOPPING"
	StatusStopped  Status = "STOPPED"
	StatusError    Status = "ERROR"
)

// Process is an annealing process: an ordered sequence of steps plus
// metadata. Steps may only be mutated while the process is Idle or Stopped.
type Process struct {
	mu          sync.Mutex
	description string
	path        string
	status      Status
	steps       []steps.Step
}

// New returns an empty process in the Idle state.
func New() *Process {
	return &Process{status: StatusIdle}
}

// Description returns the operator-provided description.
func (p *Process) Description() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.description
}

// SetDescription updates the description; allowed in any state.
func (p *Process) SetDescription(d string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.description = d
}

// Path returns the file location this process was loaded from or saved to.
func (p *Process) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Status returns the current lifecycle state.
func (p *Process) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus transitions the lifecycle state. It is driven by the execution
// engine; editing code never calls it.
func (p *Process) SetStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

// Steps returns a copy of the step sequence in execution order.
func (p *Process) Steps() []steps.Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]steps.Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Len returns the number of steps.
func (p *Process) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.steps)
}

// Step returns the step at index, or nil when out of range.
func (p *Process) Step(index int) steps.Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.steps) {
		return nil
	}
	return p.steps[index]
}

// AddStep inserts a step at the given index; a negative index or one past
// the end appends.
func (p *Process) AddStep(index int, step steps.Step) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.mutable("add step"); err != nil {
		return err
	}
	if index < 0 || index >= len(p.steps) {
		p.steps = append(p.steps, step)
		return nil
	}
	p.steps = append(p.steps[:index], append([]steps.Step{step}, p.steps[index:]...)...)
	return nil
}

// MoveStep moves the step at from to position to.
func (p *Process) MoveStep(from, to int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.mutable("move step"); err != nil {
		return err
	}
	if from < 0 || from >= len(p.steps) {
		return faults.Validationf("from", "index %d out of range [0, %d)", from, len(p.steps))
	}
	if to < 0 || to >= len(p.steps) {
		return faults.Validationf("to", "index %d out of range [0, %d)", to, len(p.steps))
	}
	step := p.steps[from]
	rest := append(p.steps[:from], p.steps[from+1:]...)
	p.steps = append(rest[:to], append([]steps.Step{step}, rest[to:]...)...)
	return nil
}

// RemoveStep deletes the step at index.
func (p *Process) RemoveStep(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.mutable("remove step"); err != nil {
		return err
	}
	if index < 0 || index >= len(p.steps) {
		return faults.Validationf("index", "index %d out of range [0, %d)", index, len(p.steps))
	}
	p.steps = append(p.steps[:index], p.steps[index+1:]...)
	return nil
}

// mutable reports whether the step list may change. Callers hold the mutex.
func (p *Process) mutable(op string) error {
	switch p.status {
	case StatusIdle, StatusStopped:
		return nil
	}
	return &faults.StateError{Op: op, State: string(p.status)}
}

// File layout of a persisted process.
type processFile struct {
	Description string       `json:"description"`
	Steps       []stepRecord `json:"steps"`
}

type stepRecord struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Save serializes the process to path. An empty path falls back to the path
// the process was loaded from; if neither is set this is a ValidationError.
func (p *Process) Save(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if path == "" {
		path = p.path
	}
	if path == "" {
		return faults.Validationf("path", "process has no file location; save with an explicit path first")
	}

	file := processFile{Description: p.description, Steps: make([]stepRecord, 0, len(p.steps))}
	for _, s := range p.steps {
		file.Steps = append(file.Steps, stepRecord{Type: s.Kind(), Params: s.Params()})
	}

	data, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal process: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write process file: %w", err)
	}
	p.path = path
	return nil
}

// Load reads a process from a JSON file. A failed load leaves the caller's
// current process untouched: the result is a fresh value.
func Load(path string) (*Process, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read process file: %w", err)
	}

	var file processFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &faults.FormatError{Detail: "process file " + path, Err: err}
	}

	loaded := make([]steps.Step, 0, len(file.Steps))
	for i, rec := range file.Steps {
		step, err := steps.New(rec.Type, rec.Params)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		loaded = append(loaded, step)
	}

	return &Process{
		description: file.Description,
		path:        path,
		status:      StatusIdle,
		steps:       loaded,
	}, nil
}
