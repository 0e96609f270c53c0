// Package engine drives a process through its steps against a DAQ control,
// producing telemetry and run events.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"annealer_control/internal/daq"
	"annealer_control/internal/faults"
	"annealer_control/internal/logger"
	"annealer_control/internal/models"
	"annealer_control/internal/process"
	"annealer_control/internal/steps"
)

// EventSink receives run events as the engine transitions. The sqlite event
// repository satisfies it directly.
type EventSink interface {
	Append(ctx context.Context, e models.RunEvent) error
}

// DefaultTick is the evaluation interval used when none is configured.
const DefaultTick = 250 * time.Millisecond

// Engine executes one process at a time. The state machine is single-owner:
// only the tick goroutine mutates the run context, and ticks never overlap.
// Stop requests are observed within one tick interval.
type Engine struct {
	mu   sync.Mutex
	proc *process.Process
	ctrl daq.Control
	tick time.Duration
	sink EventSink
	bus  *Broadcaster
	log  *logger.Logger

	// run context, owned by the tick goroutine between Start and Wait
	runID     string
	stepIndex int
	startAt   time.Time
	stepStart time.Time
	heaterOn  bool
	regSet    float64
	last      models.Telemetry

	stopGraceful bool
	stopForced   bool
	lastErr      error
	cancel       context.CancelFunc
	done         chan struct{}
}

// New builds an engine for the given process and DAQ control. The sink may
// be nil when run history is not recorded (tests).
func New(proc *process.Process, ctrl daq.Control, tick time.Duration, sink EventSink, log *logger.Logger) *Engine {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Engine{
		proc: proc,
		ctrl: ctrl,
		tick: tick,
		sink: sink,
		bus:  NewBroadcaster(),
		log:  log,
	}
}

// Process returns the process currently attached to the engine.
func (e *Engine) Process() *process.Process {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proc
}

// SetProcess replaces the attached process. Illegal while a run is active.
func (e *Engine) SetProcess(p *process.Process) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch st := e.proc.Status(); st {
	case process.StatusRunning, process.StatusStopping:
		return &faults.StateError{Op: "replace process", State: string(st)}
	}
	e.proc = p
	return nil
}

// Status returns the lifecycle state of the attached process.
func (e *Engine) Status() process.Status { return e.Process().Status() }

// Err returns the failure that moved the engine to Error, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// RunID identifies the current (or last) run.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Snapshot returns the most recent telemetry sample.
func (e *Engine) Snapshot() models.Telemetry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last.Timestamp.IsZero() {
		return models.Telemetry{EngineStatus: string(e.proc.Status())}
	}
	return e.last
}

// Subscribe attaches a telemetry consumer.
func (e *Engine) Subscribe(buffer int) (<-chan models.Telemetry, func()) {
	return e.bus.Subscribe(buffer)
}

// Start begins executing the attached process from its first step.
// Valid from Idle or Stopped; an empty process is a StateError.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch st := e.proc.Status(); st {
	case process.StatusIdle, process.StatusStopped:
	default:
		return &faults.StateError{Op: "start", State: string(st)}
	}
	if e.proc.Len() == 0 {
		return &faults.StateError{Op: "start", State: "process has no steps"}
	}

	for _, s := range e.proc.Steps() {
		s.Reset()
	}

	runCtx, cancel := context.WithCancel(ctx)
	now := time.Now()
	e.runID = uuid.NewString()
	e.stepIndex = 0
	e.startAt = now
	e.stepStart = now
	e.heaterOn = false
	e.regSet = 0
	e.stopGraceful = false
	e.stopForced = false
	e.lastErr = nil
	e.cancel = cancel
	e.done = make(chan struct{})

	e.proc.SetStatus(process.StatusRunning)
	e.record(models.EventStart, "process started", map[string]any{
		"steps": e.proc.Len(),
		"path":  e.proc.Path(),
	})
	e.log.Infow("run started", "run_id", e.runID, "steps", e.proc.Len())

	go e.run(runCtx, e.done)
	return nil
}

// Stop requests the end of the current run. A graceful stop lets the engine
// bring the heater to a safe state before Stopped; a forced stop reaches
// Stopped within one tick interval, even from Stopping.
func (e *Engine) Stop(force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch st := e.proc.Status(); st {
	case process.StatusRunning:
		if force {
			e.stopForced = true
		} else {
			e.stopGraceful = true
			e.proc.SetStatus(process.StatusStopping)
			e.record(models.EventStopping, "stop requested", nil)
		}
		return nil
	case process.StatusStopping:
		if force {
			e.stopForced = true
		}
		return nil
	default:
		return &faults.StateError{Op: "stop", State: string(st)}
	}
}

// Reset clears a terminal state back to Idle. Valid from Stopped or Error.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch st := e.proc.Status(); st {
	case process.StatusStopped, process.StatusError:
		e.lastErr = nil
		e.proc.SetStatus(process.StatusIdle)
		e.record(models.EventReset, "engine reset", nil)
		return nil
	default:
		return &faults.StateError{Op: "reset", State: string(st)}
	}
}

// Wait blocks until the current run ends and returns the final status.
func (e *Engine) Wait() process.Status {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
	return e.proc.Status()
}

// run is the tick loop. It is the only goroutine touching the run context.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		e.mu.Lock()
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.mu.Unlock()
	}()

	t := time.NewTicker(e.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown(models.EventStopped, "run context canceled")
			return
		case now := <-t.C:
			if e.tickOnce(now) {
				return
			}
		}
	}
}

// tickOnce performs one evaluation. It returns true when the run has ended.
func (e *Engine) tickOnce(now time.Time) bool {
	e.mu.Lock()
	forced, graceful := e.stopForced, e.stopGraceful
	stepIndex := e.stepIndex
	stepStart := e.stepStart
	proc := e.proc
	e.mu.Unlock()

	if forced {
		e.shutdown(models.EventStopped, "forced stop")
		return true
	}
	if graceful {
		e.shutdown(models.EventStopped, "graceful stop")
		return true
	}

	temp, err := e.ctrl.ReadTemperature()
	if err != nil {
		e.fail(err)
		return true
	}

	step := proc.Step(stepIndex)
	if step == nil {
		e.shutdown(models.EventCompleted, "process completed")
		return true
	}

	sctx := steps.Context{Elapsed: now.Sub(stepStart), Tick: e.tick, TempC: temp}
	out := step.NextOutput(sctx, temp)
	if err := e.apply(out); err != nil {
		e.fail(err)
		return true
	}

	e.publish(now, temp, stepIndex, step.Kind())

	if step.IsComplete(sctx) {
		e.mu.Lock()
		e.stepIndex++
		e.stepStart = now
		next := e.stepIndex
		e.mu.Unlock()

		if next >= proc.Len() {
			e.shutdown(models.EventCompleted, "process completed")
			return true
		}
		e.record(models.EventStepAdvance, "advanced to step "+proc.Step(next).Kind(), map[string]any{
			"step_index": next,
		})
	}
	return false
}

// apply sends a control output to the DAQ and mirrors the commanded state.
func (e *Engine) apply(out steps.ControlOutput) error {
	switch out.Kind {
	case steps.OutputSwitch:
		if err := e.ctrl.SetHeaterSwitch(out.SwitchOn); err != nil {
			return err
		}
		e.mu.Lock()
		e.heaterOn = out.SwitchOn
		e.mu.Unlock()
	case steps.OutputSetpoint:
		if err := e.ctrl.SetHeaterReg(out.Setpoint); err != nil {
			return err
		}
		e.mu.Lock()
		e.regSet = out.Setpoint
		e.mu.Unlock()
	}
	return nil
}

// shutdown brings the heater to a safe state and moves to Stopped.
func (e *Engine) shutdown(event, reason string) {
	// Safe state first; a failure here is logged but does not block the
	// transition, since the run is over either way.
	if err := e.ctrl.SetHeaterReg(0); err != nil {
		e.log.Errorw("heater regulator off failed during shutdown", "err", err)
	}
	if err := e.ctrl.SetHeaterSwitch(false); err != nil {
		e.log.Errorw("heater switch off failed during shutdown", "err", err)
	}

	e.mu.Lock()
	e.heaterOn = false
	e.regSet = 0
	e.mu.Unlock()

	e.proc.SetStatus(process.StatusStopped)
	e.record(event, reason, nil)
	e.publishFinal()
	e.log.Infow("run ended", "run_id", e.RunID(), "reason", reason)
}

// fail moves the engine to Error. No further DAQ commands are issued.
func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()

	e.proc.SetStatus(process.StatusError)
	e.record(models.EventError, err.Error(), nil)
	e.publishFinal()
	e.log.Errorw("run failed", "run_id", e.RunID(), "err", err)
}

func (e *Engine) publish(now time.Time, tempC float64, stepIndex int, stepKind string) {
	e.mu.Lock()
	sample := models.Telemetry{
		Timestamp:    now,
		ElapsedS:     now.Sub(e.startAt).Seconds(),
		TempC:        tempC,
		HeaterOn:     e.heaterOn,
		RegSetpoint:  e.regSet,
		StepIndex:    stepIndex,
		StepKind:     stepKind,
		EngineStatus: string(e.proc.Status()),
	}
	e.last = sample
	e.mu.Unlock()

	e.bus.Publish(sample)
}

// publishFinal pushes one last sample reflecting the terminal status.
func (e *Engine) publishFinal() {
	e.mu.Lock()
	sample := e.last
	sample.Timestamp = time.Now()
	sample.HeaterOn = e.heaterOn
	sample.RegSetpoint = e.regSet
	sample.EngineStatus = string(e.proc.Status())
	e.last = sample
	e.mu.Unlock()

	e.bus.Publish(sample)
}

func (e *Engine) record(eventType, description string, meta map[string]any) {
	if e.sink == nil {
		return
	}
	ev := models.RunEvent{
		EventID:     uuid.NewString(),
		RunID:       e.runID,
		OccurredAt:  time.Now().UTC(),
		Type:        eventType,
		Description: description,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := e.sink.Append(context.Background(), ev); err != nil {
		e.log.Errorw("run event append failed", "type", eventType, "err", err)
	}
}
