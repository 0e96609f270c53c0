// Package steps implements the units of work composing an annealing process.
//
// A step does not block: the engine evaluates it once per tick, asking for
// the next control output given the sensed temperature, and checks whether
// the step has completed.
package steps

import (
	"time"

	"annealer_control/internal/faults"
)

// OutputKind tags a ControlOutput.
type OutputKind int

const (
	// OutputNone means the step has nothing to command this tick.
	OutputNone OutputKind = iota
	// OutputSwitch commands the heater relay on or off.
	OutputSwitch
	// OutputSetpoint commands the heater current regulator, 0..1.
	OutputSetpoint
)

// ControlOutput is the tagged control command produced by a step evaluation.
type ControlOutput struct {
	Kind     OutputKind
	SwitchOn bool
	Setpoint float64
}

// SwitchOutput commands the heater relay.
func SwitchOutput(on bool) ControlOutput {
	return ControlOutput{Kind: OutputSwitch, SwitchOn: on}
}

// SetpointOutput commands the regulator to the given fraction of full power.
func SetpointOutput(v float64) ControlOutput {
	return ControlOutput{Kind: OutputSetpoint, Setpoint: v}
}

// NoOutput leaves the heater as it is.
func NoOutput() ControlOutput { return ControlOutput{Kind: OutputNone} }

// Context carries the per-tick run state a step needs to evaluate itself.
type Context struct {
	// Elapsed is the time since this step became current.
	Elapsed time.Duration
	// Tick is the engine tick interval.
	Tick time.Duration
	// TempC is the last sensed temperature.
	TempC float64
}

// Step is one phase of an annealing process.
type Step interface {
	// Kind returns the registry name of the step type.
	Kind() string
	// Params returns the serializable parameters, keyed as persisted.
	Params() map[string]any
	// Reset clears any run state so the step can be executed again.
	Reset()
	// NextOutput returns the control command for this tick.
	NextOutput(ctx Context, sensedTempC float64) ControlOutput
	// IsComplete reports whether the step has finished.
	IsComplete(ctx Context) bool
}

// clamp01 bounds a regulator setpoint to its physical range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// floatParam extracts a required numeric parameter.
func floatParam(params map[string]any, name string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, faults.Validationf(name, "missing required parameter")
	}
	return asFloat(v, name)
}

// optFloatParam extracts an optional numeric parameter with a default.
func optFloatParam(params map[string]any, name string, def float64) (float64, error) {
	v, ok := params[name]
	if !ok {
		return def, nil
	}
	return asFloat(v, name)
}

// validationErr reports a parameter outside its physical range.
func validationErr(field string, value float64, constraint string) error {
	return faults.Validationf(field, "%g %s", value, constraint)
}

func asFloat(v any, name string) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, faults.Validationf(name, "not a number: %v", v)
}
