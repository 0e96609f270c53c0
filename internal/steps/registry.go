package steps

import "annealer_control/internal/faults"

// Descriptor describes one registered step type: its name, a human-readable
// description surfaced to operators, and the validating factory.
type Descriptor struct {
	Kind        string                             `json:"kind"`
	Description string                             `json:"description"`
	New         func(map[string]any) (Step, error) `json:"-"`
}

var registry = []Descriptor{
	{
		Kind:        KindFastRamp,
		Description: "Ramp to a target temperature at maximum output power, then regulate with a PID. Optional on/off relay cycles estimate the holding duty before the closed loop starts.",
		New:         NewFastRamp,
	},
	{
		Kind:        KindPIDRegulated,
		Description: "Hold a constant target temperature under PID regulation for a fixed duration.",
		New:         NewPIDRegulated,
	},
	{
		Kind:        KindStopHeating,
		Description: "Open the heater relay and stop heating.",
		New:         NewStopHeating,
	},
}

// Descriptors returns the registered step types in declaration order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// New builds a step of the given kind from its raw parameters.
// An unknown kind is a FormatError; bad parameters are ValidationErrors.
func New(kind string, params map[string]any) (Step, error) {
	for _, d := range registry {
		if d.Kind == kind {
			return d.New(params)
		}
	}
	return nil, &faults.FormatError{Detail: "unknown step type " + kind}
}
