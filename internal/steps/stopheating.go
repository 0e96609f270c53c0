package steps

// KindStopHeating is the registry name of the stop heating step.
const KindStopHeating = "StopHeating"

// StopHeating opens the heater relay and completes on the next evaluation.
type StopHeating struct {
	evaluated bool
}

// NewStopHeating builds the step; it takes no parameters.
func NewStopHeating(_ map[string]any) (Step, error) {
	return &StopHeating{}, nil
}

func (s *StopHeating) Kind() string { return KindStopHeating }

func (s *StopHeating) Params() map[string]any { return map[string]any{} }

func (s *StopHeating) Reset() { s.evaluated = false }

func (s *StopHeating) NextOutput(Context, float64) ControlOutput {
	s.evaluated = true
	return SwitchOutput(false)
}

func (s *StopHeating) IsComplete(Context) bool { return s.evaluated }
