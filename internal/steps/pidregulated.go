package steps

// KindPIDRegulated is the registry name of the constant temperature step.
const KindPIDRegulated = "PIDRegulated"

// PIDRegulated holds a constant temperature under PID regulation for a fixed
// duration, including any initial settling time.
type PIDRegulated struct {
	TargetTempC float64
	ParameterP  float64
	ParameterI  float64
	ParameterD  float64
	DurationS   float64
	IntervalS   float64

	pid       *PID
	started   bool
	lastPIDAt float64
}

// NewPIDRegulated validates the raw parameters and builds the step.
func NewPIDRegulated(params map[string]any) (Step, error) {
	target, err := floatParam(params, "target_temperature")
	if err != nil {
		return nil, err
	}
	duration, err := floatParam(params, "duration")
	if err != nil {
		return nil, err
	}
	p, err := optFloatParam(params, "parameter_p", 0)
	if err != nil {
		return nil, err
	}
	i, err := optFloatParam(params, "parameter_i", 0)
	if err != nil {
		return nil, err
	}
	d, err := optFloatParam(params, "parameter_d", 0)
	if err != nil {
		return nil, err
	}
	interval, err := optFloatParam(params, "interval", 0.1)
	if err != nil {
		return nil, err
	}

	if duration <= 0 {
		return nil, validationErr("duration", duration, "must be > 0")
	}
	if interval <= 0 {
		return nil, validationErr("interval", interval, "must be > 0")
	}

	s := &PIDRegulated{
		TargetTempC: target,
		ParameterP:  p,
		ParameterI:  i,
		ParameterD:  d,
		DurationS:   duration,
		IntervalS:   interval,
	}
	s.Reset()
	return s, nil
}

func (s *PIDRegulated) Kind() string { return KindPIDRegulated }

func (s *PIDRegulated) Params() map[string]any {
	return map[string]any{
		"target_temperature": s.TargetTempC,
		"parameter_p":        s.ParameterP,
		"parameter_i":        s.ParameterI,
		"parameter_d":        s.ParameterD,
		"duration":           s.DurationS,
		"interval":           s.IntervalS,
	}
}

func (s *PIDRegulated) Reset() {
	s.pid = NewPID(s.TargetTempC, s.ParameterP, s.ParameterI, s.ParameterD)
	s.started = false
	s.lastPIDAt = 0
}

func (s *PIDRegulated) NextOutput(ctx Context, sensedTempC float64) ControlOutput {
	now := ctx.Elapsed.Seconds()

	// The relay must be closed before the regulator can act.
	if !s.started {
		s.started = true
		s.lastPIDAt = now - s.IntervalS
		return SwitchOutput(true)
	}
	if now-s.lastPIDAt < s.IntervalS {
		return NoOutput()
	}
	s.lastPIDAt = now
	return SetpointOutput(clamp01(s.pid.Compute(now, sensedTempC)))
}

func (s *PIDRegulated) IsComplete(ctx Context) bool {
	return ctx.Elapsed.Seconds() >= s.DurationS
}
