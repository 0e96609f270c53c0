package steps

import "math"

// KindFastRamp is the registry name of the fast ramp step.
const KindFastRamp = "FastRamp"

// Fast ramp phases.
const (
	framPrime = iota // command full regulator power before cycling
	framCycle        // on/off relay cycles estimating the required duty
	framClose        // closed-loop PID regulation
)

// FastRamp drives the temperature to a target using the maximum output power,
// then hands over to closed-loop PID regulation.
//
// The on/off pre-phase toggles the heater relay every SwitchIntervalS for
// OnOffCycles full cycles, measuring the temperature slope with the relay on
// versus off. The duty fraction that would null the net slope seeds the
// closed-loop output, so the PID starts near the operating point.
type FastRamp struct {
	TargetTempC     float64
	AllowedErrorC   float64
	DurationS       float64
	OnOffCycles     int
	SwitchIntervalS float64
	ParameterP      float64
	ParameterI      float64
	ParameterD      float64
	PIDIntervalS    float64

	phase      int
	primed     bool
	pid        *PID
	baseDuty   float64
	lastPIDAt  float64
	cycleStart float64 // elapsed seconds when cycling began

	lastHalf  int
	prevTempC float64
	prevAtS   float64
	onRiseC   float64
	onSpanS   float64
	offFallC  float64
	offSpanS  float64
}

// NewFastRamp validates the raw parameters and builds the step.
func NewFastRamp(params map[string]any) (Step, error) {
	target, err := floatParam(params, "target_temperature")
	if err != nil {
		return nil, err
	}
	duration, err := floatParam(params, "duration")
	if err != nil {
		return nil, err
	}
	allowed, err := optFloatParam(params, "allowed_error", 0)
	if err != nil {
		return nil, err
	}
	cycles, err := optFloatParam(params, "on_off_cycles", 0)
	if err != nil {
		return nil, err
	}
	switchInterval, err := optFloatParam(params, "switch_interval", 0)
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
	pidInterval, err := optFloatParam(params, "pid_interval", 0.1)
	if err != nil {
		return nil, err
	}

	if duration <= 0 {
		return nil, validationErr("duration", duration, "must be > 0")
	}
	if allowed < 0 {
		return nil, validationErr("allowed_error", allowed, "must be >= 0")
	}
	if cycles < 0 || cycles != math.Trunc(cycles) {
		return nil, validationErr("on_off_cycles", cycles, "must be a non-negative integer")
	}
	if cycles > 0 && switchInterval <= 0 {
		return nil, validationErr("switch_interval", switchInterval, "must be > 0 when on_off_cycles > 0")
	}
	if pidInterval <= 0 {
		return nil, validationErr("pid_interval", pidInterval, "must be > 0")
	}

	s := &FastRamp{
		TargetTempC:     target,
		AllowedErrorC:   allowed,
		DurationS:       duration,
		OnOffCycles:     int(cycles),
		SwitchIntervalS: switchInterval,
		ParameterP:      p,
		ParameterI:      i,
		ParameterD:      d,
		PIDIntervalS:    pidInterval,
	}
	s.Reset()
	return s, nil
}

func (s *FastRamp) Kind() string { return KindFastRamp }

func (s *FastRamp) Params() map[string]any {
	return map[string]any{
		"target_temperature": s.TargetTempC,
		"allowed_error":      s.AllowedErrorC,
		"duration":           s.DurationS,
		"on_off_cycles":      s.OnOffCycles,
		"switch_interval":    s.SwitchIntervalS,
		"parameter_p":        s.ParameterP,
		"parameter_i":        s.ParameterI,
		"parameter_d":        s.ParameterD,
		"pid_interval":       s.PIDIntervalS,
	}
}

func (s *FastRamp) Reset() {
	s.phase = framPrime
	s.primed = false
	s.pid = NewPID(s.TargetTempC, s.ParameterP, s.ParameterI, s.ParameterD)
	s.baseDuty = 0
	s.lastPIDAt = 0
	s.cycleStart = 0
	s.lastHalf = -1
	s.prevTempC = 0
	s.prevAtS = 0
	s.onRiseC, s.onSpanS = 0, 0
	s.offFallC, s.offSpanS = 0, 0
}

func (s *FastRamp) NextOutput(ctx Context, sensedTempC float64) ControlOutput {
	now := ctx.Elapsed.Seconds()

	switch s.phase {
	case framPrime:
		// Close the relay first: a setpoint alone moves no current.
		if !s.primed {
			s.primed = true
			return SwitchOutput(true)
		}
		if s.OnOffCycles == 0 {
			s.enterClosedLoop(now)
			return SetpointOutput(1)
		}
		s.phase = framCycle
		s.cycleStart = now
		s.lastHalf = -1
		s.prevTempC = sensedTempC
		s.prevAtS = now
		return SetpointOutput(1)

	case framCycle:
		half := int((now - s.cycleStart) / s.SwitchIntervalS)
		if half >= 2*s.OnOffCycles {
			s.recordHalf(s.lastHalf, sensedTempC, now)
			s.baseDuty = s.estimateDuty()
			s.enterClosedLoop(now)
			return SwitchOutput(true)
		}
		if half != s.lastHalf {
			s.recordHalf(s.lastHalf, sensedTempC, now)
			s.lastHalf = half
			// even half-cycles heat, odd ones coast
			return SwitchOutput(half%2 == 0)
		}
		return NoOutput()

	default: // framClose
		if now-s.lastPIDAt < s.PIDIntervalS {
			return NoOutput()
		}
		s.lastPIDAt = now
		duty := s.baseDuty + s.pid.Compute(now, sensedTempC)
		return SetpointOutput(clamp01(duty))
	}
}

func (s *FastRamp) IsComplete(ctx Context) bool {
	if ctx.Elapsed.Seconds() < s.DurationS {
		return false
	}
	if s.AllowedErrorC <= 0 {
		return true
	}
	return math.Abs(ctx.TempC-s.TargetTempC) <= s.AllowedErrorC
}

func (s *FastRamp) enterClosedLoop(now float64) {
	s.phase = framClose
	// force a PID update on the next tick
	s.lastPIDAt = now - s.PIDIntervalS
}

// recordHalf accumulates the temperature slope observed over the half-cycle
// that just ended.
func (s *FastRamp) recordHalf(half int, tempC, now float64) {
	if half >= 0 {
		delta := tempC - s.prevTempC
		span := now - s.prevAtS
		if span > 0 {
			if half%2 == 0 {
				s.onRiseC += delta
				s.onSpanS += span
			} else {
				s.offFallC += delta
				s.offSpanS += span
			}
		}
	}
	s.prevTempC = tempC
	s.prevAtS = now
}

// estimateDuty returns the relay duty fraction that would null the net
// temperature slope, from the measured on/off slopes.
func (s *FastRamp) estimateDuty() float64 {
	if s.onSpanS <= 0 || s.offSpanS <= 0 {
		return 0
	}
	slopeOn := s.onRiseC / s.onSpanS
	slopeOff := s.offFallC / s.offSpanS
	if slopeOn <= slopeOff {
		return 0
	}
	return clamp01(-slopeOff / (slopeOn - slopeOff))
}
