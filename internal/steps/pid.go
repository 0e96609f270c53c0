package steps

// PID is a proportional-integral-derivative regulator with a windup guard
// bounding the integral term after target changes.
type PID struct {
	Target      float64
	P, I, D     float64
	WindupGuard float64

	started   bool
	lastTime  float64
	lastError float64
	errorInt  float64
}

const defaultWindupGuard = 20.0

// NewPID builds a regulator for the given target.
func NewPID(target, p, i, d float64) *PID {
	return &PID{Target: target, P: p, I: i, D: d, WindupGuard: defaultWindupGuard}
}

// Compute returns the new output given the time (seconds) and the measured
// value. The first call yields the proportional term only, since the
// integral and derivative need a time base.
func (pid *PID) Compute(t, value float64) float64 {
	err := pid.Target - value

	if !pid.started {
		pid.started = true
		pid.lastTime = t
		pid.lastError = err
		return pid.P * err
	}

	dt := t - pid.lastTime
	dErr := err - pid.lastError

	pid.errorInt += err * dt
	if pid.errorInt < -pid.WindupGuard {
		pid.errorInt = -pid.WindupGuard
	} else if pid.errorInt > pid.WindupGuard {
		pid.errorInt = pid.WindupGuard
	}

	dTerm := 0.0
	if dt > 0 {
		dTerm = dErr / dt
	}

	pid.lastTime = t
	pid.lastError = err

	return pid.P*err + pid.I*pid.errorInt + pid.D*dTerm
}

// Reset clears the regulator history.
func (pid *PID) Reset() {
	pid.started = false
	pid.lastTime = 0
	pid.lastError = 0
	pid.errorInt = 0
}
