package steps

import (
	"errors"
	"testing"
	"time"

	"annealer_control/internal/faults"
)

func validFastRampParams() map[string]any {
	return map[string]any{
		"target_temperature": 100.0,
		"allowed_error":      1.0,
		"duration":           10.0,
		"on_off_cycles":      2,
		"switch_interval":    0.5,
		"parameter_p":        0.05,
		"parameter_i":        0.01,
		"parameter_d":        0.0,
		"pid_interval":       0.1,
	}
}

func mustFastRamp(t *testing.T, params map[string]any) *FastRamp {
	t.Helper()
	s, err := NewFastRamp(params)
	if err != nil {
		t.Fatalf("NewFastRamp: %v", err)
	}
	return s.(*FastRamp)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected ValidationError, got nil")
	}
	var ve *faults.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestNewFastRamp_RejectsBadParameters(t *testing.T) {
	for name, mutate := range map[string]func(map[string]any){
		"missing target":        func(p map[string]any) { delete(p, "target_temperature") },
		"negative duration":     func(p map[string]any) { p["duration"] = -1.0 },
		"zero duration":         func(p map[string]any) { p["duration"] = 0.0 },
		"negative error":        func(p map[string]any) { p["allowed_error"] = -0.1 },
		"fractional cycles":     func(p map[string]any) { p["on_off_cycles"] = 1.5 },
		"zero switch interval":  func(p map[string]any) { p["switch_interval"] = 0.0 },
		"zero pid interval":     func(p map[string]any) { p["pid_interval"] = 0.0 },
		"non numeric parameter": func(p map[string]any) { p["parameter_p"] = "fast" },
	} {
		params := validFastRampParams()
		mutate(params)
		_, err := NewFastRamp(params)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		assertValidationError(t, err)
	}
}

func TestFastRamp_PrimesRegulatorThenCyclesRelay(t *testing.T) {
	s := mustFastRamp(t, validFastRampParams())

	ctx := Context{Elapsed: 0, Tick: 100 * time.Millisecond}
	out := s.NextOutput(ctx, 25)
	if out.Kind != OutputSwitch || !out.SwitchOn {
		t.Fatalf("expected relay closed first, got %+v", out)
	}

	ctx.Elapsed = 100 * time.Millisecond
	out = s.NextOutput(ctx, 25)
	if out.Kind != OutputSetpoint || out.Setpoint != 1 {
		t.Fatalf("expected full-power setpoint, got %+v", out)
	}

	// First half-cycle: relay on.
	ctx.Elapsed = 200 * time.Millisecond
	out = s.NextOutput(ctx, 26)
	if out.Kind != OutputSwitch || !out.SwitchOn {
		t.Fatalf("expected relay on, got %+v", out)
	}

	// Same half-cycle: nothing new to command.
	ctx.Elapsed = 300 * time.Millisecond
	out = s.NextOutput(ctx, 27)
	if out.Kind != OutputNone {
		t.Fatalf("expected no output mid half-cycle, got %+v", out)
	}

	// Second half-cycle: relay off.
	ctx.Elapsed = 800 * time.Millisecond
	out = s.NextOutput(ctx, 30)
	if out.Kind != OutputSwitch || out.SwitchOn {
		t.Fatalf("expected relay off, got %+v", out)
	}
}

func TestFastRamp_ClosesRelayWithoutCycles(t *testing.T) {
	params := validFastRampParams()
	params["on_off_cycles"] = 0
	s := mustFastRamp(t, params)

	// A heater behind an open relay ignores the regulator, so the relay
	// has to close even when no duty-estimation cycles are configured.
	out := s.NextOutput(Context{Elapsed: 0, Tick: 100 * time.Millisecond}, 25)
	if out.Kind != OutputSwitch || !out.SwitchOn {
		t.Fatalf("expected relay closed first, got %+v", out)
	}
	out = s.NextOutput(Context{Elapsed: 100 * time.Millisecond}, 25)
	if out.Kind != OutputSetpoint || out.Setpoint != 1 {
		t.Fatalf("expected full-power setpoint, got %+v", out)
	}
}

func TestFastRamp_EntersClosedLoopAfterCycles(t *testing.T) {
	params := validFastRampParams()
	params["on_off_cycles"] = 1
	params["switch_interval"] = 0.1
	s := mustFastRamp(t, params)

	tick := 50 * time.Millisecond
	elapsed := time.Duration(0)
	temp := 25.0
	sawClosedLoopSetpoint := false
	for i := 0; i < 20; i++ {
		out := s.NextOutput(Context{Elapsed: elapsed, Tick: tick}, temp)
		if out.Kind == OutputSetpoint && elapsed > 300*time.Millisecond {
			sawClosedLoopSetpoint = true
			if out.Setpoint < 0 || out.Setpoint > 1 {
				t.Fatalf("setpoint out of range: %v", out.Setpoint)
			}
		}
		elapsed += tick
		temp += 0.5
	}
	if !sawClosedLoopSetpoint {
		t.Fatalf("expected PID setpoints after the cycling phase")
	}
}

func TestFastRamp_CompletionRequiresDurationAndConvergence(t *testing.T) {
	s := mustFastRamp(t, validFastRampParams())

	if s.IsComplete(Context{Elapsed: 5 * time.Second, TempC: 100}) {
		t.Fatalf("must not complete before the duration elapses")
	}
	if s.IsComplete(Context{Elapsed: 11 * time.Second, TempC: 90}) {
		t.Fatalf("must not complete outside the allowed error band")
	}
	if !s.IsComplete(Context{Elapsed: 11 * time.Second, TempC: 99.5}) {
		t.Fatalf("expected completion after duration within allowed error")
	}
}

func TestFastRamp_DurationAloneCompletesWithoutErrorBand(t *testing.T) {
	params := validFastRampParams()
	params["allowed_error"] = 0.0
	s := mustFastRamp(t, params)

	if !s.IsComplete(Context{Elapsed: 11 * time.Second, TempC: 40}) {
		t.Fatalf("expected completion on duration alone when no error band is set")
	}
}

func TestFastRamp_EstimateDutyNullsNetSlope(t *testing.T) {
	s := mustFastRamp(t, validFastRampParams())
	s.onRiseC, s.onSpanS = 3.0, 1.0    // +3 C/s with relay on
	s.offFallC, s.offSpanS = -1.0, 1.0 // -1 C/s with relay off

	duty := s.estimateDuty()
	// duty*3 + (1-duty)*(-1) == 0 at duty 0.25
	if duty != 0.25 {
		t.Fatalf("expected duty 0.25, got %v", duty)
	}
}

func TestFastRamp_ResetRestartsThePrePhase(t *testing.T) {
	s := mustFastRamp(t, validFastRampParams())
	s.NextOutput(Context{Elapsed: 0}, 25)
	s.NextOutput(Context{Elapsed: 200 * time.Millisecond}, 26)
	s.Reset()

	out := s.NextOutput(Context{Elapsed: 0}, 25)
	if out.Kind != OutputSwitch || !out.SwitchOn {
		t.Fatalf("expected relay close after reset, got %+v", out)
	}
}
