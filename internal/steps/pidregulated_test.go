package steps

import (
	"errors"
	"testing"
	"time"

	"annealer_control/internal/faults"
)

func TestNewPIDRegulated_Validation(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
		ok     bool
	}{
		{
			name:   "valid",
			params: map[string]any{"target_temperature": 400.0, "duration": 60.0, "parameter_p": 1.0},
			ok:     true,
		},
		{
			name:   "missing target",
			params: map[string]any{"duration": 60.0},
		},
		{
			name:   "missing duration",
			params: map[string]any{"target_temperature": 400.0},
		},
		{
			name:   "zero duration",
			params: map[string]any{"target_temperature": 400.0, "duration": 0.0},
		},
		{
			name:   "negative interval",
			params: map[string]any{"target_temperature": 400.0, "duration": 60.0, "interval": -1.0},
		},
		{
			name:   "non-numeric param",
			params: map[string]any{"target_temperature": "hot", "duration": 60.0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPIDRegulated(tc.params)
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var valErr *faults.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestPIDRegulated_ClosesRelayThenRegulates(t *testing.T) {
	step, err := NewPIDRegulated(map[string]any{
		"target_temperature": 400.0,
		"parameter_p":        0.01,
		"duration":           60.0,
		"interval":           1.0,
	})
	if err != nil {
		t.Fatalf("NewPIDRegulated: %v", err)
	}

	// First evaluation closes the relay regardless of temperature.
	out := step.NextOutput(Context{Elapsed: 0, TempC: 25}, 25)
	if out.Kind != OutputSwitch || !out.SwitchOn {
		t.Fatalf("expected switch-on first, got %+v", out)
	}

	// Next evaluation is already due for a PID output.
	out = step.NextOutput(Context{Elapsed: 10 * time.Millisecond, TempC: 25}, 25)
	if out.Kind != OutputSetpoint {
		t.Fatalf("expected setpoint, got %+v", out)
	}
	if out.Setpoint <= 0 || out.Setpoint > 1 {
		t.Fatalf("setpoint out of range: %f", out.Setpoint)
	}

	// Within the interval nothing is emitted.
	out = step.NextOutput(Context{Elapsed: 500 * time.Millisecond, TempC: 25}, 25)
	if out.Kind != OutputNone {
		t.Fatalf("expected no output inside interval, got %+v", out)
	}

	// After the interval elapses a new setpoint appears.
	out = step.NextOutput(Context{Elapsed: 1100 * time.Millisecond, TempC: 390}, 390)
	if out.Kind != OutputSetpoint {
		t.Fatalf("expected setpoint after interval, got %+v", out)
	}
}

func TestPIDRegulated_CompletionAndReset(t *testing.T) {
	step, err := NewPIDRegulated(map[string]any{
		"target_temperature": 400.0,
		"duration":           5.0,
	})
	if err != nil {
		t.Fatalf("NewPIDRegulated: %v", err)
	}

	if step.IsComplete(Context{Elapsed: 4 * time.Second}) {
		t.Fatal("complete before duration")
	}
	if !step.IsComplete(Context{Elapsed: 5 * time.Second}) {
		t.Fatal("not complete at duration")
	}

	step.NextOutput(Context{Elapsed: 0}, 25)
	step.Reset()
	out := step.NextOutput(Context{Elapsed: 0}, 25)
	if out.Kind != OutputSwitch {
		t.Fatalf("expected relay close after reset, got %+v", out)
	}
}

func TestStopHeating_OpensRelayOnce(t *testing.T) {
	step, err := NewStopHeating(nil)
	if err != nil {
		t.Fatalf("NewStopHeating: %v", err)
	}
	if step.IsComplete(Context{}) {
		t.Fatal("complete before evaluation")
	}

	out := step.NextOutput(Context{}, 300)
	if out.Kind != OutputSwitch || out.SwitchOn {
		t.Fatalf("expected switch-off, got %+v", out)
	}
	if !step.IsComplete(Context{}) {
		t.Fatal("not complete after evaluation")
	}

	step.Reset()
	if step.IsComplete(Context{}) {
		t.Fatal("reset did not clear completion")
	}
}

func TestRegistry_BuildsKnownKindsOnly(t *testing.T) {
	for _, d := range Descriptors() {
		if d.Kind == "" || d.Description == "" || d.New == nil {
			t.Fatalf("incomplete descriptor: %+v", d)
		}
	}

	step, err := New(KindStopHeating, nil)
	if err != nil {
		t.Fatalf("New(StopHeating): %v", err)
	}
	if step.Kind() != KindStopHeating {
		t.Fatalf("wrong kind: %s", step.Kind())
	}

	_, err = New("Teleport", nil)
	var formatErr *faults.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError for unknown kind, got %v", err)
	}
}
