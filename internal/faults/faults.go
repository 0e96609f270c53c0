// Package faults defines the error taxonomy shared by the process, step,
// engine and DAQ layers. Callers match with errors.As / errors.Is.
package faults

import "fmt"

// ValidationError reports a step or process parameter that is missing or
// outside its physical range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StateError reports an operation that is illegal in the current
// process/engine state. The state is left unchanged.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state: cannot %s while %s", e.Op, e.State)
}

// FormatError reports a malformed persisted file or an unknown step type.
type FormatError struct {
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format: %s: %v", e.Detail, e.Err)
	}
	return "format: " + e.Detail
}

func (e *FormatError) Unwrap() error { return e.Err }

// RangeError reports a thermocouple voltage outside the calibration coverage.
type RangeError struct {
	VoltageMV float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range: voltage %.4f mV outside calibration coverage", e.VoltageMV)
}

// DaqError reports a hardware I/O failure. It is fatal to a run.
type DaqError struct {
	Op  string
	Err error
}

func (e *DaqError) Error() string {
	return fmt.Sprintf("daq: %s: %v", e.Op, e.Err)
}

func (e *DaqError) Unwrap() error { return e.Err }
