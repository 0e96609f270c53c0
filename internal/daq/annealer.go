package daq

import "annealer_control/internal/faults"

// Annealer adapts a Device and a thermocouple Calibration into the Control
// surface the engine drives. Every device failure is wrapped as a DaqError;
// calibration RangeErrors pass through untouched.
type Annealer struct {
	dev Device
	cal *Calibration
}

// NewAnnealer wires a device to a calibration table.
func NewAnnealer(dev Device, cal *Calibration) *Annealer {
	return &Annealer{dev: dev, cal: cal}
}

func (a *Annealer) Initialize() error {
	if err := a.dev.Initialize(); err != nil {
		return &faults.DaqError{Op: "initialize", Err: err}
	}
	return nil
}

func (a *Annealer) Finalize() error {
	if err := a.dev.Finalize(); err != nil {
		return &faults.DaqError{Op: "finalize", Err: err}
	}
	return nil
}

func (a *Annealer) ReadTemperature() (float64, error) {
	mv, err := a.dev.ReadVoltageMV()
	if err != nil {
		return 0, &faults.DaqError{Op: "read temperature", Err: err}
	}
	return a.cal.Convert(mv)
}

func (a *Annealer) HeaterSwitch() (bool, error) {
	on, err := a.dev.HeaterSwitch()
	if err != nil {
		return false, &faults.DaqError{Op: "read heater switch", Err: err}
	}
	return on, nil
}

func (a *Annealer) SetHeaterSwitch(on bool) error {
	if err := a.dev.SetHeaterSwitch(on); err != nil {
		return &faults.DaqError{Op: "set heater switch", Err: err}
	}
	return nil
}

func (a *Annealer) HeaterReg() (float64, error) {
	v, err := a.dev.HeaterReg()
	if err != nil {
		return 0, &faults.DaqError{Op: "read heater regulator", Err: err}
	}
	return v, nil
}

func (a *Annealer) SetHeaterReg(value float64) error {
	if err := a.dev.SetHeaterReg(value); err != nil {
		return &faults.DaqError{Op: "set heater regulator", Err: err}
	}
	return nil
}
