// Package daq is the data-acquisition surface of the annealer: temperature
// sensing, the heater relay, and the heater current regulator.
package daq

// Control is the hardware surface the execution engine drives. Connection
// lifecycle (Initialize/Finalize) is owned by whoever constructs the Control;
// the engine only reads and commands channels.
type Control interface {
	Initialize() error
	Finalize() error

	// ReadTemperature returns the sensed temperature in Celsius.
	ReadTemperature() (float64, error)

	// HeaterSwitch is the relay gating the heater supply.
	HeaterSwitch() (bool, error)
	SetHeaterSwitch(on bool) error

	// HeaterReg is the regulated fraction of full heater power, 0..1.
	HeaterReg() (float64, error)
	SetHeaterReg(value float64) error
}

// Device is a lower-level board: it reads the raw thermocouple voltage in
// millivolts and drives the output channels. Annealer adapts a Device plus a
// thermocouple Calibration into a Control.
type Device interface {
	Initialize() error
	Finalize() error

	ReadVoltageMV() (float64, error)

	HeaterSwitch() (bool, error)
	SetHeaterSwitch(on bool) error

	HeaterReg() (float64, error)
	SetHeaterReg(value float64) error
}
