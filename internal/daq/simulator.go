package daq

import (
	"errors"
	"sync"
	"time"
)

// Thermal behavior of the simulated annealer.
const (
	DefaultAmbientC      = 25.0   // resting temperature
	DefaultHeatRateCPerS = 3.0    // heating rate at full power
	DefaultCoolRateCPerS = 0.5    // cooling drift toward ambient
	simMVPerC            = 0.0404 // approximate type K thermocouple response
)

// Simulator is an in-memory Device with simple furnace physics: the heater
// raises the temperature proportionally to the regulated power while the
// relay is closed, and the furnace drifts back toward ambient otherwise.
// Temperature advances with wall time on each read.
type Simulator struct {
	mu sync.Mutex

	AmbientC      float64
	HeatRateCPerS float64
	CoolRateCPerS float64

	tempC       float64
	switchOn    bool
	reg         float64
	initialized bool
	lastAt      time.Time
	now         func() time.Time
}

// NewSimulator builds a simulator resting at ambient temperature.
func NewSimulator(ambientC, heatRate, coolRate float64) *Simulator {
	return &Simulator{
		AmbientC:      ambientC,
		HeatRateCPerS: heatRate,
		CoolRateCPerS: coolRate,
		tempC:         ambientC,
		now:           time.Now,
	}
}

var errNotInitialized = errors.New("simulator not initialized")

func (s *Simulator) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.lastAt = s.now()
	return nil
}

func (s *Simulator) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	s.switchOn = false
	s.reg = 0
	return nil
}

// ReadVoltageMV advances the physics and returns the thermocouple voltage.
func (s *Simulator) ReadVoltageMV() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, errNotInitialized
	}
	s.advance()
	return s.tempC * simMVPerC, nil
}

// TempC reports the current simulated temperature, for tests.
func (s *Simulator) TempC() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return s.tempC
}

func (s *Simulator) HeaterSwitch() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return false, errNotInitialized
	}
	return s.switchOn, nil
}

func (s *Simulator) SetHeaterSwitch(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	s.advance()
	s.switchOn = on
	return nil
}

func (s *Simulator) HeaterReg() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, errNotInitialized
	}
	return s.reg, nil
}

func (s *Simulator) SetHeaterReg(value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	s.advance()
	s.reg = value
	return nil
}

// advance integrates the thermal model over the wall time elapsed since the
// last update. Callers hold the mutex.
func (s *Simulator) advance() {
	now := s.now()
	if s.lastAt.IsZero() {
		s.lastAt = now
		return
	}
	elapsed := now.Sub(s.lastAt).Seconds()
	s.lastAt = now
	if elapsed <= 0 {
		return
	}

	if s.switchOn && s.reg > 0 {
		s.tempC += s.reg * s.HeatRateCPerS * elapsed
		return
	}
	if s.tempC > s.AmbientC {
		s.tempC -= s.CoolRateCPerS * elapsed
		if s.tempC < s.AmbientC {
			s.tempC = s.AmbientC
		}
	}
}
