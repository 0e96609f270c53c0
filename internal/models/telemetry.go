package models

import "time"

// Telemetry is one tick of engine observation: what was sensed and what was
// commanded. Published to subscribers (websocket stream, tests).
type Telemetry struct {
	Timestamp    time.Time `json:"timestamp"`
	ElapsedS     float64   `json:"elapsed_s"`
	TempC        float64   `json:"temp_c"`
	HeaterOn     bool      `json:"heater_on"`
	RegSetpoint  float64   `json:"reg_setpoint"` // 0..1
	StepIndex    int       `json:"step_index"`
	StepKind     string    `json:"step_kind,omitempty"`
	EngineStatus string    `json:"engine_status"`
}
