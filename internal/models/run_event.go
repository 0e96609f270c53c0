package models

import "time"

// Run event types.
const (
	EventStart       = "START"
	EventStepAdvance = "STEP_ADVANCE"
	EventStopping    = "STOPPING"
	EventStopped     = "STOPPED"
	EventCompleted   = "COMPLETED"
	EventError       = "ERROR"
	EventReset       = "RESET"
)

// RunEvent is a single entry in the run history log.
type RunEvent struct {
	EventID     string    `json:"event_id"`
	RunID       string    `json:"run_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STEP_ADVANCE | STOPPING | STOPPED | COMPLETED | ERROR | RESET
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
