package models

import "time"

// Run is one execution of a process from Start to a terminal state.
type Run struct {
	RunID       string    `json:"run_id"`
	ProcessPath string    `json:"process_path,omitempty"`
	Description string    `json:"description,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	FinalStatus string    `json:"final_status,omitempty"` // STOPPED | ERROR while ended; empty while active
}
