package domain

import "time"

// RunMode selects how a session's orders are executed.
type RunMode string

const (
	RunModeShadow  RunMode = "shadow"
	RunModeTestnet RunMode = "testnet"
)

// RunState is the lifecycle state of a session.
// Pending → Running → {Stopped, Failed}; terminal states are final.
type RunState string

const (
	RunStatePending RunState = "pending"
	RunStateRunning RunState = "running"
	RunStateStopped RunState = "stopped"
	RunStateFailed  RunState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s RunState) Terminal() bool {
	return s == RunStateStopped || s == RunStateFailed
}

// SessionStatus is a consistent snapshot of one session's metadata, served
// read-only from the orchestrator registry.
type SessionStatus struct {
	RunID     string
	Mode      RunMode
	Strategy  string
	Symbol    string
	Timeframe string
	Notes     string
	State     RunState
	StartedAt time.Time
	EndedAt   time.Time // zero until terminal
	LastError string
	Steps     int64
}
