package game

import "time"

// Audit log action names. These are wire-stable: they appear verbatim in the
// events table and downstream analysis files.
const (
	ActionStartClick     = "start_click"
	ActionRevealCard     = "reveal_card"
	ActionSignal         = "signal"
	ActionCall           = "call"
	ActionRevealAndScore = "reveal_and_score"
	ActionNextRoundClick = "next_round_click"
	ActionPhaseChange    = "phase_change"
)

// Entry is the canonical audit record produced for every state-changing
// engine action.
type Entry struct {
	RoundIndex int
	Phase      Phase
	Actor      Actor
	Action     string
	Payload    map[string]any
	LoggedAt   time.Time
}

// EventSink receives exactly one call per state-changing engine action. It
// must return the recorded entry, including its timestamp, synchronously.
// The engine does not retry: a sink error propagates out of the engine
// method that triggered the call.
type EventSink interface {
	Log(roundIdx int, phase Phase, actor Actor, action string, payload map[string]any) (Entry, error)
}

// SessionRecord is the flattened per-action row handed to a SessionRecorder,
// carrying enough round context to render an analysis row without reaching
// back into the engine.
type SessionRecord struct {
	Entry  Entry
	Roles  RoleMap
	Plan   RoundPlan
	Winner *Role
	Scores map[Identity]int // nil when stakes are disabled
}

// SessionRecorder is an optional second collaborator fed after every sink
// call, typically a per-session analysis CSV writer.
type SessionRecorder interface {
	Record(rec SessionRecord) error
}
