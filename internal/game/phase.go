package game

// Phase is the engine's position within a round. Transitions are linear
// inside a round; ROUND_DONE leads either to DEALING of the next round or to
// FINISHED once the schedule is exhausted.
type Phase int

const (
	PhaseWaitingStart Phase = iota // both seats confirm the very first round
	PhaseDealing                   // alternating reveals: P1 card 1, P2 card 1, P1 card 2, P2 card 2
	PhaseSignalWait                // Player 1 claims a strength category
	PhaseCallWait                  // Player 2 judges the claim
	PhaseRevealScore               // both hands open, outcome computed
	PhaseRoundDone                 // waiting for both seats to request the next round
	PhaseFinished                  // terminal, no further actions accepted
)

var phaseNames = map[Phase]string{
	PhaseWaitingStart: "WAITING_START",
	PhaseDealing:      "DEALING",
	PhaseSignalWait:   "SIGNAL_WAIT",
	PhaseCallWait:     "CALL_WAIT",
	PhaseRevealScore:  "REVEAL_SCORE",
	PhaseRoundDone:    "ROUND_DONE",
	PhaseFinished:     "FINISHED",
}

// String returns the phase name as it appears in audit log rows.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// Role is the seat a participant occupies for a single round. Seats swap
// identities every round.
type Role string

const (
	RoleP1 Role = "P1"
	RoleP2 Role = "P2"
)

// Actor returns the audit-log actor label for this seat.
func (r Role) Actor() Actor { return Actor(r) }

// Identity is the fixed participant for the whole session.
type Identity string

const (
	VP1 Identity = "VP1"
	VP2 Identity = "VP2"
)

// SignalLevel is Player 1's public claim about their hand's strength.
type SignalLevel string

const (
	SignalHigh   SignalLevel = "high"
	SignalMedium SignalLevel = "medium"
	SignalLow    SignalLevel = "low"
)

// Call is Player 2's judgment of whether the signal was truthful.
type Call string

const (
	CallTruth Call = "truth"
	CallBluff Call = "bluff"
)

// Actor identifies who performed a logged action: a seat or the engine
// itself.
type Actor string

const (
	ActorP1  Actor = "P1"
	ActorP2  Actor = "P2"
	ActorSys Actor = "SYS"
)
