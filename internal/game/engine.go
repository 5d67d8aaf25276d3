package game

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// DefaultPointsPerWin is added to the winning identity's score on a decided
// round when stakes are enabled.
const DefaultPointsPerWin = 3

// Config carries the per-session experiment parameters the engine needs.
type Config struct {
	SessionID string
	Block     int
	Condition string

	// Stakes enables the running score; without it the session has no
	// payout and scores are absent from snapshots and payloads.
	Stakes       bool
	StartPoints  int
	PointsPerWin int // defaults to DefaultPointsPerWin when zero
}

// EngineOption configures a GameEngine during construction.
type EngineOption func(*GameEngine)

// WithSessionRecorder attaches the optional per-session analysis
// collaborator, fed after every event sink call.
func WithSessionRecorder(r SessionRecorder) EngineOption {
	return func(e *GameEngine) { e.recorder = r }
}

// GameEngine drives the round state machine: it validates player actions
// against the current phase, mutates the live RoundState, resolves outcomes,
// swaps seat assignments between rounds and reports every state change to
// its event sink.
//
// The engine is invoked synchronously by a single caller and provides no
// locking of its own; concurrent callers must serialize invocations.
type GameEngine struct {
	cfg      Config
	schedule *RoundSchedule
	sink     EventSink
	recorder SessionRecorder
	logger   *log.Logger

	roundIdx int
	current  *RoundState
	scores   map[Identity]int
}

// NewGameEngine creates an engine positioned at round 0 in WAITING_START,
// with identity 1 seated as Player 1. The schedule must be non-empty and the
// sink must not be nil.
func NewGameEngine(cfg Config, schedule *RoundSchedule, sink EventSink, logger *log.Logger, opts ...EngineOption) *GameEngine {
	if schedule == nil || schedule.Len() == 0 {
		panic("schedule must contain at least one round")
	}
	if sink == nil {
		panic("event sink is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.PointsPerWin == 0 {
		cfg.PointsPerWin = DefaultPointsPerWin
	}

	e := &GameEngine{
		cfg:      cfg,
		schedule: schedule,
		sink:     sink,
		logger:   logger,
		current: &RoundState{
			Index: 0,
			Plan:  schedule.Round(0),
			Roles: RoleMap{P1: VP1, P2: VP2},
			Phase: PhaseWaitingStart,
		},
	}
	if cfg.Stakes {
		e.scores = map[Identity]int{VP1: cfg.StartPoints, VP2: cfg.StartPoints}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.warnOutOfRange()
	return e
}

// ClickStart records a seat's readiness for the very first round. Repeated
// clicks from the same seat are ignored. Once both seats are ready the phase
// advances to DEALING.
func (e *GameEngine) ClickStart(role Role) error {
	if err := e.ensure(ActionStartClick, PhaseWaitingStart); err != nil {
		return err
	}
	switch role {
	case RoleP1:
		if e.current.P1Ready {
			return nil
		}
		e.current.P1Ready = true
	case RoleP2:
		if e.current.P2Ready {
			return nil
		}
		e.current.P2Ready = true
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if err := e.logEvent(role.Actor(), ActionStartClick, map[string]any{}); err != nil {
		return err
	}
	if e.current.P1Ready && e.current.P2Ready {
		e.current.Phase = PhaseDealing
		e.logger.Debug("phase change", "round", e.current.Index, "to", PhaseDealing)
		return e.logEvent(ActorSys, ActionPhaseChange, map[string]any{"to": PhaseDealing.String()})
	}
	return nil
}

// ClickRevealCard turns one of the seat's cards face up. Reveals follow a
// fixed global order; the fourth reveal advances the phase to SIGNAL_WAIT.
// The logged value is the card of the identity currently holding the seat.
func (e *GameEngine) ClickRevealCard(role Role, cardIdx int) error {
	if err := e.ensure(ActionRevealCard, PhaseDealing); err != nil {
		return err
	}
	if cardIdx != 0 && cardIdx != 1 {
		return ErrInvalidCardIndex
	}
	nextRole, nextIdx, ok := e.current.Vis.nextReveal()
	if !ok {
		// All four cards already face up; unreachable while still DEALING.
		return &IllegalActionError{Action: ActionRevealCard, Phase: e.current.Phase}
	}
	if role != nextRole || cardIdx != nextIdx {
		return &SequenceViolationError{Role: nextRole, CardIndex: nextIdx}
	}

	e.current.Vis.set(role, cardIdx)
	if _, _, remaining := e.current.Vis.nextReveal(); !remaining {
		e.current.Phase = PhaseSignalWait
		e.logger.Debug("phase change", "round", e.current.Index, "to", PhaseSignalWait)
		if err := e.logEvent(ActorSys, ActionPhaseChange, map[string]any{"to": PhaseSignalWait.String()}); err != nil {
			return err
		}
	}

	identity := e.current.Roles.IdentityOf(role)
	cards := e.current.Plan.CardsOf(identity)
	return e.logEvent(role.Actor(), ActionRevealCard, map[string]any{
		"card_idx": cardIdx,
		"value":    cards[cardIdx],
		"role_vp":  string(identity),
	})
}

// Signal records Player 1's claim about their hand category and advances the
// phase to CALL_WAIT. Callable once per round.
func (e *GameEngine) Signal(level SignalLevel) error {
	if err := e.ensure(ActionSignal, PhaseSignalWait); err != nil {
		return err
	}
	if e.current.Signal != nil {
		return &AlreadySetError{What: "signal"}
	}
	switch level {
	case SignalHigh, SignalMedium, SignalLow:
	default:
		return fmt.Errorf("unknown signal level %q", level)
	}

	lvl := level
	e.current.Signal = &lvl
	if err := e.logEvent(ActorP1, ActionSignal, map[string]any{"level": string(level)}); err != nil {
		return err
	}
	e.current.Phase = PhaseCallWait
	e.logger.Debug("phase change", "round", e.current.Index, "to", PhaseCallWait)
	return e.logEvent(ActorSys, ActionPhaseChange, map[string]any{"to": PhaseCallWait.String()})
}

// MakeCall records Player 2's judgment, resolves the round outcome, awards
// points when stakes are enabled and transitions through REVEAL_SCORE to
// ROUND_DONE, logging each step. Callable once per round.
//
// uiTruth, when non-nil, is the truth value the calling layer displayed to
// the participants; if it contradicts the computed truth the contradiction
// is recorded in the call payload as p1_truth_ui.
func (e *GameEngine) MakeCall(decision Call, uiTruth *bool) error {
	if err := e.ensure(ActionCall, PhaseCallWait); err != nil {
		return err
	}
	if e.current.Call != nil {
		return &AlreadySetError{What: "call"}
	}
	switch decision {
	case CallTruth, CallBluff:
	default:
		return fmt.Errorf("unknown call %q", decision)
	}

	d := decision
	e.current.Call = &d
	winner, reason, truth := e.resolveOutcome(decision)
	e.current.Winner = winner
	e.current.OutcomeReason = reason
	e.updateScores(winner)

	payload := map[string]any{"call": string(decision)}
	if truth != nil {
		payload["p1_truth"] = *truth
		if uiTruth != nil && *uiTruth != *truth {
			payload["p1_truth_ui"] = *uiTruth
		}
	}
	if winner != nil {
		payload["winner"] = string(*winner)
	}
	if e.scores != nil {
		payload["scores"] = map[string]int{string(VP1): e.scores[VP1], string(VP2): e.scores[VP2]}
	}
	if err := e.logEvent(ActorP2, ActionCall, payload); err != nil {
		return err
	}

	vp1 := e.current.Plan.VP1Cards
	vp2 := e.current.Plan.VP2Cards
	var winnerVal any
	if winner != nil {
		winnerVal = string(*winner)
	}
	e.current.Phase = PhaseRevealScore
	e.logger.Debug("round resolved", "round", e.current.Index, "winner", winnerVal, "reason", reason)
	if err := e.logEvent(ActorSys, ActionRevealAndScore, map[string]any{
		"winner":       winnerVal,
		"reason":       reason,
		"vp1_cards":    []int{vp1[0], vp1[1]},
		"vp2_cards":    []int{vp2[0], vp2[1]},
		"vp1_value":    HandValue(vp1[0], vp1[1]),
		"vp2_value":    HandValue(vp2[0], vp2[1]),
		"vp1_category": HandCategoryLabel(vp1[0], vp1[1]),
		"vp2_category": HandCategoryLabel(vp2[0], vp2[1]),
		"roles": map[string]string{
			"P1": string(e.current.Roles.P1),
			"P2": string(e.current.Roles.P2),
		},
	}); err != nil {
		return err
	}

	e.current.Phase = PhaseRoundDone
	return e.logEvent(ActorSys, ActionPhaseChange, map[string]any{"to": PhaseRoundDone.String()})
}

// ClickNextRound records a seat's request to continue. Repeated clicks from
// the same seat are ignored. Once both seats have clicked, the seat
// assignment swaps and the next scheduled round starts directly in DEALING,
// or the session finishes when the schedule is exhausted.
func (e *GameEngine) ClickNextRound(role Role) error {
	if err := e.ensure(ActionNextRoundClick, PhaseRoundDone); err != nil {
		return err
	}
	switch role {
	case RoleP1:
		if e.current.NextReadyP1 {
			return nil
		}
		e.current.NextReadyP1 = true
	case RoleP2:
		if e.current.NextReadyP2 {
			return nil
		}
		e.current.NextReadyP2 = true
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if err := e.logEvent(role.Actor(), ActionNextRoundClick, map[string]any{}); err != nil {
		return err
	}
	if e.current.NextReadyP1 && e.current.NextReadyP2 {
		return e.advanceAndSwapRoles()
	}
	return nil
}

// PublicState returns a read-only projection of the current round plus
// scores. Safe to call in any phase; no side effects.
func (e *GameEngine) PublicState() PublicState {
	rs := e.current
	st := PublicState{
		RoundIndex:    rs.Index,
		Phase:         rs.Phase.String(),
		Roles:         map[Role]Identity{RoleP1: rs.Roles.P1, RoleP2: rs.Roles.P2},
		P1Ready:       rs.P1Ready,
		P2Ready:       rs.P2Ready,
		NextReadyP1:   rs.NextReadyP1,
		NextReadyP2:   rs.NextReadyP2,
		P1Revealed:    rs.Vis.P1Revealed,
		P2Revealed:    rs.Vis.P2Revealed,
		OutcomeReason: rs.OutcomeReason,
		Scores:        e.scoreSnapshot(),
	}
	if rs.Signal != nil {
		v := *rs.Signal
		st.Signal = &v
	}
	if rs.Call != nil {
		v := *rs.Call
		st.Call = &v
	}
	if rs.Winner != nil {
		v := *rs.Winner
		st.Winner = &v
	}
	return st
}

// Finished reports whether the schedule is exhausted and no further actions
// are accepted.
func (e *GameEngine) Finished() bool { return e.current.Phase == PhaseFinished }

func (e *GameEngine) ensure(action string, allowed Phase) error {
	if e.current.Phase != allowed {
		return &IllegalActionError{Action: action, Phase: e.current.Phase}
	}
	return nil
}

func (e *GameEngine) logEvent(actor Actor, action string, payload map[string]any) error {
	entry, err := e.sink.Log(e.current.Index, e.current.Phase, actor, action, payload)
	if err != nil {
		return fmt.Errorf("log %s: %w", action, err)
	}
	if e.recorder != nil {
		rec := SessionRecord{
			Entry:  entry,
			Roles:  e.current.Roles,
			Plan:   e.current.Plan,
			Winner: e.current.Winner,
			Scores: e.scoreSnapshot(),
		}
		if err := e.recorder.Record(rec); err != nil {
			return fmt.Errorf("record %s: %w", action, err)
		}
	}
	return nil
}

func (e *GameEngine) cardsOf(role Role) [2]int {
	return e.current.Plan.CardsOf(e.current.Roles.IdentityOf(role))
}

func (e *GameEngine) scoreSnapshot() map[Identity]int {
	if e.scores == nil {
		return nil
	}
	return map[Identity]int{VP1: e.scores[VP1], VP2: e.scores[VP2]}
}

func (e *GameEngine) updateScores(winner *Role) {
	if e.scores == nil || winner == nil {
		return
	}
	e.scores[e.current.Roles.IdentityOf(*winner)] += e.cfg.PointsPerWin
}

// resolveOutcome adjudicates the round from the true hidden values and the
// accuracy of the signal. truth is nil only when no signal was ever set,
// which correct sequencing makes impossible.
func (e *GameEngine) resolveOutcome(decision Call) (*Role, string, *bool) {
	signal := e.current.Signal
	if signal == nil {
		return nil, "undetermined: no signal was set, outcome cannot be computed", nil
	}

	p1Cards := e.cardsOf(RoleP1)
	p2Cards := e.cardsOf(RoleP2)
	p1Cat, p1HasCat := HandCategory(p1Cards[0], p1Cards[1])
	forcedBluff := !p1HasCat
	truth := p1HasCat && *signal == p1Cat
	p1Val := HandValue(p1Cards[0], p1Cards[1])
	p2Val := HandValue(p2Cards[0], p2Cards[1])

	if decision == CallBluff {
		if truth {
			return rolePtr(RoleP1), "P1 signaled the correct category, P2 expected a bluff -> P1 wins.", &truth
		}
		if forcedBluff {
			return rolePtr(RoleP2), "P1 was forced to bluff (20-22), P2 expected the bluff -> P2 wins.", &truth
		}
		return rolePtr(RoleP2), "P1 bluffed about the category, P2 caught the bluff -> P2 wins.", &truth
	}

	// decision == CallTruth
	if truth {
		switch {
		case p1Val > p2Val:
			return rolePtr(RoleP1),
				fmt.Sprintf("P1 signaled %s (correct), P2 believed it -> %d vs %d -> P1 wins.", p1Cat, p1Val, p2Val),
				&truth
		case p2Val > p1Val:
			return rolePtr(RoleP2),
				fmt.Sprintf("P1 signaled %s (correct), P2 believed it -> %d vs %d -> P2 wins.", p1Cat, p1Val, p2Val),
				&truth
		default:
			return nil,
				fmt.Sprintf("P1 signaled %s (correct), P2 believed it -> %d vs %d -> draw.", p1Cat, p1Val, p2Val),
				&truth
		}
	}
	if forcedBluff {
		return rolePtr(RoleP1), "P1 was forced to bluff (20-22) and P2 believed it -> P1 wins.", &truth
	}
	return rolePtr(RoleP1), "P1 bluffed about the category, P2 believed it -> P1 wins.", &truth
}

func (e *GameEngine) advanceAndSwapRoles() error {
	e.roundIdx++
	if e.roundIdx >= e.schedule.Len() {
		e.current.Phase = PhaseFinished
		e.logger.Info("schedule exhausted", "rounds", e.schedule.Len())
		return e.logEvent(ActorSys, ActionPhaseChange, map[string]any{"to": PhaseFinished.String()})
	}

	roles := e.current.Roles.Swapped()
	e.current = &RoundState{
		Index: e.roundIdx,
		Plan:  e.schedule.Round(e.roundIdx),
		Roles: roles,
		Phase: PhaseDealing, // later rounds skip the start handshake
	}
	e.warnOutOfRange()
	return e.logEvent(ActorSys, ActionPhaseChange, map[string]any{
		"to": PhaseDealing.String(),
		"roles": map[string]string{
			"P1": string(roles.P1),
			"P2": string(roles.P2),
		},
	})
}

// warnOutOfRange flags scheduled hands whose totals fall outside 14-22.
// Categorization tolerates them, but the schedule is probably malformed.
func (e *GameEngine) warnOutOfRange() {
	for _, id := range []Identity{VP1, VP2} {
		cards := e.current.Plan.CardsOf(id)
		if !handTotalInRange(cards[0], cards[1]) {
			e.logger.Warn("hand total outside expected range",
				"round", e.current.Index,
				"identity", id,
				"total", cards[0]+cards[1])
		}
	}
}

func rolePtr(r Role) *Role { return &r }
