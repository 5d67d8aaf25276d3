package game

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySink captures every audit entry for assertions.
type memorySink struct {
	entries []Entry
}

func (m *memorySink) Log(roundIdx int, phase Phase, actor Actor, action string, payload map[string]any) (Entry, error) {
	e := Entry{
		RoundIndex: roundIdx,
		Phase:      phase,
		Actor:      actor,
		Action:     action,
		Payload:    payload,
		LoggedAt:   time.Now().UTC(),
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memorySink) actions() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

func (m *memorySink) count(action string) int {
	n := 0
	for _, e := range m.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestEngine(t *testing.T, cfg Config, plans ...RoundPlan) (*GameEngine, *memorySink) {
	t.Helper()
	sched, err := NewRoundSchedule(plans...)
	require.NoError(t, err)
	sink := &memorySink{}
	return NewGameEngine(cfg, sched, sink, testLogger()), sink
}

func startRound(t *testing.T, e *GameEngine) {
	t.Helper()
	require.NoError(t, e.ClickStart(RoleP1))
	require.NoError(t, e.ClickStart(RoleP2))
}

func revealAll(t *testing.T, e *GameEngine) {
	t.Helper()
	require.NoError(t, e.ClickRevealCard(RoleP1, 0))
	require.NoError(t, e.ClickRevealCard(RoleP2, 0))
	require.NoError(t, e.ClickRevealCard(RoleP1, 1))
	require.NoError(t, e.ClickRevealCard(RoleP2, 1))
}

func finishRound(t *testing.T, e *GameEngine) {
	t.Helper()
	require.NoError(t, e.ClickNextRound(RoleP1))
	require.NoError(t, e.ClickNextRound(RoleP2))
}

var twoRounds = []RoundPlan{
	{VP1Cards: [2]int{9, 10}, VP2Cards: [2]int{7, 8}},
	{VP1Cards: [2]int{8, 8}, VP2Cards: [2]int{10, 9}},
}

func TestStartHandshake(t *testing.T) {
	e, sink := newTestEngine(t, Config{}, twoRounds...)

	assert.Equal(t, PhaseWaitingStart.String(), e.PublicState().Phase)

	require.NoError(t, e.ClickStart(RoleP1))
	assert.Equal(t, PhaseWaitingStart.String(), e.PublicState().Phase)

	require.NoError(t, e.ClickStart(RoleP2))
	assert.Equal(t, PhaseDealing.String(), e.PublicState().Phase)

	assert.Equal(t, []string{ActionStartClick, ActionStartClick, ActionPhaseChange}, sink.actions())
}

func TestStartIdempotentPerRole(t *testing.T) {
	e, sink := newTestEngine(t, Config{}, twoRounds...)

	require.NoError(t, e.ClickStart(RoleP1))
	require.NoError(t, e.ClickStart(RoleP1)) // ignored, no second log entry
	assert.Equal(t, 1, sink.count(ActionStartClick))
	assert.Equal(t, PhaseWaitingStart.String(), e.PublicState().Phase)

	require.NoError(t, e.ClickStart(RoleP2))
	assert.Equal(t, 1, sink.count(ActionPhaseChange))
}

func TestRevealOrderEnforced(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)

	err := e.ClickRevealCard(RoleP2, 0)
	var seqErr *SequenceViolationError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, RoleP1, seqErr.Role)
	assert.Equal(t, 0, seqErr.CardIndex)

	require.NoError(t, e.ClickRevealCard(RoleP1, 0))
	err = e.ClickRevealCard(RoleP1, 1)
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, RoleP2, seqErr.Role)
	assert.Equal(t, 0, seqErr.CardIndex)

	require.NoError(t, e.ClickRevealCard(RoleP2, 0))
	require.NoError(t, e.ClickRevealCard(RoleP1, 1))
	require.NoError(t, e.ClickRevealCard(RoleP2, 1))
	assert.Equal(t, PhaseSignalWait.String(), e.PublicState().Phase)
}

func TestRevealInvalidCardIndex(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)

	assert.True(t, errors.Is(e.ClickRevealCard(RoleP1, 2), ErrInvalidCardIndex))
	assert.True(t, errors.Is(e.ClickRevealCard(RoleP1, -1), ErrInvalidCardIndex))
}

func TestRevealLogsIdentityValue(t *testing.T) {
	e, sink := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	require.NoError(t, e.ClickRevealCard(RoleP1, 0))

	entry := sink.entries[len(sink.entries)-1]
	assert.Equal(t, ActionRevealCard, entry.Action)
	assert.Equal(t, 9, entry.Payload["value"]) // VP1 holds seat 1 in round 0
	assert.Equal(t, "VP1", entry.Payload["role_vp"])
}

func TestActionsRejectedOutsidePhase(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)

	var illegal *IllegalActionError
	err := e.Signal(SignalHigh)
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, PhaseWaitingStart, illegal.Phase)
	assert.Equal(t, ActionSignal, illegal.Action)

	require.ErrorAs(t, e.MakeCall(CallTruth, nil), &illegal)
	require.ErrorAs(t, e.ClickRevealCard(RoleP1, 0), &illegal)
	require.ErrorAs(t, e.ClickNextRound(RoleP1), &illegal)
}

func TestSignalOncePerRound(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)

	require.NoError(t, e.Signal(SignalHigh))
	assert.Equal(t, PhaseCallWait.String(), e.PublicState().Phase)

	// CALL_WAIT rejects a second signal by phase already; the duplicate
	// guard is what callers see when racing within SIGNAL_WAIT.
	var illegal *IllegalActionError
	require.ErrorAs(t, e.Signal(SignalLow), &illegal)
}

func TestTruthfulHighBelievedOutcome(t *testing.T) {
	e, _ := newTestEngine(t, Config{Stakes: true}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh)) // 9+10=19, truthful
	require.NoError(t, e.MakeCall(CallTruth, nil))

	st := e.PublicState()
	require.NotNil(t, st.Winner)
	assert.Equal(t, RoleP1, *st.Winner)
	assert.Contains(t, st.OutcomeReason, "19 vs 15")
	assert.Equal(t, 3, st.Scores[VP1])
	assert.Equal(t, 0, st.Scores[VP2])
	assert.Equal(t, PhaseRoundDone.String(), st.Phase)
}

func TestHonestSignalCalledBluff(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh))
	require.NoError(t, e.MakeCall(CallBluff, nil))

	st := e.PublicState()
	require.NotNil(t, st.Winner)
	assert.Equal(t, RoleP1, *st.Winner)
	assert.Contains(t, st.OutcomeReason, "expected a bluff")
}

func TestLieCaught(t *testing.T) {
	e, _ := newTestEngine(t, Config{},
		RoundPlan{VP1Cards: [2]int{7, 8}, VP2Cards: [2]int{9, 9}}) // 15, low
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh)) // lie
	require.NoError(t, e.MakeCall(CallBluff, nil))

	st := e.PublicState()
	require.NotNil(t, st.Winner)
	assert.Equal(t, RoleP2, *st.Winner)
	assert.Contains(t, st.OutcomeReason, "caught the bluff")
}

func TestLieBelieved(t *testing.T) {
	e, _ := newTestEngine(t, Config{},
		RoundPlan{VP1Cards: [2]int{7, 8}, VP2Cards: [2]int{9, 9}})
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh)) // lie
	require.NoError(t, e.MakeCall(CallTruth, nil))

	st := e.PublicState()
	require.NotNil(t, st.Winner)
	assert.Equal(t, RoleP1, *st.Winner)
}

func TestForcedBluffExpected(t *testing.T) {
	e, _ := newTestEngine(t, Config{Stakes: true},
		RoundPlan{VP1Cards: [2]int{10, 11}, VP2Cards: [2]int{7, 8}}) // 21, no category
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalMedium)) // any signal is necessarily false
	require.NoError(t, e.MakeCall(CallBluff, nil))

	st := e.PublicState()
	require.NotNil(t, st.Winner)
	assert.Equal(t, RoleP2, *st.Winner)
	assert.Contains(t, st.OutcomeReason, "forced to bluff")
	assert.Equal(t, 0, st.Scores[VP1])
	assert.Equal(t, 3, st.Scores[VP2])
}

func TestForcedBluffBelieved(t *testing.T) {
	e, _ := newTestEngine(t, Config{},
		RoundPlan{VP1Cards: [2]int{10, 11}, VP2Cards: [2]int{7, 8}})
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalMedium))
	require.NoError(t, e.MakeCall(CallTruth, nil))

	st := e.PublicState()
	require.NotNil(t, st.Winner)
	assert.Equal(t, RoleP1, *st.Winner)
	assert.Contains(t, st.OutcomeReason, "forced to bluff")
}

func TestDrawLeavesScoresUntouched(t *testing.T) {
	e, _ := newTestEngine(t, Config{Stakes: true},
		RoundPlan{VP1Cards: [2]int{9, 9}, VP2Cards: [2]int{10, 8}}) // 18 vs 18
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalMedium)) // truthful
	require.NoError(t, e.MakeCall(CallTruth, nil))

	st := e.PublicState()
	assert.Nil(t, st.Winner)
	assert.Contains(t, st.OutcomeReason, "draw")
	assert.Equal(t, 0, st.Scores[VP1])
	assert.Equal(t, 0, st.Scores[VP2])
}

func TestCallOncePerRound(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh))
	require.NoError(t, e.MakeCall(CallTruth, nil))

	var illegal *IllegalActionError
	require.ErrorAs(t, e.MakeCall(CallBluff, nil), &illegal)
	assert.Equal(t, PhaseRoundDone, illegal.Phase)
}

func TestCallPayloadRecordsUIContradiction(t *testing.T) {
	e, sink := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh)) // truthful

	uiSaysLie := false
	require.NoError(t, e.MakeCall(CallTruth, &uiSaysLie))

	var callEntry *Entry
	for i := range sink.entries {
		if sink.entries[i].Action == ActionCall {
			callEntry = &sink.entries[i]
		}
	}
	require.NotNil(t, callEntry)
	assert.Equal(t, true, callEntry.Payload["p1_truth"])
	assert.Equal(t, false, callEntry.Payload["p1_truth_ui"])
}

func TestRoleSwapBetweenRounds(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)

	st := e.PublicState()
	assert.Equal(t, VP1, st.Roles[RoleP1])
	assert.Equal(t, VP2, st.Roles[RoleP2])

	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh))
	require.NoError(t, e.MakeCall(CallTruth, nil))
	finishRound(t, e)

	st = e.PublicState()
	assert.Equal(t, 1, st.RoundIndex)
	assert.Equal(t, PhaseDealing.String(), st.Phase) // no restart handshake
	assert.Equal(t, VP2, st.Roles[RoleP1])
	assert.Equal(t, VP1, st.Roles[RoleP2])
}

func TestNextRoundIdempotentPerRole(t *testing.T) {
	e, sink := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh))
	require.NoError(t, e.MakeCall(CallTruth, nil))

	require.NoError(t, e.ClickNextRound(RoleP1))
	require.NoError(t, e.ClickNextRound(RoleP1)) // ignored
	assert.Equal(t, 1, sink.count(ActionNextRoundClick))
	assert.Equal(t, PhaseRoundDone.String(), e.PublicState().Phase)

	require.NoError(t, e.ClickNextRound(RoleP2))
	assert.Equal(t, PhaseDealing.String(), e.PublicState().Phase)
}

func TestScheduleExhaustionFinishes(t *testing.T) {
	e, _ := newTestEngine(t, Config{},
		RoundPlan{VP1Cards: [2]int{9, 10}, VP2Cards: [2]int{7, 8}})
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh))
	require.NoError(t, e.MakeCall(CallTruth, nil))
	finishRound(t, e)

	assert.True(t, e.Finished())
	assert.Equal(t, PhaseFinished.String(), e.PublicState().Phase)

	var illegal *IllegalActionError
	require.ErrorAs(t, e.ClickStart(RoleP1), &illegal)
	require.ErrorAs(t, e.ClickNextRound(RoleP1), &illegal)
}

func TestFullRoundEventSequence(t *testing.T) {
	e, sink := newTestEngine(t, Config{}, twoRounds...)
	startRound(t, e)
	revealAll(t, e)
	require.NoError(t, e.Signal(SignalHigh))
	require.NoError(t, e.MakeCall(CallTruth, nil))
	finishRound(t, e)

	assert.Equal(t, []string{
		ActionStartClick,     // P1
		ActionStartClick,     // P2
		ActionPhaseChange,    // -> DEALING
		ActionRevealCard,     // P1 card 0
		ActionRevealCard,     // P2 card 0
		ActionRevealCard,     // P1 card 1
		ActionPhaseChange,    // -> SIGNAL_WAIT, logged before the 4th reveal
		ActionRevealCard,     // P2 card 1
		ActionSignal,         // P1
		ActionPhaseChange,    // -> CALL_WAIT
		ActionCall,           // P2
		ActionRevealAndScore, // SYS, logged at REVEAL_SCORE
		ActionPhaseChange,    // -> ROUND_DONE
		ActionNextRoundClick, // P1
		ActionNextRoundClick, // P2
		ActionPhaseChange,    // -> DEALING of round 1
	}, sink.actions())

	// The reveal/score event is stamped with the REVEAL_SCORE phase and the
	// final advance carries the new round's index.
	assert.Equal(t, PhaseRevealScore, sink.entries[11].Phase)
	last := sink.entries[len(sink.entries)-1]
	assert.Equal(t, 1, last.RoundIndex)
	assert.Equal(t, map[string]string{"P1": "VP2", "P2": "VP1"}, last.Payload["roles"])
}

func TestSessionRecorderReceivesRows(t *testing.T) {
	sched, err := NewRoundSchedule(twoRounds...)
	require.NoError(t, err)
	sink := &memorySink{}
	var records []SessionRecord
	e := NewGameEngine(Config{Stakes: true}, sched, sink, testLogger(),
		WithSessionRecorder(recorderFunc(func(rec SessionRecord) error {
			records = append(records, rec)
			return nil
		})))

	startRound(t, e)
	require.Len(t, records, 3)
	assert.Equal(t, ActorP1, records[0].Entry.Actor)
	assert.NotNil(t, records[0].Scores)
}

type recorderFunc func(SessionRecord) error

func (f recorderFunc) Record(rec SessionRecord) error { return f(rec) }

func TestPublicStateHasNoSideEffects(t *testing.T) {
	e, sink := newTestEngine(t, Config{Stakes: true}, twoRounds...)
	before := len(sink.entries)

	st := e.PublicState()
	st.Scores[VP1] = 99
	st.Roles[RoleP1] = VP2

	assert.Len(t, sink.entries, before)
	fresh := e.PublicState()
	assert.Equal(t, 0, fresh.Scores[VP1])
	assert.Equal(t, VP1, fresh.Roles[RoleP1])
}

func TestScoresAbsentWithoutStakes(t *testing.T) {
	e, _ := newTestEngine(t, Config{}, twoRounds...)
	assert.Nil(t, e.PublicState().Scores)
}
