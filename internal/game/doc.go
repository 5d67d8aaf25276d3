// Package game implements the round state machine and outcome resolution
// for a two-player bluffing card experiment.
//
// Each round one seat (Player 1) secretly observes its cards and broadcasts
// a coarse signal about hand strength; the other seat (Player 2) decides
// whether to believe it. The engine adjudicates a winner from the true
// hidden values and the accuracy of the signal, with special handling for
// bust hands (totals 20-22) whose holder cannot signal truthfully.
//
// The main type is GameEngine. A caller invokes one engine method per
// discrete player action; the engine validates the action against the
// current phase, mutates the live RoundState, optionally resolves the round
// and reports every state change to its EventSink collaborator. Seats swap
// identities every round, so the same participant alternates between the
// signaling and the calling role.
//
// Validation always happens before mutation: a rejected action never leaves
// the round state partially updated. The engine performs no internal
// concurrency and assumes the caller serializes invocations.
package game
