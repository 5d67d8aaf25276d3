package game

// RoundPlan fixes both identities' cards for one scheduled round. Cards
// belong to identities, not seats; the seat assignment comes from the
// round's RoleMap. Never mutated after loading.
type RoundPlan struct {
	VP1Cards [2]int
	VP2Cards [2]int
}

// CardsOf returns the identity's two cards.
func (p RoundPlan) CardsOf(id Identity) [2]int {
	if id == VP1 {
		return p.VP1Cards
	}
	return p.VP2Cards
}

// RoleMap assigns identities to seats for exactly one round. A new map is
// created per round rather than mutated in place so the audit trail of who
// played which seat stays trustworthy.
type RoleMap struct {
	P1 Identity
	P2 Identity
}

// IdentityOf returns the identity currently holding the seat.
func (m RoleMap) IdentityOf(role Role) Identity {
	if role == RoleP1 {
		return m.P1
	}
	return m.P2
}

// Swapped returns the inverse assignment for the following round.
func (m RoleMap) Swapped() RoleMap {
	return RoleMap{P1: m.P2, P2: m.P1}
}

// VisibleCardState tracks which cards are face up, seat-relative. Flags only
// ever go from false to true within a round.
type VisibleCardState struct {
	P1Revealed [2]bool
	P2Revealed [2]bool
}

// nextReveal returns the seat and card index that must be revealed next, or
// ok=false once all four cards are face up. The global order is fixed:
// P1 card 0, P2 card 0, P1 card 1, P2 card 1.
func (v VisibleCardState) nextReveal() (Role, int, bool) {
	switch {
	case !v.P1Revealed[0]:
		return RoleP1, 0, true
	case !v.P2Revealed[0]:
		return RoleP2, 0, true
	case !v.P1Revealed[1]:
		return RoleP1, 1, true
	case !v.P2Revealed[1]:
		return RoleP2, 1, true
	}
	return "", 0, false
}

func (v *VisibleCardState) set(role Role, cardIdx int) {
	if role == RoleP1 {
		v.P1Revealed[cardIdx] = true
	} else {
		v.P2Revealed[cardIdx] = true
	}
}

// RoundState is the mutable snapshot of one round's progress. The engine
// owns exactly one live instance at a time and replaces it wholesale when
// advancing rounds.
type RoundState struct {
	Index int
	Plan  RoundPlan
	Roles RoleMap
	Phase Phase

	// Start handshake, round 0 only.
	P1Ready bool
	P2Ready bool

	// Next-round handshake, every round.
	NextReadyP1 bool
	NextReadyP2 bool

	Vis           VisibleCardState
	Signal        *SignalLevel
	Call          *Call
	Winner        *Role
	OutcomeReason string
}
