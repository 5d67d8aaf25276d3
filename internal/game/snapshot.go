package game

// PublicState is the read-only projection of the live round handed to the
// rendering layer. Every field is derived from engine state; nothing here
// can be set back.
type PublicState struct {
	RoundIndex    int               `json:"round_index"`
	Phase         string            `json:"phase"`
	Roles         map[Role]Identity `json:"roles"`
	P1Ready       bool              `json:"p1_ready"`
	P2Ready       bool              `json:"p2_ready"`
	NextReadyP1   bool              `json:"next_ready_p1"`
	NextReadyP2   bool              `json:"next_ready_p2"`
	P1Revealed    [2]bool           `json:"p1_revealed"`
	P2Revealed    [2]bool           `json:"p2_revealed"`
	Signal        *SignalLevel      `json:"p1_signal"`
	Call          *Call             `json:"p2_call"`
	Winner        *Role             `json:"winner"`
	OutcomeReason string            `json:"outcome_reason,omitempty"`
	Scores        map[Identity]int  `json:"scores,omitempty"`
}
