package game

// ForcedBluffLabel is rendered wherever a hand has no truthful signal
// category because its total busts.
const ForcedBluffLabel = "forced_bluff"

// HandValue returns the comparison value of a two-card hand. Totals of 20-22
// are bust hands and count as zero.
func HandValue(a, b int) int {
	total := a + b
	if total >= 20 && total <= 22 {
		return 0
	}
	return total
}

// HandCategory maps a hand to its truthful signal category. The second
// return is false when the hand has no category (total 20 or above), which
// forces the holder to bluff.
//
// Totals below 14 should not appear in a well-formed schedule. They are
// folded into the low category instead of failing so a typo in the schedule
// does not abort a running session; the engine logs a warning when it deals
// such a hand.
func HandCategory(a, b int) (SignalLevel, bool) {
	total := a + b
	switch {
	case total == 19:
		return SignalHigh, true
	case total >= 16 && total <= 18:
		return SignalMedium, true
	case total == 14 || total == 15:
		return SignalLow, true
	case total >= 20:
		return "", false
	default:
		return SignalLow, true
	}
}

// HandCategoryLabel renders the hand's category as text, substituting the
// forced-bluff label when no truthful category exists.
func HandCategoryLabel(a, b int) string {
	level, ok := HandCategory(a, b)
	if !ok {
		return ForcedBluffLabel
	}
	return string(level)
}

func handTotalInRange(a, b int) bool {
	total := a + b
	return total >= 14 && total <= 22
}
