package game

import (
	"errors"
	"fmt"
)

// ErrScheduleEmpty is returned when a schedule source yields no playable
// rounds.
var ErrScheduleEmpty = errors.New("no rounds found in schedule")

// ErrInvalidCardIndex is returned for reveal requests outside {0, 1}.
var ErrInvalidCardIndex = errors.New("card index must be 0 or 1")

// ScheduleFormatError reports a schedule row whose column window held fewer
// than two integer cells. Columns are 1-indexed and inclusive, matching the
// source file layout.
type ScheduleFormatError struct {
	Row      int // 0-based row within the source, header included
	StartCol int
	EndCol   int
}

func (e *ScheduleFormatError) Error() string {
	return fmt.Sprintf("schedule row %d: fewer than two cards in columns %d-%d", e.Row+1, e.StartCol, e.EndCol)
}

// IllegalActionError is returned when an action is invoked outside its valid
// phase. The action was rejected before any state changed.
type IllegalActionError struct {
	Action string
	Phase  Phase
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Action, e.Phase)
}

// SequenceViolationError is returned when a card reveal is requested out of
// the mandated order. Role and CardIndex name the reveal expected next.
type SequenceViolationError struct {
	Role      Role
	CardIndex int
}

func (e *SequenceViolationError) Error() string {
	return fmt.Sprintf("reveal out of order: next is %s card %d", e.Role, e.CardIndex+1)
}

// AlreadySetError is returned for a duplicate signal or call submission.
type AlreadySetError struct {
	What string
}

func (e *AlreadySetError) Error() string {
	return fmt.Sprintf("%s already set", e.What)
}
