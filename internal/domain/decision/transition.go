package decision

import "fmt"

// TransitionKind identifies the broker operation implied by a signal.
type TransitionKind string

const (
	TransitionHold           TransitionKind = "HOLD"
	TransitionStayNeutral    TransitionKind = "STAY_NEUTRAL"
	TransitionOpenLong       TransitionKind = "OPEN_LONG"
	TransitionOpenShort      TransitionKind = "OPEN_SHORT"
	TransitionCloseLong      TransitionKind = "CLOSE_LONG"
	TransitionCloseShort     TransitionKind = "CLOSE_SHORT"
	TransitionReverseToLong  TransitionKind = "REVERSE_TO_LONG"
	TransitionReverseToShort TransitionKind = "REVERSE_TO_SHORT"
)

// Transition describes how to move from the current broker position to
// the position implied by a new signal.
type Transition struct {
	Kind        TransitionKind
	Description string
	NewPosition Position
}

// Reversal reports whether the transition requires a close followed by an
// open, which the broker executes as two separate operations.
func (t Transition) Reversal() bool {
	return t.Kind == TransitionReverseToLong || t.Kind == TransitionReverseToShort
}

// transitions is the closed 3x3 table over {LONG,SHORT,NEUTRAL} x
// {LONG,SHORT,NEUTRAL}. Every pair has an entry; there is no fallback
// branch because none is reachable.
var transitions = map[Position]map[Action]Transition{
	PositionLong: {
		ActionLong:    {TransitionHold, "Keep existing LONG position", PositionLong},
		ActionNeutral: {TransitionCloseLong, "Close LONG position, exit to neutral", PositionNeutral},
		ActionShort:   {TransitionReverseToShort, "Close LONG position and open SHORT position", PositionShort},
	},
	PositionShort: {
		ActionShort:   {TransitionHold, "Keep existing SHORT position", PositionShort},
		ActionNeutral: {TransitionCloseShort, "Close SHORT position, exit to neutral", PositionNeutral},
		ActionLong:    {TransitionReverseToLong, "Close SHORT position and open LONG position", PositionLong},
	},
	PositionNeutral: {
		ActionLong:    {TransitionOpenLong, "Open LONG position", PositionLong},
		ActionShort:   {TransitionOpenShort, "Open SHORT position", PositionShort},
		ActionNeutral: {TransitionStayNeutral, "Stay in neutral position", PositionNeutral},
	},
}

// Resolve maps (current position, new signal) to the required transition.
// Defined only for the trading-mode vocabulary; any other signal is an
// input error.
func Resolve(current Position, signal Action) (Transition, error) {
	row, ok := transitions[current]
	if !ok {
		return Transition{}, fmt.Errorf("invalid position %q", current)
	}
	t, ok := row[signal]
	if !ok {
		return Transition{}, fmt.Errorf("signal %q is not a trading-mode action", signal)
	}
	return t, nil
}
