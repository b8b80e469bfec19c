package decision

// Mode is the active decision vocabulary for a run. It is fixed when the
// run starts and never changes between stages.
type Mode string

const (
	// ModeInvestment uses BUY/HOLD/SELL actions (shorting disabled).
	ModeInvestment Mode = "investment"
	// ModeTrading uses LONG/NEUTRAL/SHORT actions with position logic.
	ModeTrading Mode = "trading"
)

// ModeFromAllowShorts maps the allow_shorts configuration flag to a Mode.
func ModeFromAllowShorts(allowShorts bool) Mode {
	if allowShorts {
		return ModeTrading
	}
	return ModeInvestment
}

// Action is a normalized trading recommendation.
type Action string

const (
	ActionBuy     Action = "BUY"
	ActionHold    Action = "HOLD"
	ActionSell    Action = "SELL"
	ActionLong    Action = "LONG"
	ActionNeutral Action = "NEUTRAL"
	ActionShort   Action = "SHORT"

	// ActionNone marks the absence of a recommendation. It is never a
	// member of either vocabulary.
	ActionNone Action = "NO_RECOMMENDATION"
)

// Position is the broker-reported directional exposure for a symbol.
type Position string

const (
	PositionLong    Position = "LONG"
	PositionShort   Position = "SHORT"
	PositionNeutral Position = "NEUTRAL"
)

var (
	investmentActions = []Action{ActionBuy, ActionHold, ActionSell}
	tradingActions    = []Action{ActionLong, ActionNeutral, ActionShort}
)

// Actions returns the action vocabulary for the mode.
func (m Mode) Actions() []Action {
	if m == ModeTrading {
		return tradingActions
	}
	return investmentActions
}

// Valid reports whether the action belongs to the mode's vocabulary.
func (m Mode) Valid(a Action) bool {
	for _, v := range m.Actions() {
		if v == a {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }
