package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Totality(t *testing.T) {
	positions := []Position{PositionLong, PositionShort, PositionNeutral}
	signals := []Action{ActionLong, ActionShort, ActionNeutral}

	for _, current := range positions {
		for _, signal := range signals {
			tr, err := Resolve(current, signal)
			require.NoError(t, err, "pair (%s, %s) must be defined", current, signal)
			assert.Equal(t, Position(signal), tr.NewPosition,
				"new position must equal the signal for (%s, %s)", current, signal)
			assert.NotEmpty(t, tr.Description)
		}
	}
}

func TestResolve_Transitions(t *testing.T) {
	tests := []struct {
		current Position
		signal  Action
		want    TransitionKind
	}{
		{PositionNeutral, ActionLong, TransitionOpenLong},
		{PositionNeutral, ActionShort, TransitionOpenShort},
		{PositionNeutral, ActionNeutral, TransitionStayNeutral},
		{PositionLong, ActionLong, TransitionHold},
		{PositionLong, ActionNeutral, TransitionCloseLong},
		{PositionLong, ActionShort, TransitionReverseToShort},
		{PositionShort, ActionShort, TransitionHold},
		{PositionShort, ActionNeutral, TransitionCloseShort},
		{PositionShort, ActionLong, TransitionReverseToLong},
	}

	for _, tt := range tests {
		t.Run(string(tt.current)+"_"+string(tt.signal), func(t *testing.T) {
			tr, err := Resolve(tt.current, tt.signal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Kind)
		})
	}
}

func TestResolve_Reversal(t *testing.T) {
	tr, err := Resolve(PositionLong, ActionShort)
	require.NoError(t, err)
	assert.True(t, tr.Reversal())

	tr, err = Resolve(PositionNeutral, ActionLong)
	require.NoError(t, err)
	assert.False(t, tr.Reversal())
}

func TestResolve_InvestmentActionRejected(t *testing.T) {
	_, err := Resolve(PositionNeutral, ActionBuy)
	assert.Error(t, err)
}

func TestModeVocabulary(t *testing.T) {
	assert.True(t, ModeInvestment.Valid(ActionBuy))
	assert.False(t, ModeInvestment.Valid(ActionShort))
	assert.True(t, ModeTrading.Valid(ActionShort))
	assert.False(t, ModeTrading.Valid(ActionSell))
	assert.False(t, ModeTrading.Valid(ActionNone))

	assert.Equal(t, ModeTrading, ModeFromAllowShorts(true))
	assert.Equal(t, ModeInvestment, ModeFromAllowShorts(false))
}
