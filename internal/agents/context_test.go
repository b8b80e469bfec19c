package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"athena/internal/domain/decision"
)

func TestInvestmentModeContext(t *testing.T) {
	mc := NewModeContext(decision.ModeInvestment, decision.PositionLong)

	assert.Equal(t, "EOD TRADING INVESTMENT MODE", mc.ModeName)
	assert.Equal(t, "BUY, HOLD, or SELL", mc.Actions)
	assert.Equal(t, "FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL**", mc.FinalFormat)
	// investment mode has no transition semantics, position is ignored
	assert.Equal(t, decision.PositionNeutral, mc.Position)
	assert.NotContains(t, mc.Instructions, "Position Transition Logic")
}

func TestTradingModeContextEmbedsPosition(t *testing.T) {
	mc := NewModeContext(decision.ModeTrading, decision.PositionShort)

	assert.Equal(t, "EOD TRADING MODE", mc.ModeName)
	assert.Equal(t, decision.PositionShort, mc.Position)
	assert.Contains(t, mc.Instructions, "Current Position: SHORT")
	assert.Contains(t, mc.Instructions, "EOD Trading Position Transition Logic")
	assert.Contains(t, mc.FinalFormat, "LONG/NEUTRAL/SHORT")
}

func TestRoleContextWrapsInstructions(t *testing.T) {
	mc := NewModeContext(decision.ModeInvestment, decision.PositionNeutral)

	for _, tc := range []struct {
		role     Role
		fragment string
	}{
		{RoleAnalyst, "As an Analyst in EOD TRADING INVESTMENT MODE"},
		{RoleResearcher, "As a Researcher in EOD TRADING INVESTMENT MODE"},
		{RoleTrader, "As a Trader in EOD TRADING INVESTMENT MODE"},
		{RoleRiskMgmt, "As a Risk Management Analyst in EOD TRADING INVESTMENT MODE"},
		{RoleManager, "As a Manager in EOD TRADING INVESTMENT MODE"},
	} {
		out := mc.RoleContext(tc.role)
		assert.Contains(t, out, tc.fragment, "role %s", tc.role)
		assert.Contains(t, out, mc.Instructions, "role %s keeps base instructions", tc.role)
	}
}

func TestRoleContextUnknownRoleFallsBack(t *testing.T) {
	mc := NewModeContext(decision.ModeInvestment, decision.PositionNeutral)
	assert.Equal(t, mc.Instructions, mc.RoleContext(Role("observer")))
}
