package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/domain/decision"
)

func TestNew_Defaults(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	s := New("AAPL", date, decision.ModeTrading)

	require.NotNil(t, s)
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, date, s.TradeDate)
	assert.Equal(t, decision.ModeTrading, s.Mode)
	assert.Equal(t, decision.PositionNeutral, s.CurrentPosition)
	assert.NotEqual(t, s.RunID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestClearMessages(t *testing.T) {
	s := New("AAPL", time.Now(), decision.ModeInvestment)
	s.AppendMessage("user", "analyze AAPL")
	s.AppendMessage("assistant", "on it")
	s.AppendToolExchange("call_1", "get_market_data", "bars...")
	require.Len(t, s.Messages, 3)
	assert.Equal(t, "get_market_data", s.Messages[2].ToolName)

	s.ClearMessages()
	assert.Empty(t, s.Messages)
}

func TestResetForNewRun(t *testing.T) {
	s := New("TSLA", time.Now(), decision.ModeTrading)
	s.MarketReport = "old market report"
	s.NewsReport = "old news"
	s.InvestDebate.Count = 4
	s.RiskDebate.Count = 6
	s.RiskDebate.LatestSpeaker = SpeakerNeutral
	s.CurrentPosition = decision.PositionLong
	s.RecommendedAction = decision.ActionLong
	s.FinalTradeDecision = "FINAL TRANSACTION PROPOSAL: **LONG**"
	oldRunID := s.RunID

	nextDate := time.Now().Add(24 * time.Hour)
	s.ResetForNewRun(nextDate)

	assert.NotEqual(t, oldRunID, s.RunID)
	assert.Equal(t, nextDate, s.TradeDate)
	assert.Empty(t, s.MarketReport)
	assert.Empty(t, s.NewsReport)
	assert.Zero(t, s.InvestDebate.Count)
	assert.Zero(t, s.RiskDebate.Count)
	assert.Empty(t, s.RiskDebate.LatestSpeaker)
	// Position must not be carried over from the previous run; the next
	// trader stage re-queries the broker.
	assert.Equal(t, decision.PositionNeutral, s.CurrentPosition)
	assert.Empty(t, s.RecommendedAction)
	assert.Empty(t, s.FinalTradeDecision)
	// Mode is fixed for the lifetime of the state.
	assert.Equal(t, decision.ModeTrading, s.Mode)
}

func TestReports_Order(t *testing.T) {
	s := New("NVDA", time.Now(), decision.ModeInvestment)
	s.MacroReport = "MACRO"
	s.MarketReport = "MARKET"
	s.SentimentReport = "SENTIMENT"
	s.NewsReport = "NEWS"
	s.FundamentalsReport = "FUNDAMENTALS"

	assert.Equal(t, "MACRO\n\nMARKET\n\nSENTIMENT\n\nNEWS\n\nFUNDAMENTALS", s.Reports())
}
