package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"athena/internal/adapters/ai"
	"athena/internal/domain/decision"
)

func TestSignalProcessorDeterministicFirst(t *testing.T) {
	provider := &scriptedProvider{}
	sp := NewSignalProcessor(provider, "quick")

	action := sp.Process(context.Background(),
		"Long analysis...\n\nFINAL TRANSACTION PROPOSAL: **SELL**", decision.ModeInvestment)

	assert.Equal(t, decision.ActionSell, action)
	assert.Empty(t, provider.calls, "marker text must not reach the model")
}

func TestSignalProcessorLLMFallback(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{textResponse(" short \n")}}
	sp := NewSignalProcessor(provider, "quick")

	action := sp.Process(context.Background(),
		"the team leans bearish but never stated a proposal", decision.ModeTrading)

	assert.Equal(t, decision.ActionShort, action)
	assert.Len(t, provider.calls, 1)
}

func TestSignalProcessorRejectsOutOfVocabulary(t *testing.T) {
	// SELL is not a trading-mode action; the fallback answer is discarded.
	provider := &scriptedProvider{responses: []*ai.ChatResponse{textResponse("SELL")}}
	sp := NewSignalProcessor(provider, "quick")

	action := sp.Process(context.Background(), "ambiguous text", decision.ModeTrading)

	assert.Equal(t, decision.ActionNone, action)
}

func TestSignalProcessorEmptyText(t *testing.T) {
	provider := &scriptedProvider{}
	sp := NewSignalProcessor(provider, "quick")

	assert.Equal(t, decision.ActionNone, sp.Process(context.Background(), "", decision.ModeInvestment))
	assert.Empty(t, provider.calls)
}
