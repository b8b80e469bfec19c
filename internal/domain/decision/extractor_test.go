package decision

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_CanonicalMarkers(t *testing.T) {
	for _, mode := range []Mode{ModeInvestment, ModeTrading} {
		for _, action := range mode.Actions() {
			t.Run(fmt.Sprintf("%s/%s", mode, action), func(t *testing.T) {
				text := fmt.Sprintf(
					"Long justification here.\n\nFINAL TRANSACTION PROPOSAL: **%s**", action)

				got, ok := Extract(text, mode)
				require.True(t, ok)
				assert.Equal(t, action, got)
			})
		}
	}
}

func TestExtract_CaseInsensitive(t *testing.T) {
	got, ok := Extract("final transaction proposal: **buy**", ModeInvestment)
	require.True(t, ok)
	assert.Equal(t, ActionBuy, got)
}

func TestExtract_AliasMarkers(t *testing.T) {
	tests := []struct {
		name string
		text string
		mode Mode
		want Action
	}{
		{"final decision", "...blah blah FINAL DECISION: **SELL** blah", ModeInvestment, ActionSell},
		{"investment decision", "FINAL INVESTMENT DECISION: **HOLD**", ModeInvestment, ActionHold},
		{"trading decision", "FINAL TRADING DECISION: **NEUTRAL**", ModeTrading, ActionNeutral},
		{"risk management decision", "FINAL RISK MANAGEMENT DECISION: **SHORT**", ModeTrading, ActionShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text, tt.mode)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_MarkerWinsOverSurroundingText(t *testing.T) {
	// A marker anywhere in the text beats tokens in the tail.
	text := "FINAL TRANSACTION PROPOSAL: **SELL**\n" + strings.Repeat("filler ", 200)
	got, ok := Extract(text, ModeInvestment)
	require.True(t, ok)
	assert.Equal(t, ActionSell, got)
}

func TestExtract_TailWindowFallback(t *testing.T) {
	text := strings.Repeat("analysis ", 50) + "my conclusion is **HOLD** for now"
	got, ok := Extract(text, ModeInvestment)
	require.True(t, ok)
	assert.Equal(t, ActionHold, got)
}

func TestExtract_TokenOutsideTailWindowIgnored(t *testing.T) {
	// Bolded token buried 500 chars from the end, with no marker phrase.
	text := "we could **BUY** here " + strings.Repeat("x", 500)
	_, ok := Extract(text, ModeInvestment)
	assert.False(t, ok)
}

func TestExtract_ModeIsolation(t *testing.T) {
	// A trading-mode token under investment mode must not leak through.
	text := "FINAL TRANSACTION PROPOSAL: **SHORT**"
	got, ok := Extract(text, ModeInvestment)
	assert.False(t, ok)
	assert.Equal(t, ActionNone, got)

	// And vice versa.
	_, ok = Extract("FINAL TRANSACTION PROPOSAL: **SELL**", ModeTrading)
	assert.False(t, ok)
}

func TestExtract_Deterministic(t *testing.T) {
	text := "FINAL DECISION: **LONG** but also maybe **SHORT**"
	first, ok := Extract(text, ModeTrading)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		got, ok := Extract(text, ModeTrading)
		require.True(t, ok)
		assert.Equal(t, first, got)
	}
}

func TestExtract_NoRecommendation(t *testing.T) {
	got, ok := Extract("the market looks uncertain today", ModeInvestment)
	assert.False(t, ok)
	assert.Equal(t, ActionNone, got)
}

func TestFormatFinalDecision_RoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeInvestment, ModeTrading} {
		for _, action := range mode.Actions() {
			formatted := FormatFinalDecision(action, mode)

			extracted, ok := Extract(formatted, mode)
			require.True(t, ok)
			assert.Equal(t, formatted, FormatFinalDecision(extracted, mode))
		}
	}
}

func TestFormatFinalDecision_NoRecommendation(t *testing.T) {
	assert.Equal(t, "FINAL DECISION: **NO_RECOMMENDATION**", FormatFinalDecision(ActionNone, ModeInvestment))
	assert.Equal(t, "FINAL DECISION: **NO_RECOMMENDATION**", FormatFinalDecision("", ModeTrading))
	// Cross-mode actions render as no recommendation too.
	assert.Equal(t, "FINAL DECISION: **NO_RECOMMENDATION**", FormatFinalDecision(ActionShort, ModeInvestment))
}
