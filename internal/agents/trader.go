package agents

import (
	"context"
	"fmt"

	"athena/internal/adapters/ai"
	"athena/internal/domain/memory"
	"athena/internal/domain/state"
)

// runTrader turns the investment plan into a concrete trading proposal.
// The position is re-queried live at stage entry; the trader never
// reasons about a stale position carried over from a previous run.
func (o *Orchestrator) runTrader(ctx context.Context, st *state.AnalysisState) error {
	mc := NewModeContext(st.Mode, o.gateway.CurrentPosition(ctx, st.Symbol))
	st.CurrentPosition = mc.Position

	data := newPromptData(st, mc, RoleTrader)
	o.loadBrokerContext(ctx, st, &data)
	data.PastMemories = o.recall(ctx, memory.CollectionTrader, st.Reports())

	prompt, err := o.render("agents/trader", data)
	if err != nil {
		return err
	}

	plan, err := o.chat(ctx, o.deep, []ai.Message{
		{Role: ai.RoleSystem, Content: prompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf(
			"Based on a comprehensive analysis by a team of analysts, here is an investment plan tailored for %s. Use this plan as a foundation for your trading decision.",
			st.Symbol)},
	})
	if err != nil {
		st.TraderInvestmentPlan = fmt.Sprintf("[ANALYSIS ERROR] trader stage unavailable: %v", err)
		return err
	}

	st.TraderInvestmentPlan = o.ensureMarker(ctx, o.deep, plan, mc)

	return nil
}
