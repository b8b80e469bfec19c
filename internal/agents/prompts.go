package agents

import (
	"context"
	"fmt"
	"strings"

	"athena/internal/domain/state"
)

// promptData is the shared payload for agent prompt templates. Each
// template references the subset of fields it needs.
type promptData struct {
	Ticker      string
	CurrentDate string

	AgentContext   string
	Actions        string
	DecisionFormat string
	FinalFormat    string

	MarketReport       string
	SentimentReport    string
	NewsReport         string
	FundamentalsReport string
	MacroReport        string

	InvestmentPlan string
	TraderPlan     string

	History          string
	OpponentArgument string
	CurrentRisky     string
	CurrentSafe      string
	CurrentNeutral   string

	PastMemories string

	PositionSummary string
	PositionDetail  string
	AccountStatus   string
}

func newPromptData(st *state.AnalysisState, mc ModeContext, role Role) promptData {
	return promptData{
		Ticker:             st.Symbol,
		CurrentDate:        st.TradeDate.Format("2006-01-02"),
		AgentContext:       mc.RoleContext(role),
		Actions:            mc.Actions,
		DecisionFormat:     mc.DecisionFormat,
		FinalFormat:        mc.FinalFormat,
		MarketReport:       st.MarketReport,
		SentimentReport:    st.SentimentReport,
		NewsReport:         st.NewsReport,
		FundamentalsReport: st.FundamentalsReport,
		MacroReport:        st.MacroReport,
		InvestmentPlan:     st.InvestmentPlan,
		TraderPlan:         st.TraderInvestmentPlan,
	}
}

// collaboratorPreamble is the shared system framing for tool-using
// analyst stages. The stop marker tells downstream stages the analyst
// considers its deliverable complete.
func collaboratorPreamble(mc ModeContext, toolNames []string, ticker, currentDate string) string {
	return fmt.Sprintf(
		"You are a helpful AI assistant, collaborating with other assistants."+
			" Use the provided tools to progress towards answering the question."+
			" If you are unable to fully answer, that's OK; another assistant with different tools"+
			" will help where you left off. Execute what you can to make progress."+
			" If you or any other assistant has the %s or deliverable,"+
			" prefix your response with %s so the team knows to stop."+
			" You have access to the following tools: %s.\n"+
			"For your reference, the current date is %s. We are looking at the ticker: %s.",
		mc.FinalFormat, mc.FinalFormat, strings.Join(toolNames, ", "), currentDate, ticker)
}

// positionSummary renders the one-line position description embedded in
// trader and risk manager prompts.
func positionSummary(st *state.AnalysisState) string {
	if st.CurrentPosition == "NEUTRAL" {
		return fmt.Sprintf("We do not have any open position in %s.", st.Symbol)
	}
	return fmt.Sprintf("We currently have an open %s position in %s.", st.CurrentPosition, st.Symbol)
}

// loadBrokerContext refreshes the live position and fills the prompt
// fields describing the open position and account. Lookup failures
// degrade to placeholder text; prompts always have something to show.
func (o *Orchestrator) loadBrokerContext(ctx context.Context, st *state.AnalysisState, data *promptData) {
	st.CurrentPosition = o.gateway.CurrentPosition(ctx, st.Symbol)
	data.PositionSummary = positionSummary(st)

	data.PositionDetail = "No open position details available for this symbol."
	if detail, err := o.gateway.OpenPosition(ctx, st.Symbol); err == nil && detail != nil {
		data.PositionDetail = fmt.Sprintf(
			"Position Details for %s:\n- Quantity: %s\n- Average Entry Price: %s\n- Today's P/L: %s (%s%%)\n- Total P/L: %s (%s%%)",
			st.Symbol,
			detail.Qty.String(),
			detail.AvgEntry.StringFixed(2),
			detail.TodayPnL.StringFixed(2),
			detail.TodayPnLPct.StringFixed(2),
			detail.TotalPnL.StringFixed(2),
			detail.TotalPnLPct.StringFixed(2))
	}

	data.AccountStatus = "Account status unavailable."
	if snap, err := o.gateway.AccountSnapshot(ctx); err == nil {
		data.AccountStatus = fmt.Sprintf(
			"- Buying Power: $%s\n- Cash: $%s\n- Daily Change: $%s (%s%%)",
			snap.BuyingPower.StringFixed(2),
			snap.Cash.StringFixed(2),
			snap.DailyChange.StringFixed(2),
			snap.DailyChangePct.StringFixed(2))
	}
}
