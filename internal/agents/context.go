package agents

import (
	"fmt"

	"athena/internal/domain/decision"
)

// Role selects the role-specific framing wrapped around the mode
// instructions in every prompt.
type Role string

const (
	RoleAnalyst    Role = "analyst"
	RoleResearcher Role = "researcher"
	RoleTrader     Role = "trader"
	RoleRiskMgmt   Role = "risk_mgmt"
	RoleManager    Role = "manager"
)

// ModeContext carries the decision vocabulary and instruction text for
// the active mode. Built once per stage with the live position, since
// the trading-mode instructions embed it.
type ModeContext struct {
	Mode           decision.Mode
	ModeName       string
	Actions        string
	DecisionFormat string
	FinalFormat    string
	Position       decision.Position
	Instructions   string
}

// NewModeContext builds the prompt context for a mode and current
// position. Investment mode ignores the position: its vocabulary has no
// transition semantics.
func NewModeContext(mode decision.Mode, position decision.Position) ModeContext {
	if mode == decision.ModeTrading {
		return tradingContext(position)
	}
	return investmentContext()
}

func investmentContext() ModeContext {
	return ModeContext{
		Mode:           decision.ModeInvestment,
		ModeName:       "EOD TRADING INVESTMENT MODE",
		Actions:        "BUY, HOLD, or SELL",
		DecisionFormat: "BUY/HOLD/SELL",
		FinalFormat:    "FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL**",
		Position:       decision.PositionNeutral,
		Instructions: `You are operating in EOD TRADING INVESTMENT MODE with daily decision-making at market close.

Available actions for EOD trading:
- BUY: Enter position based on EOD analysis for next trading day
- HOLD: Maintain current position overnight after daily reassessment
- SELL: Exit position at market close or prepare for next day exit

**EOD TRADING FOCUS:**
- **Decision Timing:** Make trading decisions at end of each trading day
- **Holding Period:** Overnight positions with daily review and reassessment
- **Entry Strategy:** Based on daily closing prices, EOD momentum, and overnight setups
- **Exit Strategy:** Daily evaluation of profit targets, stop losses, and risk levels
- **Risk Management:** 1-3% risk per trade, 2:1 minimum risk/reward ratio
- **Position Sizing:** Based on daily volatility and overnight gap risk

Focus on daily trading decisions with overnight position management, not intraday or long-term investing.`,
	}
}

func tradingContext(position decision.Position) ModeContext {
	positionLogic := fmt.Sprintf(`Current Position: %s

EOD Trading Position Transition Logic:
- If Current Position: LONG
  - Signal: LONG -> Hold position overnight, daily reassessment at market close
  - Signal: NEUTRAL -> Close LONG position at market close or prepare exit for next day
  - Signal: SHORT -> Close LONG position and prepare SHORT entry for next trading day

- If Current Position: SHORT
  - Signal: SHORT -> Hold position overnight, daily reassessment at market close
  - Signal: NEUTRAL -> Close SHORT position at market close or prepare exit for next day
  - Signal: LONG -> Close SHORT position and prepare LONG entry for next trading day

- If Current Position: NEUTRAL (no open position)
  - Signal: LONG -> Prepare LONG position entry based on EOD analysis
  - Signal: SHORT -> Prepare SHORT position entry based on EOD analysis
  - Signal: NEUTRAL -> Stay in cash, wait for clear EOD setup`, position)

	return ModeContext{
		Mode:           decision.ModeTrading,
		ModeName:       "EOD TRADING MODE",
		Actions:        "LONG, NEUTRAL, or SHORT",
		DecisionFormat: "LONG/NEUTRAL/SHORT",
		FinalFormat:    "FINAL TRANSACTION PROPOSAL: **LONG/NEUTRAL/SHORT**",
		Position:       position,
		Instructions: fmt.Sprintf(`You are operating in EOD TRADING MODE with daily decision-making at market close.

%s

Available EOD trading actions:
- LONG: Take long position based on EOD analysis (profit from overnight and next-day moves)
- SHORT: Take short position based on EOD analysis (profit from overnight and next-day declines)
- NEUTRAL: Close all positions or stay in cash based on daily assessment

**EOD TRADING METHODOLOGY:**
- **Decision Timing:** All trading decisions made at market close
- **Entry Signals:** Based on daily closing prices, EOD momentum, and overnight catalysts
- **Exit Signals:** Daily reassessment at market close, gap management at open
- **Risk Management:** 1-3%% risk per trade, 2:1 minimum R/R ratio
- **Position Management:** Daily stop adjustments, overnight risk assessment

Focus on daily decision-making with overnight position management, emphasizing end-of-day analysis and next-day preparation.`, positionLogic),
	}
}

// RoleContext wraps the mode instructions with role-specific framing.
func (mc ModeContext) RoleContext(role Role) string {
	var framing string
	switch role {
	case RoleAnalyst:
		framing = fmt.Sprintf(`As an Analyst in %s, your analysis should consider %s perspectives.

Your analysis should:
- Evaluate market conditions suitable for each action type
- Provide data-driven insights supporting potential decisions
- Consider risk factors relevant to %s recommendations
- Present balanced analysis while highlighting key opportunities`, mc.ModeName, mc.Actions, mc.Actions)
	case RoleResearcher:
		framing = fmt.Sprintf(`As a Researcher in %s, develop arguments supporting %s strategies.

Your research should:
- Build evidence-based cases for different action scenarios
- Address counterarguments from opposing perspectives
- Use historical data and market patterns to support positions
- Engage in debate using %s terminology`, mc.ModeName, mc.Actions, mc.Actions)
	case RoleTrader:
		framing = fmt.Sprintf(`As a Trader in %s, make decisive %s recommendations.

Your decisions should:
- Be based on comprehensive analysis from the team
- Consider current market conditions and timing
- Include clear rationale for the chosen action
- Account for risk management and position sizing`, mc.ModeName, mc.Actions)
	case RoleRiskMgmt:
		framing = fmt.Sprintf(`As a Risk Management Analyst in %s, evaluate %s decisions.

Your risk assessment should:
- Analyze potential losses and gains for each action type
- Consider portfolio impact and correlation risks
- Evaluate market volatility and timing risks
- Provide risk-adjusted recommendations using %s terminology`, mc.ModeName, mc.Actions, mc.Actions)
	case RoleManager:
		framing = fmt.Sprintf(`As a Manager in %s, synthesize team input for final %s decisions.

Your management approach should:
- Weigh different analyst perspectives and debates
- Make decisive final recommendations from %s options
- Consider overall strategy and risk management
- Provide clear reasoning for the chosen course of action`, mc.ModeName, mc.Actions, mc.Actions)
	default:
		return mc.Instructions
	}

	return framing + "\n\n" + mc.Instructions
}
