package agents

import (
	"context"
	"fmt"

	"athena/internal/adapters/ai"
	"athena/internal/domain/memory"
	"athena/internal/domain/state"
)

// riskPersona describes one voice in the risk debate.
type riskPersona struct {
	speaker  state.Speaker
	label    string
	template string
}

var riskPersonas = []riskPersona{
	{state.SpeakerRisky, "Risky Analyst", "agents/risky_debator"},
	{state.SpeakerSafe, "Safe Analyst", "agents/safe_debator"},
	{state.SpeakerNeutral, "Neutral Analyst", "agents/neutral_debator"},
}

// runRiskDebate rotates the risky, safe, and neutral analysts over the
// trader's plan for the configured number of rounds. A failed turn ends
// the debate early; the risk manager judges whatever history exists.
func (o *Orchestrator) runRiskDebate(ctx context.Context, st *state.AnalysisState) error {
	mc := NewModeContext(st.Mode, st.CurrentPosition)

	for round := 0; round < o.cfg.MaxRiskDiscussRounds; round++ {
		for _, persona := range riskPersonas {
			if err := o.riskTurn(ctx, st, mc, persona); err != nil {
				o.log.Errorw("risk debator failed",
					"speaker", persona.speaker,
					"symbol", st.Symbol,
					"round", round,
					"error", err)
				return nil
			}
		}
	}

	return nil
}

func (o *Orchestrator) riskTurn(ctx context.Context, st *state.AnalysisState, mc ModeContext, persona riskPersona) error {
	debate := &st.RiskDebate

	data := newPromptData(st, mc, RoleRiskMgmt)
	data.History = debate.History
	data.CurrentRisky = debate.CurrentRiskyResponse
	data.CurrentSafe = debate.CurrentSafeResponse
	data.CurrentNeutral = debate.CurrentNeutralResponse

	prompt, err := o.render(persona.template, data)
	if err != nil {
		return err
	}

	response, err := o.chat(ctx, o.deep, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		return err
	}

	argument := fmt.Sprintf("%s: %s", persona.label, response)
	debate.History += "\n" + argument
	switch persona.speaker {
	case state.SpeakerRisky:
		debate.RiskyHistory += "\n" + argument
		debate.CurrentRiskyResponse = argument
	case state.SpeakerSafe:
		debate.SafeHistory += "\n" + argument
		debate.CurrentSafeResponse = argument
	case state.SpeakerNeutral:
		debate.NeutralHistory += "\n" + argument
		debate.CurrentNeutralResponse = argument
	}
	debate.LatestSpeaker = persona.speaker
	debate.Count++

	return nil
}

// runRiskManager produces the final trade decision from the risk
// debate. The position is refreshed live here because execution follows
// directly from this verdict.
func (o *Orchestrator) runRiskManager(ctx context.Context, st *state.AnalysisState) error {
	mc := NewModeContext(st.Mode, o.gateway.CurrentPosition(ctx, st.Symbol))
	st.CurrentPosition = mc.Position

	data := newPromptData(st, mc, RoleManager)
	o.loadBrokerContext(ctx, st, &data)
	data.History = st.RiskDebate.History
	data.PastMemories = o.recall(ctx, memory.CollectionRiskManager, st.Reports())

	prompt, err := o.render("agents/risk_manager", data)
	if err != nil {
		return err
	}

	verdict, err := o.chat(ctx, o.deep, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		st.FinalTradeDecision = ""
		return err
	}

	st.RiskDebate.JudgeDecision = verdict
	st.RiskDebate.LatestSpeaker = state.SpeakerJudge
	st.FinalTradeDecision = o.ensureMarker(ctx, o.deep, verdict, mc)

	return nil
}
