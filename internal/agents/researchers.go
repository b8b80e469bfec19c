package agents

import (
	"context"
	"fmt"

	"athena/internal/adapters/ai"
	"athena/internal/domain/memory"
	"athena/internal/domain/state"
)

// runResearchDebate alternates bull and bear researchers for the
// configured number of rounds, then has the research manager judge the
// debate into an investment plan. A failed turn ends the debate early
// with whatever history exists; the judge still runs.
func (o *Orchestrator) runResearchDebate(ctx context.Context, st *state.AnalysisState) error {
	mc := NewModeContext(st.Mode, st.CurrentPosition)
	situation := st.Reports()

	for round := 0; round < o.cfg.MaxDebateRounds; round++ {
		if err := o.researcherTurn(ctx, st, mc, situation, state.SpeakerBull); err != nil {
			o.log.Errorw("bull researcher failed", "symbol", st.Symbol, "round", round, "error", err)
			break
		}
		if err := o.researcherTurn(ctx, st, mc, situation, state.SpeakerBear); err != nil {
			o.log.Errorw("bear researcher failed", "symbol", st.Symbol, "round", round, "error", err)
			break
		}
	}

	return o.judgeDebate(ctx, st, mc, situation)
}

func (o *Orchestrator) researcherTurn(ctx context.Context, st *state.AnalysisState, mc ModeContext, situation string, speaker state.Speaker) error {
	data := newPromptData(st, mc, RoleResearcher)
	data.History = st.InvestDebate.History
	data.OpponentArgument = st.InvestDebate.CurrentResponse

	template := "agents/bull_researcher"
	collection := memory.CollectionBull
	if speaker == state.SpeakerBear {
		template = "agents/bear_researcher"
		collection = memory.CollectionBear
	}
	data.PastMemories = o.recall(ctx, collection, situation)

	prompt, err := o.render(template, data)
	if err != nil {
		return err
	}

	response, err := o.chat(ctx, o.deep, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		return err
	}

	argument := fmt.Sprintf("%s Analyst: %s", speaker, response)
	debate := &st.InvestDebate
	debate.History += "\n" + argument
	if speaker == state.SpeakerBull {
		debate.BullHistory += "\n" + argument
	} else {
		debate.BearHistory += "\n" + argument
	}
	debate.CurrentResponse = argument
	debate.LatestSpeaker = speaker
	debate.Count++

	return nil
}

// judgeDebate runs the research manager over the full debate history
// and records the resulting plan. An empty or failed judgment degrades
// to a HOLD-equivalent plan so the trader stage never starts blind.
func (o *Orchestrator) judgeDebate(ctx context.Context, st *state.AnalysisState, mc ModeContext, situation string) error {
	data := newPromptData(st, mc, RoleManager)
	data.History = st.InvestDebate.History
	data.PastMemories = o.recall(ctx, memory.CollectionInvestJudge, situation)

	prompt, err := o.render("agents/research_manager", data)
	if err != nil {
		return err
	}

	plan, err := o.chat(ctx, o.deep, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		st.InvestmentPlan = fmt.Sprintf("[ANALYSIS ERROR] research manager unavailable: %v", err)
		return err
	}

	st.InvestDebate.JudgeDecision = plan
	st.InvestDebate.LatestSpeaker = state.SpeakerJudge
	st.InvestmentPlan = plan

	return nil
}
