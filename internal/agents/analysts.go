package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"athena/internal/domain/decision"
	"athena/internal/domain/state"
	"athena/internal/tools"
)

// analystSpec binds an analyst to its prompt template, tool catalog,
// and the report field it owns.
type analystSpec struct {
	key      string
	template string
	tools    []string
	assign   func(*state.AnalysisState, string)
}

var analystSpecs = []analystSpec{
	{
		key:      "market",
		template: "agents/market_analyst",
		tools:    tools.MarketTools,
		assign:   func(st *state.AnalysisState, report string) { st.MarketReport = report },
	},
	{
		key:      "social",
		template: "agents/social_analyst",
		tools:    tools.SocialTools,
		assign:   func(st *state.AnalysisState, report string) { st.SentimentReport = report },
	},
	{
		key:      "news",
		template: "agents/news_analyst",
		tools:    tools.NewsTools,
		assign:   func(st *state.AnalysisState, report string) { st.NewsReport = report },
	},
	{
		key:      "fundamentals",
		template: "agents/fundamentals_analyst",
		tools:    tools.FundamentalsTools,
		assign:   func(st *state.AnalysisState, report string) { st.FundamentalsReport = report },
	},
	{
		key:      "macro",
		template: "agents/macro_analyst",
		tools:    tools.MacroTools,
		assign:   func(st *state.AnalysisState, report string) { st.MacroReport = report },
	},
}

// runAnalysts executes the configured analyst stages in order. Each
// analyst owns exactly one report field; a failed analyst leaves a
// degraded report so downstream prompts always have text to cite.
func (o *Orchestrator) runAnalysts(ctx context.Context, st *state.AnalysisState) error {
	enabled := make(map[string]bool, len(o.cfg.Analysts))
	for _, name := range o.cfg.Analysts {
		enabled[strings.ToLower(strings.TrimSpace(name))] = true
	}

	for _, spec := range analystSpecs {
		if !enabled[spec.key] {
			spec.assign(st, fmt.Sprintf("[ANALYSIS SKIPPED] %s analyst disabled by configuration", spec.key))
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		report, err := o.runAnalyst(ctx, st, spec)
		if err != nil {
			report = fmt.Sprintf("[ANALYSIS ERROR] %s analysis unavailable after %s: %v",
				spec.key, time.Since(start).Round(time.Second), err)
			o.log.Errorw("analyst failed", "analyst", spec.key, "symbol", st.Symbol, "error", err)
		}

		spec.assign(st, report)
		st.ClearMessages()
	}

	return nil
}

func (o *Orchestrator) runAnalyst(ctx context.Context, st *state.AnalysisState, spec analystSpec) (string, error) {
	mc := NewModeContext(st.Mode, st.CurrentPosition)
	data := newPromptData(st, mc, RoleAnalyst)

	body, err := o.render(spec.template, data)
	if err != nil {
		return "", err
	}

	systemPrompt := collaboratorPreamble(mc, spec.tools, st.Symbol, data.CurrentDate) + "\n\n" + body
	userPrompt := fmt.Sprintf("Analyze %s for trade date %s.", st.Symbol, data.CurrentDate)

	report, err := o.runToolLoop(ctx, st, o.quick, systemPrompt, userPrompt, spec.tools)
	if err != nil {
		return "", err
	}

	report = o.ensureMarker(ctx, o.quick, report, mc)
	if _, ok := decision.Extract(report, mc.Mode); !ok {
		o.log.Warnw("analyst report missing proposal marker", "analyst", spec.key, "symbol", st.Symbol)
	}

	return report, nil
}
