package agents

import (
	"context"
	"fmt"
	"time"

	"athena/internal/adapters/ai"
	"athena/internal/domain/decision"
	"athena/internal/domain/state"
)

// runToolLoop drives a tool-calling conversation until the model stops
// requesting tools or the iteration cap is hit. Tool failures are fed
// back to the model as error text rather than aborting, matching the
// degraded-report contract of the data layer.
func (o *Orchestrator) runToolLoop(ctx context.Context, st *state.AnalysisState, model, systemPrompt, userPrompt string, toolNames []string) (string, error) {
	defs := o.tools.Definitions(toolNames...)

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: userPrompt},
	}
	st.AppendMessage("system", systemPrompt)
	st.AppendMessage("user", userPrompt)

	for i := 0; i < o.cfg.MaxToolIterations; i++ {
		resp, err := o.provider.Chat(ctx, ai.ChatRequest{
			Model:    model,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return "", err
		}

		assistant := ai.Message{Role: ai.RoleAssistant, Content: resp.Content(), ToolCalls: resp.FirstToolCalls()}
		messages = append(messages, assistant)
		if assistant.Content != "" {
			st.AppendMessage("assistant", assistant.Content)
		}

		calls := resp.FirstToolCalls()
		if len(calls) == 0 {
			return resp.Content(), nil
		}

		for _, call := range calls {
			start := time.Now()
			result, err := o.tools.Dispatch(ctx, call)
			if err != nil {
				result = fmt.Sprintf("[TOOL ERROR] %s failed: %v", call.Function.Name, err)
			}

			o.log.Debugw("tool call",
				"tool", call.Function.Name,
				"symbol", st.Symbol,
				"elapsed", time.Since(start).Round(time.Millisecond))

			messages = append(messages, ai.Message{
				Role:       ai.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
			st.AppendToolExchange(call.ID, call.Function.Name, result)
		}
	}

	// Iteration cap reached: close out with one tool-free pass so the
	// stage always ends on prose, not a dangling tool request.
	messages = append(messages, ai.Message{
		Role:    ai.RoleUser,
		Content: "Provide your final analysis now based on the data gathered so far.",
	})
	return o.chat(ctx, model, messages)
}

// ensureMarker enforces the two-phase output contract: a response
// missing the final-proposal marker gets exactly one corrective pass
// asking for a restated conclusion. The original text is preserved when
// the correction also fails to produce a parseable marker.
func (o *Orchestrator) ensureMarker(ctx context.Context, model, text string, mc ModeContext) string {
	if _, ok := decision.Extract(text, mc.Mode); ok {
		return text
	}

	corrected, err := o.chat(ctx, model, []ai.Message{
		{Role: ai.RoleSystem, Content: "You finalize analyst conclusions."},
		{Role: ai.RoleAssistant, Content: text},
		{Role: ai.RoleUser, Content: fmt.Sprintf(
			"Your response is missing the required conclusion. Restate your final recommendation in one short paragraph and end with the exact line: %s",
			mc.FinalFormat)},
	})
	if err != nil {
		o.log.Warnw("marker correction failed", "error", err)
		return text
	}
	if _, ok := decision.Extract(corrected, mc.Mode); !ok {
		return text
	}
	return text + "\n\n" + corrected
}
