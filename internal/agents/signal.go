package agents

import (
	"context"
	"strings"

	"athena/internal/adapters/ai"
	"athena/internal/domain/decision"
	"athena/pkg/logger"
)

const signalSystemPrompt = "You are an efficient assistant designed to analyze paragraphs or financial reports provided by a group of analysts. Your task is to extract the investment decision: SELL, BUY, HOLD, LONG, SHORT, or NEUTRAL. Provide only the extracted decision word as your output, without adding any additional text or information."

// SignalProcessor normalizes free-form decision text into an action.
// Deterministic extraction runs first; the quick model is only asked
// when no marker was found, and its answer is validated against the
// active vocabulary before being trusted.
type SignalProcessor struct {
	provider ai.ChatProvider
	model    string
	log      *logger.Logger
}

// NewSignalProcessor creates a processor backed by the quick model.
func NewSignalProcessor(provider ai.ChatProvider, model string) *SignalProcessor {
	return &SignalProcessor{
		provider: provider,
		model:    model,
		log:      logger.Get().With("component", "signal_processor"),
	}
}

// Process extracts the action carried by the text, or NO_RECOMMENDATION
// when neither the deterministic pass nor the model finds one.
func (p *SignalProcessor) Process(ctx context.Context, text string, mode decision.Mode) decision.Action {
	if text == "" {
		return decision.ActionNone
	}

	if action, ok := decision.Extract(text, mode); ok {
		return action
	}

	resp, err := p.provider.Chat(ctx, ai.ChatRequest{
		Model: p.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: signalSystemPrompt},
			{Role: ai.RoleUser, Content: text},
		},
	})
	if err != nil {
		p.log.Warnw("signal extraction fallback failed", "error", err)
		return decision.ActionNone
	}

	action := decision.Action(strings.ToUpper(strings.TrimSpace(resp.Content())))
	if !mode.Valid(action) {
		p.log.Warnw("signal extraction returned out-of-vocabulary action",
			"action", action,
			"mode", mode)
		return decision.ActionNone
	}

	return action
}
