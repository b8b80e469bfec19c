package decision

import (
	"fmt"
	"strings"
)

// Marker phrases searched over the whole response, in priority order.
// The first phrase that matches wins; each is tried with every action in
// the active vocabulary before falling through to the next phrase.
var markerPhrases = []string{
	"FINAL TRANSACTION PROPOSAL: **%s**",
	"FINAL INVESTMENT DECISION: **%s**",
	"FINAL TRADING DECISION: **%s**",
	"FINAL RISK MANAGEMENT DECISION: **%s**",
	"FINAL DECISION: **%s**",
}

// tailWindow is the size of the trailing window scanned for a bolded
// action token when no marker phrase matched.
const tailWindow = 100

// Extract parses free-form agent output into a normalized action.
//
// The search is case-insensitive and fully deterministic: marker phrases
// in priority order over the whole text, then a scan of the last 100
// characters for a bolded action token. Tokens outside the mode's
// vocabulary never match, which keeps a stray "SHORT" in investment-mode
// text from leaking through. The second return value is false when
// nothing recognizable was found; callers must fall back to the LLM
// extractor or a safe default, never to a trade-triggering action.
func Extract(text string, mode Mode) (Action, bool) {
	content := strings.ToUpper(text)

	for _, phrase := range markerPhrases {
		for _, action := range mode.Actions() {
			if strings.Contains(content, fmt.Sprintf(phrase, action)) {
				return action, true
			}
		}
	}

	tail := content
	if len(tail) > tailWindow {
		tail = tail[len(tail)-tailWindow:]
	}
	for _, action := range mode.Actions() {
		if strings.Contains(tail, fmt.Sprintf("**%s**", action)) {
			return action, true
		}
	}

	return ActionNone, false
}

// FormatFinalDecision renders the canonical machine-parseable decision
// string. An empty or invalid action renders as NO_RECOMMENDATION so the
// user never sees garbage text presented as an action.
func FormatFinalDecision(action Action, mode Mode) string {
	if action == "" || action == ActionNone || !mode.Valid(action) {
		return "FINAL DECISION: **NO_RECOMMENDATION**"
	}
	return fmt.Sprintf("FINAL TRANSACTION PROPOSAL: **%s**", action)
}
