package state

import (
	"time"

	"github.com/google/uuid"

	"athena/internal/domain/decision"
)

// Message is one entry in the conversational transcript threaded through
// a pipeline stage: a prompt, an assistant response, or a tool exchange.
type Message struct {
	Role       string    `json:"role"` // "system", "user", "assistant", "tool"
	Content    string    `json:"content"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Speaker identifies whose turn a debate entry belongs to.
type Speaker string

const (
	SpeakerBull    Speaker = "Bull"
	SpeakerBear    Speaker = "Bear"
	SpeakerRisky   Speaker = "Risky"
	SpeakerSafe    Speaker = "Safe"
	SpeakerNeutral Speaker = "Neutral"
	SpeakerJudge   Speaker = "Judge"
)

// InvestDebateState accumulates the bull/bear researcher debate.
type InvestDebateState struct {
	History         string
	BullHistory     string
	BearHistory     string
	CurrentResponse string
	LatestSpeaker   Speaker
	Count           int
	JudgeDecision   string
}

// RiskDebateState accumulates the risky/safe/neutral risk debate.
type RiskDebateState struct {
	History                string
	RiskyHistory           string
	SafeHistory            string
	NeutralHistory         string
	CurrentRiskyResponse   string
	CurrentSafeResponse    string
	CurrentNeutralResponse string
	LatestSpeaker          Speaker
	Count                  int
	JudgeDecision          string
}

// AnalysisState is the mutable record threaded through every pipeline
// stage for one (symbol, trade date) run. Stages mutate it additively and
// strictly sequentially; it is never shared between concurrent stages.
type AnalysisState struct {
	RunID     uuid.UUID
	Symbol    string
	TradeDate time.Time
	Mode      decision.Mode

	// Transcript for the currently running stage. Cleared between stages
	// to bound context size.
	Messages []Message

	// Per-analyst reports, each written exactly once by its owning stage.
	// Downstream stages rely on these being non-empty strings, possibly
	// degraded fallback text, never missing.
	MarketReport       string
	SentimentReport    string
	NewsReport         string
	FundamentalsReport string
	MacroReport        string

	InvestDebate InvestDebateState
	RiskDebate   RiskDebateState

	InvestmentPlan       string
	TraderInvestmentPlan string

	// CurrentPosition is refreshed from the broker at the start of the
	// Trader and Risk Manager stages; it is never trusted across stages.
	CurrentPosition decision.Position

	RecommendedAction  decision.Action
	FinalTradeDecision string

	StartedAt time.Time
}

// New creates a fresh state for a run.
func New(symbol string, tradeDate time.Time, mode decision.Mode) *AnalysisState {
	return &AnalysisState{
		RunID:           uuid.New(),
		Symbol:          symbol,
		TradeDate:       tradeDate,
		Mode:            mode,
		CurrentPosition: decision.PositionNeutral,
		StartedAt:       time.Now(),
	}
}

// AppendMessage adds a message to the current stage transcript.
func (s *AnalysisState) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// AppendToolExchange records a tool call result in the transcript.
func (s *AnalysisState) AppendToolExchange(callID, toolName, result string) {
	s.Messages = append(s.Messages, Message{
		Role:       "tool",
		Content:    result,
		ToolCallID: callID,
		ToolName:   toolName,
		Timestamp:  time.Now(),
	})
}

// ClearMessages drops the stage transcript. Called between stages so each
// stage starts from the reports rather than the raw conversation.
func (s *AnalysisState) ClearMessages() {
	s.Messages = nil
}

// ResetForNewRun prepares the state for another loop iteration on the
// same symbol: reports, plans, and debate counters are cleared, while the
// position field falls back to NEUTRAL until the next live broker query.
func (s *AnalysisState) ResetForNewRun(tradeDate time.Time) {
	s.RunID = uuid.New()
	s.TradeDate = tradeDate
	s.Messages = nil
	s.MarketReport = ""
	s.SentimentReport = ""
	s.NewsReport = ""
	s.FundamentalsReport = ""
	s.MacroReport = ""
	s.InvestDebate = InvestDebateState{}
	s.RiskDebate = RiskDebateState{}
	s.InvestmentPlan = ""
	s.TraderInvestmentPlan = ""
	s.CurrentPosition = decision.PositionNeutral
	s.RecommendedAction = ""
	s.FinalTradeDecision = ""
	s.StartedAt = time.Now()
}

// Reports returns the five analyst reports concatenated in the order the
// downstream prompts expect them.
func (s *AnalysisState) Reports() string {
	return s.MacroReport + "\n\n" + s.MarketReport + "\n\n" + s.SentimentReport +
		"\n\n" + s.NewsReport + "\n\n" + s.FundamentalsReport
}
