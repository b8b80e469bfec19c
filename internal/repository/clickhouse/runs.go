package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"athena/internal/domain/state"
	"athena/pkg/errors"
)

// RunRecord is one completed analysis run archived for later study.
type RunRecord struct {
	RunID              string    `ch:"run_id"`
	Symbol             string    `ch:"symbol"`
	TradeDate          string    `ch:"trade_date"`
	Mode               string    `ch:"mode"`
	MacroReport        string    `ch:"macro_report"`
	MarketReport       string    `ch:"market_report"`
	SentimentReport    string    `ch:"sentiment_report"`
	NewsReport         string    `ch:"news_report"`
	FundamentalsReport string    `ch:"fundamentals_report"`
	InvestmentPlan     string    `ch:"investment_plan"`
	TraderPlan         string    `ch:"trader_plan"`
	FinalDecision      string    `ch:"final_decision"`
	RecommendedAction  string    `ch:"recommended_action"`
	StartPosition      string    `ch:"start_position"`
	StartedAt          time.Time `ch:"started_at"`
	CompletedAt        time.Time `ch:"completed_at"`
}

// RunRepository archives analysis runs in ClickHouse.
type RunRepository struct {
	conn driver.Conn
}

// NewRunRepository creates a new run repository.
func NewRunRepository(conn driver.Conn) *RunRepository {
	return &RunRepository{conn: conn}
}

// RecordFromState builds an archive record from a finished run.
func RecordFromState(s *state.AnalysisState, startPosition string, completedAt time.Time) RunRecord {
	return RunRecord{
		RunID:              s.RunID.String(),
		Symbol:             s.Symbol,
		TradeDate:          s.TradeDate.Format("2006-01-02"),
		Mode:               string(s.Mode),
		MacroReport:        s.MacroReport,
		MarketReport:       s.MarketReport,
		SentimentReport:    s.SentimentReport,
		NewsReport:         s.NewsReport,
		FundamentalsReport: s.FundamentalsReport,
		InvestmentPlan:     s.InvestmentPlan,
		TraderPlan:         s.TraderInvestmentPlan,
		FinalDecision:      s.FinalTradeDecision,
		RecommendedAction:  string(s.RecommendedAction),
		StartPosition:      startPosition,
		StartedAt:          s.StartedAt,
		CompletedAt:        completedAt,
	}
}

// Insert archives one run.
func (r *RunRepository) Insert(ctx context.Context, record RunRecord) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO analysis_runs (
			run_id, symbol, trade_date, mode,
			macro_report, market_report, sentiment_report, news_report, fundamentals_report,
			investment_plan, trader_plan, final_decision, recommended_action,
			start_position, started_at, completed_at
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	err = batch.Append(
		record.RunID, record.Symbol, record.TradeDate, record.Mode,
		record.MacroReport, record.MarketReport, record.SentimentReport,
		record.NewsReport, record.FundamentalsReport,
		record.InvestmentPlan, record.TraderPlan, record.FinalDecision,
		record.RecommendedAction, record.StartPosition,
		record.StartedAt, record.CompletedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to append run record")
	}

	return batch.Send()
}

// RecentBySymbol returns the latest archived runs for a symbol.
func (r *RunRepository) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []RunRecord
	err := r.conn.Select(ctx, &records, `
		SELECT run_id, symbol, trade_date, mode,
		       macro_report, market_report, sentiment_report, news_report, fundamentals_report,
		       investment_plan, trader_plan, final_decision, recommended_action,
		       start_position, started_at, completed_at
		FROM analysis_runs
		WHERE symbol = ?
		ORDER BY completed_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}

	return records, nil
}
