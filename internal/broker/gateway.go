package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"athena/internal/domain/decision"
)

// OrderSide is the direction of a market order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderRequest describes a market order. Exactly one of Notional or Qty
// should be set; shorts require an integer Qty because fractional shares
// cannot be sold short.
type OrderRequest struct {
	Symbol   string
	Side     OrderSide
	Notional decimal.Decimal
	Qty      decimal.Decimal
}

// OrderResult is the outcome of an order operation. It is a value, not
// an error: execution failure never aborts the pipeline, it is reported
// alongside the analytical decision.
type OrderResult struct {
	Success bool
	OrderID string
	Message string
	Error   string
}

// AccountSnapshot is the live account picture injected into prompts.
type AccountSnapshot struct {
	BuyingPower    decimal.Decimal
	Cash           decimal.Decimal
	Equity         decimal.Decimal
	DailyChange    decimal.Decimal
	DailyChangePct decimal.Decimal
}

// PositionDetail describes an open position for a symbol.
type PositionDetail struct {
	Symbol      string
	Qty         decimal.Decimal
	AvgEntry    decimal.Decimal
	TodayPnL    decimal.Decimal
	TodayPnLPct decimal.Decimal
	TotalPnL    decimal.Decimal
	TotalPnLPct decimal.Decimal
	MarketValue decimal.Decimal
}

// Quote is the latest bid/ask for a symbol, used for quantity sizing.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// Gateway is the position/account/order service the orchestrator depends
// on. Implementations must be safe for the orchestrator's sequential use
// and must never block indefinitely.
type Gateway interface {
	// CurrentPosition returns the live directional exposure for a
	// symbol. It defaults to NEUTRAL on any lookup error and never
	// returns one; agent prompts must always have a position to reason
	// about.
	CurrentPosition(ctx context.Context, symbol string) decision.Position

	// AccountSnapshot returns buying power, cash, and daily change.
	AccountSnapshot(ctx context.Context) (AccountSnapshot, error)

	// OpenPosition returns detail for an open position, or nil when the
	// symbol has none.
	OpenPosition(ctx context.Context, symbol string) (*PositionDetail, error)

	// LatestQuote returns the current bid/ask used for share sizing.
	LatestQuote(ctx context.Context, symbol string) (Quote, error)

	// PlaceMarketOrder submits a market order.
	PlaceMarketOrder(ctx context.Context, req OrderRequest) OrderResult

	// ClosePosition closes a percentage (0-100] of an open position.
	ClosePosition(ctx context.Context, symbol string, percentage float64) OrderResult
}
