package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"athena/internal/broker"
	"athena/internal/domain/decision"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

// Client implements broker.Gateway against the Alpaca trading REST API.
type Client struct {
	trading *resty.Client
	data    *resty.Client
	log     *logger.Logger
}

// Config holds the Alpaca endpoints and credentials.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string // e.g. https://paper-api.alpaca.markets
	DataURL   string // e.g. https://data.alpaca.markets
}

// NewClient creates a trading client. Paper and live accounts differ
// only in BaseURL.
func NewClient(cfg Config) *Client {
	if cfg.DataURL == "" {
		cfg.DataURL = "https://data.alpaca.markets"
	}

	newREST := func(baseURL string) *resty.Client {
		c := resty.New()
		c.SetBaseURL(baseURL)
		c.SetTimeout(30 * time.Second)
		c.SetHeader("APCA-API-KEY-ID", cfg.APIKey)
		c.SetHeader("APCA-API-SECRET-KEY", cfg.APISecret)
		return c
	}

	return &Client{
		trading: newREST(cfg.BaseURL),
		data:    newREST(cfg.DataURL),
		log:     logger.Get().With("component", "alpaca"),
	}
}

type accountResponse struct {
	BuyingPower decimal.Decimal `json:"buying_power"`
	Cash        decimal.Decimal `json:"cash"`
	Equity      decimal.Decimal `json:"equity"`
	LastEquity  decimal.Decimal `json:"last_equity"`
}

type positionResponse struct {
	Symbol               string          `json:"symbol"`
	Qty                  decimal.Decimal `json:"qty"`
	AvgEntryPrice        decimal.Decimal `json:"avg_entry_price"`
	MarketValue          decimal.Decimal `json:"market_value"`
	UnrealizedPL         decimal.Decimal `json:"unrealized_pl"`
	UnrealizedIntradayPL decimal.Decimal `json:"unrealized_intraday_pl"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Status string `json:"status"`
}

type alpacaError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type latestQuoteResponse struct {
	Quote struct {
		BidPrice decimal.Decimal `json:"bp"`
		AskPrice decimal.Decimal `json:"ap"`
		BidSize  int             `json:"bs"`
		AskSize  int             `json:"as"`
	} `json:"quote"`
}

// normalizeSymbol strips the slash used in crypto pair notation. Alpaca
// position symbols come back without it.
func normalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "/", "")
}

// CurrentPosition reports LONG, SHORT or NEUTRAL for a symbol. Any
// lookup failure degrades to NEUTRAL so a run can still proceed.
func (c *Client) CurrentPosition(ctx context.Context, symbol string) decision.Position {
	detail, err := c.OpenPosition(ctx, symbol)
	if err != nil {
		c.log.Warnw("position lookup failed, assuming neutral", "symbol", symbol, "error", err)
		return decision.PositionNeutral
	}
	if detail == nil {
		return decision.PositionNeutral
	}

	switch {
	case detail.Qty.GreaterThan(decimal.Zero):
		return decision.PositionLong
	case detail.Qty.LessThan(decimal.Zero):
		return decision.PositionShort
	default:
		return decision.PositionNeutral
	}
}

// AccountSnapshot returns buying power, cash and the daily equity change.
func (c *Client) AccountSnapshot(ctx context.Context) (broker.AccountSnapshot, error) {
	var account accountResponse
	resp, err := c.trading.R().
		SetContext(ctx).
		SetResult(&account).
		Get("/v2/account")
	if err != nil {
		return broker.AccountSnapshot{}, errors.Wrapf(errors.ErrExternal, "alpaca account: %v", err)
	}
	if resp.StatusCode() != 200 {
		return broker.AccountSnapshot{}, errors.Wrapf(errors.ErrExternal, "alpaca account: status %d: %s", resp.StatusCode(), resp.String())
	}

	snapshot := broker.AccountSnapshot{
		BuyingPower: account.BuyingPower,
		Cash:        account.Cash,
		Equity:      account.Equity,
		DailyChange: account.Equity.Sub(account.LastEquity),
	}
	if !account.LastEquity.IsZero() {
		snapshot.DailyChangePct = snapshot.DailyChange.Div(account.LastEquity).Mul(decimal.NewFromInt(100))
	}

	return snapshot, nil
}

// OpenPosition returns the open position for a symbol, or nil when none
// exists.
func (c *Client) OpenPosition(ctx context.Context, symbol string) (*broker.PositionDetail, error) {
	var position positionResponse
	resp, err := c.trading.R().
		SetContext(ctx).
		SetResult(&position).
		Get("/v2/positions/" + normalizeSymbol(symbol))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "alpaca position %s: %v", symbol, err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.StatusCode() != 200 {
		return nil, errors.Wrapf(errors.ErrExternal, "alpaca position %s: status %d", symbol, resp.StatusCode())
	}

	detail := &broker.PositionDetail{
		Symbol:      position.Symbol,
		Qty:         position.Qty,
		AvgEntry:    position.AvgEntryPrice,
		MarketValue: position.MarketValue,
		TodayPnL:    position.UnrealizedIntradayPL,
		TotalPnL:    position.UnrealizedPL,
	}

	costBasis := position.AvgEntryPrice.Mul(position.Qty).Abs()
	if !costBasis.IsZero() {
		hundred := decimal.NewFromInt(100)
		detail.TodayPnLPct = position.UnrealizedIntradayPL.Div(costBasis).Mul(hundred)
		detail.TotalPnLPct = position.UnrealizedPL.Div(costBasis).Mul(hundred)
	}

	return detail, nil
}

// LatestQuote returns the most recent bid/ask for a symbol.
func (c *Client) LatestQuote(ctx context.Context, symbol string) (broker.Quote, error) {
	var result latestQuoteResponse
	resp, err := c.data.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/v2/stocks/%s/quotes/latest", normalizeSymbol(symbol)))
	if err != nil {
		return broker.Quote{}, errors.Wrapf(errors.ErrExternal, "alpaca quote %s: %v", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return broker.Quote{}, errors.Wrapf(errors.ErrExternal, "alpaca quote %s: status %d", symbol, resp.StatusCode())
	}

	return broker.Quote{
		Bid: result.Quote.BidPrice,
		Ask: result.Quote.AskPrice,
	}, nil
}

// PlaceMarketOrder submits a market order sized by qty or notional.
// Crypto pairs use GTC because Alpaca rejects DAY for them.
func (c *Client) PlaceMarketOrder(ctx context.Context, req broker.OrderRequest) broker.OrderResult {
	timeInForce := "day"
	if strings.Contains(req.Symbol, "/") {
		timeInForce = "gtc"
	}

	body := map[string]interface{}{
		"symbol":        normalizeSymbol(req.Symbol),
		"side":          string(req.Side),
		"type":          "market",
		"time_in_force": timeInForce,
	}
	switch {
	case req.Qty.GreaterThan(decimal.Zero):
		body["qty"] = req.Qty.String()
	case req.Notional.GreaterThan(decimal.Zero):
		body["notional"] = req.Notional.String()
	default:
		return broker.OrderResult{Error: "order must specify qty or notional"}
	}

	var order orderResponse
	var apiErr alpacaError
	resp, err := c.trading.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&order).
		SetError(&apiErr).
		Post("/v2/orders")
	if err != nil {
		return broker.OrderResult{Error: fmt.Sprintf("placing %s order for %s: %v", req.Side, req.Symbol, err)}
	}
	if resp.StatusCode() != 200 {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.String()
		}
		return broker.OrderResult{Error: fmt.Sprintf("placing %s order for %s: status %d: %s", req.Side, req.Symbol, resp.StatusCode(), msg)}
	}

	c.log.Infow("order placed", "symbol", req.Symbol, "side", req.Side, "order_id", order.ID)

	return broker.OrderResult{
		Success: true,
		OrderID: order.ID,
		Message: fmt.Sprintf("Successfully placed %s order for %s", req.Side, req.Symbol),
	}
}

// ClosePosition liquidates part or all of a position. A percentage of
// 100 or more closes the whole position.
func (c *Client) ClosePosition(ctx context.Context, symbol string, percentage float64) broker.OrderResult {
	request := c.trading.R().SetContext(ctx)
	if percentage < 100 {
		request.SetQueryParam("percentage", fmt.Sprintf("%.2f", percentage))
	}

	var order orderResponse
	var apiErr alpacaError
	resp, err := request.
		SetResult(&order).
		SetError(&apiErr).
		Delete("/v2/positions/" + normalizeSymbol(symbol))
	if err != nil {
		return broker.OrderResult{Error: fmt.Sprintf("closing position for %s: %v", symbol, err)}
	}
	if resp.StatusCode() == 404 {
		return broker.OrderResult{Error: fmt.Sprintf("no open position for %s", symbol)}
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 207 {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.String()
		}
		return broker.OrderResult{Error: fmt.Sprintf("closing position for %s: status %d: %s", symbol, resp.StatusCode(), msg)}
	}

	c.log.Infow("position close submitted", "symbol", symbol, "percentage", percentage, "order_id", order.ID)

	return broker.OrderResult{
		Success: true,
		OrderID: order.ID,
		Message: fmt.Sprintf("Successfully closed %.0f%% of %s position", percentage, symbol),
	}
}
