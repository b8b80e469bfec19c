package dataflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"athena/pkg/errors"
)

const alpacaDataBaseURL = "https://data.alpaca.markets"

// Bar is a single OHLCV candle.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type alpacaBarsResponse struct {
	Bars          []Bar  `json:"bars"`
	Symbol        string `json:"symbol"`
	NextPageToken string `json:"next_page_token"`
}

// AlpacaDataClient fetches historical bars from the Alpaca market data API.
type AlpacaDataClient struct {
	client *resty.Client
}

// NewAlpacaDataClient creates a market data client authenticated with the
// given trading API credentials.
func NewAlpacaDataClient(apiKey, apiSecret string) *AlpacaDataClient {
	client := resty.New()
	client.SetBaseURL(alpacaDataBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("APCA-API-KEY-ID", apiKey)
	client.SetHeader("APCA-API-SECRET-KEY", apiSecret)

	return &AlpacaDataClient{client: client}
}

// Bars returns candles for a symbol from startDate, oldest first.
// Timeframe accepts the Alpaca notation (1Min, 5Min, 15Min, 1Hour, 1Day).
func (ac *AlpacaDataClient) Bars(ctx context.Context, symbol, timeframe, startDate string, limit int) ([]Bar, error) {
	if limit <= 0 {
		limit = 1000
	}

	var result alpacaBarsResponse
	resp, err := ac.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"timeframe":  timeframe,
			"start":      startDate,
			"limit":      fmt.Sprintf("%d", limit),
			"adjustment": "raw",
			"feed":       "iex",
		}).
		SetResult(&result).
		Get(fmt.Sprintf("/v2/stocks/%s/bars", normalizeSymbol(symbol)))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "alpaca bars %s: %v", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, errors.Wrapf(errors.ErrExternal, "alpaca bars %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	return result.Bars, nil
}

// PriceHistory formats a bar window as a markdown table for analyst prompts.
func (ac *AlpacaDataClient) PriceHistory(ctx context.Context, symbol, currDate string, lookBackDays int, timeframe string) (string, error) {
	startDate, err := shiftDate(currDate, -lookBackDays)
	if err != nil {
		return "", err
	}
	if timeframe == "" {
		timeframe = "1Day"
	}

	bars, err := ac.Bars(ctx, symbol, timeframe, startDate, 0)
	if err != nil {
		return "", err
	}
	if len(bars) == 0 {
		return "", errors.Wrapf(errors.ErrDataUnavailable, "no bars for %s from %s", symbol, startDate)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Stock data for %s from %s to present (%s bars):\n\n", symbol, startDate, timeframe)
	b.WriteString("| Date | Open | High | Low | Close | Volume |\n")
	b.WriteString("|------|------|------|-----|-------|--------|\n")
	for _, bar := range bars {
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.2f | %.2f | %.0f |\n",
			bar.Timestamp.UTC().Format("2006-01-02 15:04"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	first := bars[0].Close
	last := bars[len(bars)-1].Close
	if first > 0 {
		fmt.Fprintf(&b, "\nWindow change: %+.2f%% (%.2f to %.2f)\n", (last-first)/first*100, first, last)
	}

	return b.String(), nil
}

// normalizeSymbol strips slash notation used by crypto pairs.
func normalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "/", "")
}
