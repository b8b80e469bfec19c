package tools

import (
	"context"

	"athena/internal/dataflows"
)

// Per-analyst tool catalogs. Each analyst only sees the tools relevant
// to its report so the model cannot wander across domains.
var (
	MarketTools       = []string{"get_price_history", "get_technical_analysis"}
	SocialTools       = []string{"get_social_sentiment", "get_company_news"}
	NewsTools         = []string{"get_global_news", "get_company_news", "get_macro_analysis"}
	FundamentalsTools = []string{"get_fundamentals", "get_earnings_calendar", "get_earnings_surprise_analysis", "get_insider_sentiment", "get_insider_transactions"}
	MacroTools        = []string{"get_macro_analysis", "get_economic_indicators", "get_yield_curve_analysis"}
)

// RegisterDataTools exposes the dataflow reports as callable tools.
// Tool handlers surface provider failures as marked report text, so
// Call never returns an error for a registered data tool.
func RegisterDataTools(r *Registry, data *dataflows.Service) {
	symbolProp := StringProperty("Ticker symbol, e.g. AAPL")
	dateProp := StringProperty("Current trading date in yyyy-mm-dd format")
	lookBackProp := IntProperty("How many days to look back")

	r.Register(New(
		"get_price_history",
		"Get an OHLCV price table for a symbol over a lookback window.",
		ObjectSchema(map[string]interface{}{
			"symbol":         symbolProp,
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
			"timeframe":      StringProperty("Bar timeframe: 1Min, 5Min, 15Min, 1Hour, 1Day"),
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.PriceHistory(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 60),
				StringArg(args, "timeframe", "1Day")), nil
		},
	))

	r.Register(New(
		"get_technical_analysis",
		"Get a full technical indicator report: momentum, volatility, trend and volume with an overall signal.",
		ObjectSchema(map[string]interface{}{
			"symbol":         symbolProp,
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
			"timeframe":      StringProperty("Bar timeframe: 1Min, 5Min, 15Min, 1Hour, 1Day"),
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.TechnicalAnalysis(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 120),
				StringArg(args, "timeframe", "1Day")), nil
		},
	))

	r.Register(New(
		"get_company_news",
		"Get recent news headlines and summaries for a company.",
		ObjectSchema(map[string]interface{}{
			"symbol":         symbolProp,
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.CompanyNews(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 7)), nil
		},
	))

	r.Register(New(
		"get_global_news",
		"Get general market and world news headlines.",
		ObjectSchema(map[string]interface{}{
			"curr_date": dateProp,
		}, []string{"curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.GlobalNews(ctx, StringArg(args, "curr_date", "")), nil
		},
	))

	r.Register(New(
		"get_social_sentiment",
		"Get aggregated social media sentiment and mention counts for a company.",
		ObjectSchema(map[string]interface{}{
			"symbol":         symbolProp,
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.SocialSentiment(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 7)), nil
		},
	))

	r.Register(New(
		"get_insider_sentiment",
		"Get monthly insider net buying and share purchase ratio for a company.",
		ObjectSchema(map[string]interface{}{
			"symbol":         symbolProp,
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.InsiderSentiment(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 30)), nil
		},
	))

	r.Register(New(
		"get_insider_transactions",
		"Get recent insider trades for a company from SEC filings.",
		ObjectSchema(map[string]interface{}{
			"symbol":         symbolProp,
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.InsiderTransactions(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 30)), nil
		},
	))

	r.Register(New(
		"get_fundamentals",
		"Get the company profile and key financial metrics.",
		ObjectSchema(map[string]interface{}{
			"symbol":    symbolProp,
			"curr_date": dateProp,
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.Fundamentals(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", "")), nil
		},
	))

	r.Register(New(
		"get_earnings_calendar",
		"Get scheduled earnings dates with EPS and revenue estimates versus actuals.",
		ObjectSchema(map[string]interface{}{
			"symbol":    symbolProp,
			"curr_date": dateProp,
		}, []string{"symbol", "curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.EarningsCalendar(ctx,
				StringArg(args, "symbol", ""),
				StringArg(args, "curr_date", "")), nil
		},
	))

	r.Register(New(
		"get_earnings_surprise_analysis",
		"Analyze historical earnings beats and misses over recent quarters.",
		ObjectSchema(map[string]interface{}{
			"symbol":            symbolProp,
			"lookback_quarters": IntProperty("Number of quarters to analyze"),
		}, []string{"symbol"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.EarningsSurprises(ctx,
				StringArg(args, "symbol", ""),
				IntArg(args, "lookback_quarters", 8)), nil
		},
	))

	r.Register(New(
		"get_macro_analysis",
		"Get a macro economic briefing: Fed funds, CPI, PPI, employment, GDP, VIX and the Treasury curve.",
		ObjectSchema(map[string]interface{}{
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
		}, []string{"curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.MacroSummary(ctx,
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 90)), nil
		},
	))

	r.Register(New(
		"get_economic_indicators",
		"Get the key economic indicator dashboard with latest values and changes.",
		ObjectSchema(map[string]interface{}{
			"curr_date":      dateProp,
			"look_back_days": lookBackProp,
		}, []string{"curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.EconomicIndicators(ctx,
				StringArg(args, "curr_date", ""),
				IntArg(args, "look_back_days", 90)), nil
		},
	))

	r.Register(New(
		"get_yield_curve_analysis",
		"Get the Treasury yield curve with inversion analysis.",
		ObjectSchema(map[string]interface{}{
			"curr_date": dateProp,
		}, []string{"curr_date"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return data.YieldCurve(ctx, StringArg(args, "curr_date", "")), nil
		},
	))
}
