package dataflows

import (
	"context"
	"fmt"

	"athena/pkg/logger"
)

// dataErrorPrefix marks a report that could not be fetched. Analysts see
// the marker and reason about the gap instead of failing the run.
const dataErrorPrefix = "[DATA ERROR]"

// ReportCache stores rendered reports keyed by kind, symbol and date.
// A nil cache disables caching.
type ReportCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Service is the single entry point agents use for market, news, macro
// and fundamental data. Every method returns a usable report string;
// provider failures degrade to a marked placeholder rather than an error.
type Service struct {
	finnhub *FinnhubClient
	fred    *FredClient
	alpaca  *AlpacaDataClient
	cache   ReportCache
	log     *logger.Logger
}

// NewService wires the data providers. cache may be nil.
func NewService(finnhub *FinnhubClient, fred *FredClient, alpaca *AlpacaDataClient, cache ReportCache) *Service {
	return &Service{
		finnhub: finnhub,
		fred:    fred,
		alpaca:  alpaca,
		cache:   cache,
		log:     logger.Get().With("component", "dataflows"),
	}
}

// report runs a fetch with caching and the degradation contract.
func (s *Service) report(ctx context.Context, key, description string, fetch func() (string, error)) string {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached
		}
	}

	text, err := fetch()
	if err != nil {
		s.log.Warnw("data fetch failed", "report", key, "error", err)
		return fmt.Sprintf("%s %s unavailable: %v", dataErrorPrefix, description, err)
	}
	if text == "" {
		return fmt.Sprintf("%s no %s found", dataErrorPrefix, description)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, text)
	}

	return text
}

// PriceHistory returns the OHLCV window report for a symbol.
func (s *Service) PriceHistory(ctx context.Context, symbol, currDate string, lookBackDays int, timeframe string) string {
	key := fmt.Sprintf("price:%s:%s:%d:%s", symbol, currDate, lookBackDays, timeframe)
	return s.report(ctx, key, "price data for "+symbol, func() (string, error) {
		return s.alpaca.PriceHistory(ctx, symbol, currDate, lookBackDays, timeframe)
	})
}

// TechnicalAnalysis returns the indicator report for a symbol.
func (s *Service) TechnicalAnalysis(ctx context.Context, symbol, currDate string, lookBackDays int, timeframe string) string {
	key := fmt.Sprintf("technical:%s:%s:%d:%s", symbol, currDate, lookBackDays, timeframe)
	return s.report(ctx, key, "technical analysis for "+symbol, func() (string, error) {
		return s.alpaca.TechnicalAnalysis(ctx, symbol, currDate, lookBackDays, timeframe)
	})
}

// CompanyNews returns the company news digest.
func (s *Service) CompanyNews(ctx context.Context, symbol, currDate string, lookBackDays int) string {
	key := fmt.Sprintf("news:%s:%s:%d", symbol, currDate, lookBackDays)
	return s.report(ctx, key, "news for "+symbol, func() (string, error) {
		return s.finnhub.CompanyNews(ctx, symbol, currDate, lookBackDays)
	})
}

// GlobalNews returns general market headlines.
func (s *Service) GlobalNews(ctx context.Context, currDate string) string {
	key := "global-news:" + currDate
	return s.report(ctx, key, "global market news", func() (string, error) {
		return s.finnhub.MarketNews(ctx, currDate)
	})
}

// InsiderSentiment returns the monthly insider sentiment report.
func (s *Service) InsiderSentiment(ctx context.Context, symbol, currDate string, lookBackDays int) string {
	key := fmt.Sprintf("insider-sentiment:%s:%s:%d", symbol, currDate, lookBackDays)
	return s.report(ctx, key, "insider sentiment for "+symbol, func() (string, error) {
		return s.finnhub.InsiderSentiment(ctx, symbol, currDate, lookBackDays)
	})
}

// InsiderTransactions returns the insider trade report.
func (s *Service) InsiderTransactions(ctx context.Context, symbol, currDate string, lookBackDays int) string {
	key := fmt.Sprintf("insider-txns:%s:%s:%d", symbol, currDate, lookBackDays)
	return s.report(ctx, key, "insider transactions for "+symbol, func() (string, error) {
		return s.finnhub.InsiderTransactions(ctx, symbol, currDate, lookBackDays)
	})
}

// SocialSentiment returns the social media sentiment report.
func (s *Service) SocialSentiment(ctx context.Context, symbol, currDate string, lookBackDays int) string {
	key := fmt.Sprintf("social:%s:%s:%d", symbol, currDate, lookBackDays)
	return s.report(ctx, key, "social sentiment for "+symbol, func() (string, error) {
		return s.finnhub.SocialSentiment(ctx, symbol, currDate, lookBackDays)
	})
}

// Fundamentals returns the company profile and key metrics report.
func (s *Service) Fundamentals(ctx context.Context, symbol, currDate string) string {
	key := fmt.Sprintf("fundamentals:%s:%s", symbol, currDate)
	return s.report(ctx, key, "fundamentals for "+symbol, func() (string, error) {
		return s.finnhub.Fundamentals(ctx, symbol, currDate)
	})
}

// EarningsCalendar returns scheduled earnings around the current date.
func (s *Service) EarningsCalendar(ctx context.Context, symbol, currDate string) string {
	key := fmt.Sprintf("earnings-calendar:%s:%s", symbol, currDate)
	return s.report(ctx, key, "earnings calendar for "+symbol, func() (string, error) {
		start, err := shiftDate(currDate, -30)
		if err != nil {
			return "", err
		}
		end, err := shiftDate(currDate, 90)
		if err != nil {
			return "", err
		}
		return s.finnhub.EarningsCalendar(ctx, symbol, start, end)
	})
}

// EarningsSurprises returns the historical beat/miss analysis.
func (s *Service) EarningsSurprises(ctx context.Context, symbol string, lookbackQuarters int) string {
	key := fmt.Sprintf("earnings-surprises:%s:%d", symbol, lookbackQuarters)
	return s.report(ctx, key, "earnings surprises for "+symbol, func() (string, error) {
		return s.finnhub.EarningsSurprises(ctx, symbol, lookbackQuarters)
	})
}

// MacroSummary returns the combined macro briefing.
func (s *Service) MacroSummary(ctx context.Context, currDate string, lookBackDays int) string {
	key := fmt.Sprintf("macro:%s:%d", currDate, lookBackDays)
	return s.report(ctx, key, "macro analysis", func() (string, error) {
		return s.fred.MacroSummary(ctx, currDate, lookBackDays)
	})
}

// EconomicIndicators returns the indicator dashboard.
func (s *Service) EconomicIndicators(ctx context.Context, currDate string, lookBackDays int) string {
	key := fmt.Sprintf("econ:%s:%d", currDate, lookBackDays)
	return s.report(ctx, key, "economic indicators", func() (string, error) {
		return s.fred.EconomicIndicators(ctx, currDate, lookBackDays)
	})
}

// YieldCurve returns the Treasury curve report.
func (s *Service) YieldCurve(ctx context.Context, currDate string) string {
	key := "yield-curve:" + currDate
	return s.report(ctx, key, "yield curve", func() (string, error) {
		return s.fred.YieldCurve(ctx, currDate)
	})
}
