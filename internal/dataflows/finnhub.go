package dataflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"

	"athena/pkg/errors"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient handles Finnhub API operations.
type FinnhubClient struct {
	client *resty.Client
	apiKey string
}

// NewFinnhubClient creates a new Finnhub client.
func NewFinnhubClient(apiKey string) *FinnhubClient {
	client := resty.New()
	client.SetBaseURL(finnhubBaseURL)
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		apiKey: apiKey,
	}
}

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

type finnhubInsiderSentiment struct {
	Data []struct {
		Symbol string  `json:"symbol"`
		Year   int     `json:"year"`
		Month  int     `json:"month"`
		Change float64 `json:"change"`
		MSPR   float64 `json:"mspr"`
	} `json:"data"`
}

type finnhubInsiderTransactions struct {
	Data []struct {
		Name             string  `json:"name"`
		Share            int64   `json:"share"`
		Change           int64   `json:"change"`
		TransactionDate  string  `json:"transactionDate"`
		TransactionCode  string  `json:"transactionCode"`
		TransactionPrice float64 `json:"transactionPrice"`
	} `json:"data"`
}

type finnhubSocialSentiment struct {
	Data []struct {
		AtTime          string  `json:"atTime"`
		Mention         int     `json:"mention"`
		PositiveMention int     `json:"positiveMention"`
		NegativeMention int     `json:"negativeMention"`
		Score           float64 `json:"score"`
	} `json:"data"`
}

type finnhubProfile struct {
	Name              string  `json:"name"`
	Ticker            string  `json:"ticker"`
	Exchange          string  `json:"exchange"`
	Industry          string  `json:"finnhubIndustry"`
	IPO               string  `json:"ipo"`
	MarketCap         float64 `json:"marketCapitalization"`
	SharesOutstanding float64 `json:"shareOutstanding"`
	WebURL            string  `json:"weburl"`
}

type finnhubBasicFinancials struct {
	Metric map[string]interface{} `json:"metric"`
}

type finnhubEarnings []struct {
	Period          string  `json:"period"`
	Quarter         int     `json:"quarter"`
	Year            int     `json:"year"`
	Actual          float64 `json:"actual"`
	Estimate        float64 `json:"estimate"`
	Surprise        float64 `json:"surprise"`
	SurprisePercent float64 `json:"surprisePercent"`
}

type finnhubEarningsCalendar struct {
	EarningsCalendar []struct {
		Date            string  `json:"date"`
		Symbol          string  `json:"symbol"`
		EPSActual       float64 `json:"epsActual"`
		EPSEstimate     float64 `json:"epsEstimate"`
		RevenueActual   float64 `json:"revenueActual"`
		RevenueEstimate float64 `json:"revenueEstimate"`
		Hour            string  `json:"hour"`
	} `json:"earningsCalendar"`
}

func (fc *FinnhubClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	if fc.apiKey == "" {
		return errors.Wrap(errors.ErrMissingCredentials, "finnhub API key not configured")
	}

	params["token"] = fc.apiKey
	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return errors.Wrapf(errors.ErrExternal, "finnhub %s: %v", path, err)
	}
	if resp.StatusCode() == 429 {
		return errors.Wrapf(errors.ErrRateLimitExceeded, "finnhub %s", path)
	}
	if resp.StatusCode() != 200 {
		return errors.Wrapf(errors.ErrExternal, "finnhub %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}

	return nil
}

// CompanyNews returns a formatted news digest for a symbol over a window.
func (fc *FinnhubClient) CompanyNews(ctx context.Context, symbol, currDate string, lookBackDays int) (string, error) {
	from, err := shiftDate(currDate, -lookBackDays)
	if err != nil {
		return "", err
	}

	var news []finnhubNews
	if err := fc.get(ctx, "/company-news", map[string]string{
		"symbol": symbol,
		"from":   from,
		"to":     currDate,
	}, &news); err != nil {
		return "", err
	}

	if len(news) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s News, from %s to %s:\n\n", symbol, from, currDate)
	for _, item := range news {
		day := time.Unix(item.DateTime, 0).UTC().Format("2006-01-02")
		fmt.Fprintf(&b, "### %s (%s)\n%s\n\n", item.Headline, day, item.Summary)
	}

	return b.String(), nil
}

// MarketNews returns general market headlines for the global news report.
func (fc *FinnhubClient) MarketNews(ctx context.Context, currDate string) (string, error) {
	var news []finnhubNews
	if err := fc.get(ctx, "/news", map[string]string{
		"category": "general",
	}, &news); err != nil {
		return "", err
	}

	if len(news) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Global Market News as of %s:\n\n", currDate)
	for i, item := range news {
		if i >= 30 {
			break
		}
		day := time.Unix(item.DateTime, 0).UTC().Format("2006-01-02")
		fmt.Fprintf(&b, "### %s (%s, %s)\n%s\n\n", item.Headline, item.Source, day, item.Summary)
	}

	return b.String(), nil
}

// InsiderSentiment reports monthly insider net buying and the monthly
// share purchase ratio over the window.
func (fc *FinnhubClient) InsiderSentiment(ctx context.Context, symbol, currDate string, lookBackDays int) (string, error) {
	from, err := shiftDate(currDate, -lookBackDays)
	if err != nil {
		return "", err
	}

	var sentiment finnhubInsiderSentiment
	if err := fc.get(ctx, "/stock/insider-sentiment", map[string]string{
		"symbol": symbol,
		"from":   from,
		"to":     currDate,
	}, &sentiment); err != nil {
		return "", err
	}

	if len(sentiment.Data) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Insider Sentiment Data for %s to %s:\n", symbol, from, currDate)
	for _, entry := range sentiment.Data {
		fmt.Fprintf(&b, "### %d-%02d:\nChange: %.0f\nMonthly Share Purchase Ratio: %.2f\n\n",
			entry.Year, entry.Month, entry.Change, entry.MSPR)
	}
	b.WriteString("The change field refers to the net buying/selling from all insiders' transactions. " +
		"The mspr field refers to monthly share purchase ratio.")

	return b.String(), nil
}

// InsiderTransactions reports individual insider trades over the window.
func (fc *FinnhubClient) InsiderTransactions(ctx context.Context, symbol, currDate string, lookBackDays int) (string, error) {
	from, err := shiftDate(currDate, -lookBackDays)
	if err != nil {
		return "", err
	}

	var txns finnhubInsiderTransactions
	if err := fc.get(ctx, "/stock/insider-transactions", map[string]string{
		"symbol": symbol,
		"from":   from,
		"to":     currDate,
	}, &txns); err != nil {
		return "", err
	}

	if len(txns.Data) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Insider Transactions from %s to %s:\n\n", symbol, from, currDate)
	for _, entry := range txns.Data {
		fmt.Fprintf(&b, "### %s (%s)\nShares held: %s, change: %s, code: %s, price: %.2f\n\n",
			entry.Name, entry.TransactionDate,
			humanize.Comma(entry.Share), humanize.Comma(entry.Change),
			entry.TransactionCode, entry.TransactionPrice)
	}

	return b.String(), nil
}

// SocialSentiment reports aggregated social media mention counts and score.
func (fc *FinnhubClient) SocialSentiment(ctx context.Context, symbol, currDate string, lookBackDays int) (string, error) {
	from, err := shiftDate(currDate, -lookBackDays)
	if err != nil {
		return "", err
	}

	var sentiment finnhubSocialSentiment
	if err := fc.get(ctx, "/stock/social-sentiment", map[string]string{
		"symbol": symbol,
		"from":   from,
		"to":     currDate,
	}, &sentiment); err != nil {
		return "", err
	}

	if len(sentiment.Data) == 0 {
		return "", nil
	}

	var mentions, positive, negative int
	var score float64
	for _, entry := range sentiment.Data {
		mentions += entry.Mention
		positive += entry.PositiveMention
		negative += entry.NegativeMention
		score += entry.Score
	}
	avgScore := score / float64(len(sentiment.Data))

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Social Media Sentiment from %s to %s:\n\n", symbol, from, currDate)
	fmt.Fprintf(&b, "- Total mentions: %s\n", humanize.Comma(int64(mentions)))
	fmt.Fprintf(&b, "- Positive mentions: %s\n", humanize.Comma(int64(positive)))
	fmt.Fprintf(&b, "- Negative mentions: %s\n", humanize.Comma(int64(negative)))
	fmt.Fprintf(&b, "- Average sentiment score: %.3f (range -1 to 1)\n\n", avgScore)

	b.WriteString("Recent daily readings:\n")
	limit := len(sentiment.Data)
	if limit > 14 {
		limit = 14
	}
	for _, entry := range sentiment.Data[:limit] {
		fmt.Fprintf(&b, "- %s: %d mentions (%d positive, %d negative), score %.3f\n",
			entry.AtTime, entry.Mention, entry.PositiveMention, entry.NegativeMention, entry.Score)
	}

	return b.String(), nil
}

// Fundamentals combines the company profile and key financial metrics.
func (fc *FinnhubClient) Fundamentals(ctx context.Context, symbol, currDate string) (string, error) {
	var profile finnhubProfile
	if err := fc.get(ctx, "/stock/profile2", map[string]string{"symbol": symbol}, &profile); err != nil {
		return "", err
	}

	var financials finnhubBasicFinancials
	if err := fc.get(ctx, "/stock/metric", map[string]string{
		"symbol": symbol,
		"metric": "all",
	}, &financials); err != nil {
		return "", err
	}

	if profile.Name == "" && len(financials.Metric) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Fundamentals as of %s:\n\n", symbol, currDate)
	if profile.Name != "" {
		fmt.Fprintf(&b, "### Company Profile\n")
		fmt.Fprintf(&b, "- Name: %s (%s)\n", profile.Name, profile.Exchange)
		fmt.Fprintf(&b, "- Industry: %s\n", profile.Industry)
		fmt.Fprintf(&b, "- IPO: %s\n", profile.IPO)
		fmt.Fprintf(&b, "- Market Cap: %s million\n", humanize.CommafWithDigits(profile.MarketCap, 1))
		fmt.Fprintf(&b, "- Shares Outstanding: %s million\n\n", humanize.CommafWithDigits(profile.SharesOutstanding, 1))
	}

	if len(financials.Metric) > 0 {
		b.WriteString("### Key Metrics\n")
		for _, key := range []string{
			"peTTM", "pb", "psTTM", "epsTTM", "dividendYieldIndicatedAnnual",
			"revenueGrowthTTMYoy", "epsGrowthTTMYoy", "grossMarginTTM",
			"netProfitMarginTTM", "roeTTM", "totalDebt/totalEquityQuarterly",
			"currentRatioQuarterly", "52WeekHigh", "52WeekLow", "beta",
		} {
			if v, ok := financials.Metric[key]; ok {
				fmt.Fprintf(&b, "- %s: %v\n", key, v)
			}
		}
	}

	return b.String(), nil
}

// EarningsCalendar lists scheduled earnings with estimates and actuals.
func (fc *FinnhubClient) EarningsCalendar(ctx context.Context, symbol, startDate, endDate string) (string, error) {
	var calendar finnhubEarningsCalendar
	if err := fc.get(ctx, "/calendar/earnings", map[string]string{
		"symbol": symbol,
		"from":   startDate,
		"to":     endDate,
	}, &calendar); err != nil {
		return "", err
	}

	if len(calendar.EarningsCalendar) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Earnings Calendar for %s (%s to %s):\n\n", symbol, startDate, endDate)
	for _, entry := range calendar.EarningsCalendar {
		fmt.Fprintf(&b, "### %s (%s)\n", entry.Date, entry.Hour)
		fmt.Fprintf(&b, "- EPS: estimate %.2f, actual %.2f\n", entry.EPSEstimate, entry.EPSActual)
		if entry.RevenueEstimate > 0 || entry.RevenueActual > 0 {
			fmt.Fprintf(&b, "- Revenue: estimate %s, actual %s\n",
				humanize.Comma(int64(entry.RevenueEstimate)), humanize.Comma(int64(entry.RevenueActual)))
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// EarningsSurprises analyzes historical beat/miss patterns over recent quarters.
func (fc *FinnhubClient) EarningsSurprises(ctx context.Context, symbol string, lookbackQuarters int) (string, error) {
	var earnings finnhubEarnings
	if err := fc.get(ctx, "/stock/earnings", map[string]string{
		"symbol": symbol,
	}, &earnings); err != nil {
		return "", err
	}

	if len(earnings) == 0 {
		return "", nil
	}

	if lookbackQuarters > 0 && len(earnings) > lookbackQuarters {
		earnings = earnings[:lookbackQuarters]
	}

	beats := 0
	for _, q := range earnings {
		if q.Surprise > 0 {
			beats++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Earnings Surprise History (last %d quarters):\n\n", symbol, len(earnings))
	fmt.Fprintf(&b, "Beat estimates in %d of %d quarters.\n\n", beats, len(earnings))
	for _, q := range earnings {
		fmt.Fprintf(&b, "- %s (Q%d %d): actual %.2f vs estimate %.2f (surprise %+.2f, %+.2f%%)\n",
			q.Period, q.Quarter, q.Year, q.Actual, q.Estimate, q.Surprise, q.SurprisePercent)
	}

	return b.String(), nil
}

// shiftDate moves a yyyy-mm-dd date by the given number of days.
func shiftDate(date string, days int) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidInput, "invalid date %q: %v", date, err)
	}
	return t.AddDate(0, 0, days).Format("2006-01-02"), nil
}
