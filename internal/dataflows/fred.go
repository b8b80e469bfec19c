package dataflows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"athena/pkg/errors"
)

const fredBaseURL = "https://api.stlouisfed.org/fred"

// FredClient fetches economic series from the St. Louis Fed FRED API.
type FredClient struct {
	client *resty.Client
	apiKey string
}

// NewFredClient creates a new FRED client.
func NewFredClient(apiKey string) *FredClient {
	client := resty.New()
	client.SetBaseURL(fredBaseURL)
	client.SetTimeout(30 * time.Second)

	return &FredClient{
		client: client,
		apiKey: apiKey,
	}
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredObservationsResponse struct {
	Observations []fredObservation `json:"observations"`
}

type economicIndicator struct {
	name        string
	series      string
	description string
	unit        string
	yoy         bool
}

// Indicator catalog mirroring the standard macro dashboard.
var economicIndicators = []economicIndicator{
	{"Federal Funds Rate", "FEDFUNDS", "Federal Reserve's target interest rate", "%", false},
	{"Consumer Price Index (CPI)", "CPIAUCSL", "Inflation measure based on consumer goods", "Index", true},
	{"Producer Price Index (PPI)", "PPIACO", "Inflation measure at producer level", "Index", true},
	{"Unemployment Rate", "UNRATE", "Percentage of labor force unemployed", "%", false},
	{"Nonfarm Payrolls", "PAYEMS", "Monthly change in employment", "Thousands", false},
	{"GDP", "GDP", "Gross Domestic Product", "Billions", false},
	{"Consumer Confidence", "CSCICP03USM665S", "Consumer sentiment indicator", "Index", false},
	{"VIX", "VIXCLS", "Market volatility index", "Index", false},
}

var yieldCurveSeries = []struct {
	tenor  string
	series string
}{
	{"1 Month", "DGS1MO"},
	{"3 Month", "DGS3MO"},
	{"6 Month", "DGS6MO"},
	{"1 Year", "DGS1"},
	{"2 Year", "DGS2"},
	{"5 Year", "DGS5"},
	{"10 Year", "DGS10"},
	{"30 Year", "DGS30"},
}

// Observations returns a series' observations between two dates, newest first.
func (fr *FredClient) Observations(ctx context.Context, seriesID, startDate, endDate string) ([]fredObservation, error) {
	if fr.apiKey == "" {
		return nil, errors.Wrap(errors.ErrMissingCredentials, "FRED API key not configured")
	}

	var result fredObservationsResponse
	resp, err := fr.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":         seriesID,
			"api_key":           fr.apiKey,
			"file_type":         "json",
			"observation_start": startDate,
			"observation_end":   endDate,
			"sort_order":        "desc",
		}).
		SetResult(&result).
		Get("/series/observations")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "fred %s: %v", seriesID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, errors.Wrapf(errors.ErrExternal, "fred %s: status %d", seriesID, resp.StatusCode())
	}

	// FRED reports missing values as ".".
	valid := result.Observations[:0]
	for _, obs := range result.Observations {
		if obs.Value != "." {
			valid = append(valid, obs)
		}
	}

	return valid, nil
}

// EconomicIndicators builds the indicator dashboard report over the window.
func (fr *FredClient) EconomicIndicators(ctx context.Context, currDate string, lookBackDays int) (string, error) {
	startDate, err := shiftDate(currDate, -lookBackDays)
	if err != nil {
		return "", err
	}
	// YoY comparisons need at least a year of history.
	yoyStart, _ := shiftDate(currDate, -400)

	var b strings.Builder
	fmt.Fprintf(&b, "## Economic Indicators Report (%s to %s)\n\n", startDate, currDate)

	fetched := 0
	for _, ind := range economicIndicators {
		start := startDate
		if ind.yoy {
			start = yoyStart
		}

		obs, err := fr.Observations(ctx, ind.series, start, currDate)
		if err != nil {
			fmt.Fprintf(&b, "### %s\nData unavailable: %v\n\n", ind.name, err)
			continue
		}
		if len(obs) == 0 {
			fmt.Fprintf(&b, "### %s\nNo data available\n\n", ind.name)
			continue
		}
		fetched++

		latest, _ := strconv.ParseFloat(obs[0].Value, 64)
		fmt.Fprintf(&b, "### %s\n", ind.name)
		fmt.Fprintf(&b, "- Latest Value: %.2f %s (as of %s)\n", latest, ind.unit, obs[0].Date)
		fmt.Fprintf(&b, "- Description: %s\n", ind.description)

		if len(obs) >= 2 {
			previous, _ := strconv.ParseFloat(obs[1].Value, 64)
			change := latest - previous
			changePct := 0.0
			if previous != 0 {
				changePct = change / previous * 100
			}
			fmt.Fprintf(&b, "- Change: %+.2f %s (%+.2f%%)\n", change, ind.unit, changePct)
		}

		if ind.yoy && len(obs) >= 12 {
			yearAgo, _ := strconv.ParseFloat(obs[11].Value, 64)
			if yearAgo != 0 {
				yoyChange := (latest - yearAgo) / yearAgo * 100
				fmt.Fprintf(&b, "- Year-over-Year: %+.2f%%\n", yoyChange)
			}
		}
		b.WriteString("\n")
	}

	if fetched == 0 {
		return "", errors.Wrap(errors.ErrDataUnavailable, "no economic indicators could be fetched")
	}

	return b.String(), nil
}

// YieldCurve reports the Treasury curve with inversion analysis.
func (fr *FredClient) YieldCurve(ctx context.Context, currDate string) (string, error) {
	startDate, err := shiftDate(currDate, -14)
	if err != nil {
		return "", err
	}

	yields := map[string]float64{}
	var b strings.Builder
	fmt.Fprintf(&b, "## Treasury Yield Curve as of %s\n\n", currDate)

	for _, s := range yieldCurveSeries {
		obs, err := fr.Observations(ctx, s.series, startDate, currDate)
		if err != nil || len(obs) == 0 {
			continue
		}
		v, parseErr := strconv.ParseFloat(obs[0].Value, 64)
		if parseErr != nil {
			continue
		}
		yields[s.tenor] = v
		fmt.Fprintf(&b, "- %s: %.2f%% (as of %s)\n", s.tenor, v, obs[0].Date)
	}

	if len(yields) == 0 {
		return "", errors.Wrap(errors.ErrDataUnavailable, "no yield curve data could be fetched")
	}

	twoYear, has2 := yields["2 Year"]
	tenYear, has10 := yields["10 Year"]
	threeMonth, has3mo := yields["3 Month"]

	b.WriteString("\n### Curve Analysis\n")
	if has2 && has10 {
		spread := tenYear - twoYear
		fmt.Fprintf(&b, "- 10Y-2Y spread: %+.2f%%", spread)
		if spread < 0 {
			b.WriteString(" (inverted, a historical recession signal)\n")
		} else {
			b.WriteString(" (normal)\n")
		}
	}
	if has3mo && has10 {
		spread := tenYear - threeMonth
		fmt.Fprintf(&b, "- 10Y-3M spread: %+.2f%%", spread)
		if spread < 0 {
			b.WriteString(" (inverted, a historical recession signal)\n")
		} else {
			b.WriteString(" (normal)\n")
		}
	}

	return b.String(), nil
}

// MacroSummary combines the indicator dashboard and the yield curve into
// one briefing for the macro analyst.
func (fr *FredClient) MacroSummary(ctx context.Context, currDate string, lookBackDays int) (string, error) {
	indicators, indErr := fr.EconomicIndicators(ctx, currDate, lookBackDays)
	curve, curveErr := fr.YieldCurve(ctx, currDate)

	if indErr != nil && curveErr != nil {
		return "", indErr
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Macro Economic Analysis (%s)\n\n", currDate)
	if indErr == nil {
		b.WriteString(indicators)
		b.WriteString("\n")
	}
	if curveErr == nil {
		b.WriteString(curve)
	}

	return b.String(), nil
}
