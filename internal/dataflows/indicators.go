package dataflows

import (
	"context"

	"github.com/markcheno/go-talib"

	"athena/pkg/errors"
	"athena/pkg/templates"
)

// Minimum history for the slowest ribbon EMA.
const minIndicatorBars = 55

// PriceContext summarizes the raw price window.
type PriceContext struct {
	Current   float64
	High      float64
	Low       float64
	ChangePct float64
}

// Momentum carries oscillator readings with coarse signals.
type Momentum struct {
	RSI            float64
	RSISignal      string
	MACD           float64
	MACDSignalLine float64
	MACDHistogram  float64
	MACDSignal     string
	StochK         float64
	StochD         float64
	StochSignal    string
	CCI            float64
	CCISignal      string
	ROC            float64
}

// Volatility carries range-based readings.
type Volatility struct {
	ATR          float64
	ATRPct       float64
	Level        string
	BollUpper    float64
	BollMiddle   float64
	BollLower    float64
	BollPosition string
}

// Trend carries moving-average readings.
type Trend struct {
	SMA50     float64
	SMA200    float64
	HasSMA200 bool
	EMA9      float64
	EMA21     float64
	EMA55     float64
	Alignment string
}

// VolumeStats compares latest volume to its recent average.
type VolumeStats struct {
	Latest  float64
	Average float64
	Ratio   float64
}

// TechnicalReport is the full indicator snapshot for one symbol.
type TechnicalReport struct {
	Symbol    string
	Timeframe string
	Date      string

	Price      PriceContext
	Momentum   Momentum
	Volatility Volatility
	Trend      Trend
	Volume     VolumeStats
	Overall    string
}

// TechnicalAnalysis computes the standard indicator set over a bar
// window and renders it as a markdown report.
func (ac *AlpacaDataClient) TechnicalAnalysis(ctx context.Context, symbol, currDate string, lookBackDays int, timeframe string) (string, error) {
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
	if len(bars) < minIndicatorBars {
		return "", errors.Wrapf(errors.ErrDataUnavailable,
			"need at least %d bars for %s, got %d", minIndicatorBars, symbol, len(bars))
	}

	report := computeTechnicalReport(symbol, timeframe, currDate, bars)

	return templates.Get().Render("tools/technical_analysis", report)
}

func computeTechnicalReport(symbol, timeframe, currDate string, bars []Bar) TechnicalReport {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, bar := range bars {
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	current := closes[n-1]

	report := TechnicalReport{
		Symbol:    symbol,
		Timeframe: timeframe,
		Date:      currDate,
		Price:     priceContext(bars, current),
	}

	report.Momentum = momentum(highs, lows, closes)
	report.Volatility = volatility(highs, lows, closes, current)
	report.Trend = trend(closes, current)
	report.Volume = volumeStats(volumes)
	report.Overall = overallSignal(report)

	return report
}

func priceContext(bars []Bar, current float64) PriceContext {
	pc := PriceContext{Current: current, High: bars[0].High, Low: bars[0].Low}
	for _, bar := range bars {
		if bar.High > pc.High {
			pc.High = bar.High
		}
		if bar.Low < pc.Low {
			pc.Low = bar.Low
		}
	}
	if prev := bars[len(bars)-2].Close; prev > 0 {
		pc.ChangePct = (current - prev) / prev * 100
	}
	return pc
}

func momentum(highs, lows, closes []float64) Momentum {
	m := Momentum{}

	if rsi := last(talib.Rsi(closes, 14)); rsi != 0 {
		m.RSI = rsi
		switch {
		case rsi < 30:
			m.RSISignal = "oversold"
		case rsi > 70:
			m.RSISignal = "overbought"
		case rsi > 50:
			m.RSISignal = "bullish"
		default:
			m.RSISignal = "bearish"
		}
	}

	macdLine, signalLine, histogram := talib.Macd(closes, 12, 26, 9)
	m.MACD = last(macdLine)
	m.MACDSignalLine = last(signalLine)
	m.MACDHistogram = last(histogram)
	switch {
	case m.MACD > m.MACDSignalLine && m.MACDHistogram > 0:
		m.MACDSignal = "bullish"
	case m.MACD < m.MACDSignalLine && m.MACDHistogram < 0:
		m.MACDSignal = "bearish"
	case m.MACD > m.MACDSignalLine:
		m.MACDSignal = "bullish_cross"
	default:
		m.MACDSignal = "bearish_cross"
	}

	slowK, slowD := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
	m.StochK = last(slowK)
	m.StochD = last(slowD)
	switch {
	case m.StochK < 20 && m.StochD < 20:
		m.StochSignal = "oversold"
	case m.StochK > 80 && m.StochD > 80:
		m.StochSignal = "overbought"
	case m.StochK > m.StochD:
		m.StochSignal = "bullish"
	default:
		m.StochSignal = "bearish"
	}

	m.CCI = last(talib.Cci(highs, lows, closes, 20))
	switch {
	case m.CCI < -100:
		m.CCISignal = "oversold"
	case m.CCI > 100:
		m.CCISignal = "overbought"
	case m.CCI > 0:
		m.CCISignal = "bullish"
	default:
		m.CCISignal = "bearish"
	}

	m.ROC = last(talib.Roc(closes, 12))

	return m
}

func volatility(highs, lows, closes []float64, current float64) Volatility {
	v := Volatility{}

	v.ATR = last(talib.Atr(highs, lows, closes, 14))
	if current > 0 {
		v.ATRPct = v.ATR / current * 100
	}
	switch {
	case v.ATRPct > 5:
		v.Level = "extreme"
	case v.ATRPct > 3:
		v.Level = "high"
	case v.ATRPct > 1.5:
		v.Level = "moderate"
	default:
		v.Level = "low"
	}

	upper, middle, lower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
	v.BollUpper = last(upper)
	v.BollMiddle = last(middle)
	v.BollLower = last(lower)
	switch {
	case current >= v.BollUpper:
		v.BollPosition = "above_upper"
	case current <= v.BollLower:
		v.BollPosition = "below_lower"
	case current > v.BollMiddle:
		v.BollPosition = "upper_half"
	default:
		v.BollPosition = "lower_half"
	}

	return v
}

func trend(closes []float64, current float64) Trend {
	t := Trend{}

	t.SMA50 = last(talib.Sma(closes, 50))
	if len(closes) >= 200 {
		t.SMA200 = last(talib.Sma(closes, 200))
		t.HasSMA200 = true
	}

	t.EMA9 = last(talib.Ema(closes, 9))
	t.EMA21 = last(talib.Ema(closes, 21))
	t.EMA55 = last(talib.Ema(closes, 55))

	switch {
	case t.EMA9 > t.EMA21 && t.EMA21 > t.EMA55 && current > t.EMA9:
		t.Alignment = "strong_uptrend"
	case t.EMA9 > t.EMA21 && t.EMA21 > t.EMA55:
		t.Alignment = "uptrend"
	case t.EMA9 < t.EMA21 && t.EMA21 < t.EMA55 && current < t.EMA9:
		t.Alignment = "strong_downtrend"
	case t.EMA9 < t.EMA21 && t.EMA21 < t.EMA55:
		t.Alignment = "downtrend"
	default:
		t.Alignment = "mixed"
	}

	return t
}

func volumeStats(volumes []float64) VolumeStats {
	v := VolumeStats{Latest: volumes[len(volumes)-1]}

	window := 20
	if len(volumes) < window {
		window = len(volumes)
	}
	sum := 0.0
	for _, vol := range volumes[len(volumes)-window:] {
		sum += vol
	}
	v.Average = sum / float64(window)
	if v.Average > 0 {
		v.Ratio = v.Latest / v.Average
	}

	return v
}

func overallSignal(r TechnicalReport) string {
	score := 0
	for _, signal := range []string{r.Momentum.RSISignal, r.Momentum.MACDSignal, r.Momentum.StochSignal, r.Momentum.CCISignal} {
		switch signal {
		case "bullish", "bullish_cross", "oversold":
			score++
		case "bearish", "bearish_cross", "overbought":
			score--
		}
	}
	switch r.Trend.Alignment {
	case "strong_uptrend":
		score += 2
	case "uptrend":
		score++
	case "strong_downtrend":
		score -= 2
	case "downtrend":
		score--
	}

	switch {
	case score >= 3:
		return "Indicators lean strongly bullish."
	case score >= 1:
		return "Indicators lean mildly bullish."
	case score <= -3:
		return "Indicators lean strongly bearish."
	case score <= -1:
		return "Indicators lean mildly bearish."
	default:
		return "Indicators are mixed with no clear direction."
	}
}

// last returns the final value of a talib output series.
func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
