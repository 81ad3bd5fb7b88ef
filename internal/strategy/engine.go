// Package strategy evaluates per-symbol trade signals: a liquidity gate,
// tiered candle fetches through TTL caches, indicator computation, an
// open-interest adjustment, a weighted score and the resulting decision with
// an ATR-based risk plan.
package strategy

import (
	"context"
	"fmt"
	"time"

	"signalRadar/internal/cache"
	"signalRadar/internal/domain"
	"signalRadar/internal/ports"
	"signalRadar/internal/strategy/indicators"
)

// Kline limits per timeframe tier. The daily limit leaves headroom for EMA200.
const (
	dailyLimit = 220
	hourLimit  = 120
	entryLimit = 160
)

// Cache TTLs per tier: daily data changes slowly, entry-timeframe data must
// stay fresh relative to the refresh cadence.
const (
	dailyTTL = time.Hour
	hourTTL  = 3 * time.Minute
	entryTTL = time.Minute
)

// Config holds the tunable parameters of the signal engine.
type Config struct {
	TopN             int
	EntryTimeframe   string   // e.g. "15m"
	MaxSpreadPercent float64  // liquidity gate threshold
	Whitelist        []string // empty enables dynamic discovery
	MinQuoteVolume   float64  // 24h quote-volume floor for discovery
}

// Engine implements ports.SignalStrategy.
type Engine struct {
	cfg    Config
	client ports.MarketDataClient
	logger ports.Logger

	dailyCache *cache.TTL[[]domain.Candle]
	hourCache  *cache.TTL[[]domain.Candle]
	entryCache *cache.TTL[[]domain.Candle]

	now func() time.Time
}

// New creates a signal engine.
func New(cfg Config, client ports.MarketDataClient, logger ports.Logger) (*Engine, error) {
	if client == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for strategy engine")
	}
	if cfg.TopN <= 0 {
		return nil, fmt.Errorf("TopN must be positive")
	}
	if cfg.EntryTimeframe == "" {
		cfg.EntryTimeframe = "15m"
	}
	if cfg.MaxSpreadPercent <= 0 {
		cfg.MaxSpreadPercent = 0.12
	}
	return &Engine{
		cfg:        cfg,
		client:     client,
		logger:     logger,
		dailyCache: cache.NewTTL[[]domain.Candle](dailyTTL),
		hourCache:  cache.NewTTL[[]domain.Candle](hourTTL),
		entryCache: cache.NewTTL[[]domain.Candle](entryTTL),
		now:        time.Now,
	}, nil
}

// waitSignal is the short-circuit result for a failed pipeline stage.
func (e *Engine) waitSignal(symbol string, score int, reason string) domain.Signal {
	return domain.Signal{
		Symbol:    symbol,
		Decision:  domain.Wait,
		Score:     score,
		UpdatedAt: e.now().UTC(),
		Reason:    reason,
	}
}

// BuildSignal evaluates one symbol. It never fails: every error path resolves
// to a WAIT signal carrying a diagnostic reason.
func (e *Engine) BuildSignal(ctx context.Context, symbol string) domain.Signal {
	// Liquidity gate: the book ticker must show a positive bid and ask and a
	// spread within the configured maximum.
	bt, err := e.client.BookTicker(ctx, symbol)
	if err != nil || bt.BidPrice <= 0 || bt.AskPrice <= 0 {
		return e.waitSignal(symbol, 10, "book ticker unavailable / low liquidity")
	}
	mid := (bt.BidPrice + bt.AskPrice) / 2
	spreadPct := 999.0
	if mid > 0 {
		spreadPct = (bt.AskPrice - bt.BidPrice) / mid * 100
	}
	if spreadPct > e.cfg.MaxSpreadPercent {
		return e.waitSignal(symbol, 15, fmt.Sprintf("spread too high (%.3f%%)", spreadPct))
	}

	// Tiered candle fetch, cache-checked then upstream.
	daily, err := e.cachedKlines(ctx, e.dailyCache, symbol, "1d", dailyLimit)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("candle fetch failed: %v", err))
	}
	hourly, err := e.cachedKlines(ctx, e.hourCache, symbol, "1h", hourLimit)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("candle fetch failed: %v", err))
	}
	entry, err := e.cachedKlines(ctx, e.entryCache, symbol, e.cfg.EntryTimeframe, entryLimit)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("candle fetch failed: %v", err))
	}

	return e.evaluate(ctx, symbol, spreadPct, daily, hourly, entry)
}

// cachedKlines returns the cached series for symbol:interval:limit or fetches
// and caches a fresh one.
func (e *Engine) cachedKlines(ctx context.Context, c *cache.TTL[[]domain.Candle], symbol, interval string, limit int) ([]domain.Candle, error) {
	key := fmt.Sprintf("%s:%s:%d", symbol, interval, limit)
	if candles, ok := c.Get(key); ok {
		return candles, nil
	}
	candles, err := e.client.Klines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	c.Set(key, candles)
	return candles, nil
}

// evaluate runs indicators, the open-interest bonus, scoring and the decision
// for a symbol whose market data is already in hand.
func (e *Engine) evaluate(ctx context.Context, symbol string, spreadPct float64, daily, hourly, entry []domain.Candle) domain.Signal {
	dailyCloses := domain.Closes(daily)
	hourCloses := domain.Closes(hourly)
	entryCloses := domain.Closes(entry)

	// Daily regime: price above EMA50 and EMA50 above EMA200.
	dEMA50, err := indicators.EMA(dailyCloses, 50)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	dEMA200, err := indicators.EMA(dailyCloses, 200)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	dailyOk := dailyCloses[len(dailyCloses)-1] > dEMA50 && dEMA50 > dEMA200

	// Hourly confirmation.
	hEMA50, err := indicators.EMA(hourCloses, 50)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	hourOk := hourCloses[len(hourCloses)-1] > hEMA50

	// Entry-timeframe signals.
	eEMA20, err := indicators.EMA(entryCloses, 20)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	eEMA50, err := indicators.EMA(entryCloses, 50)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	eRSI, err := indicators.RSI(entryCloses, 14)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	eATR, err := indicators.ATR(domain.Highs(entry), domain.Lows(entry), entryCloses, 14)
	if err != nil {
		return e.waitSignal(symbol, 10, fmt.Sprintf("indicator failed: %v", err))
	}
	last := entryCloses[len(entryCloses)-1]

	oiBonus := e.openInterestBonus(ctx, symbol)

	// Weighted score, clamped to [0,100].
	score := 50
	if dailyOk {
		score += 15
	} else {
		score -= 10
	}
	if hourOk {
		score += 10
	} else {
		score -= 8
	}
	if eEMA20 > eEMA50 {
		score += 8
	} else {
		score -= 8
	}
	switch {
	case eRSI >= 55:
		score += 6
	case eRSI <= 45:
		score -= 6
	}
	score += oiBonus
	if spreadPct <= 0.05 {
		score += 6
	}
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	// ATR-based risk plan.
	plan := &domain.Plan{
		Entry:  last,
		Stop:   last - 1.3*eATR,
		Target: last + 2.0*eATR,
	}
	if plan.Entry > plan.Stop {
		rr := (plan.Target - plan.Entry) / (plan.Entry - plan.Stop)
		plan.RiskReward = &rr
	}

	decision := domain.Wait
	switch {
	case score >= 70 && dailyOk && hourOk:
		decision = domain.Buy
	case score <= 35 && !hourOk:
		decision = domain.Sell
	}

	emaCross := "DN"
	if eEMA20 > eEMA50 {
		emaCross = "UP"
	}
	reason := fmt.Sprintf("1d:%s 1h:%s EMA20/50:%s RSI:%.1f OI:%+d",
		okFlag(dailyOk), okFlag(hourOk), emaCross, eRSI, oiBonus)

	return domain.Signal{
		Symbol:       symbol,
		Decision:     decision,
		Score:        score,
		DailyTrendOk: dailyOk,
		UpdatedAt:    e.now().UTC(),
		Plan:         plan,
		Reason:       reason,
	}
}

// openInterestBonus maps the recent open-interest trend to a small score
// adjustment. Failures are swallowed: the bonus is an enhancement, never a
// reason to downgrade a signal.
func (e *Engine) openInterestBonus(ctx context.Context, symbol string) int {
	points, err := e.client.OpenInterestHist(ctx, symbol, "5m", 30)
	if err != nil {
		e.logger.Debug(ctx, "open interest unavailable", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return 0
	}
	if len(points) < 5 {
		return 0
	}
	first := points[0].SumOpenInterest
	if first <= 0 {
		return 0
	}
	change := (points[len(points)-1].SumOpenInterest - first) / first
	switch {
	case change > 0.02:
		return 8
	case change > 0:
		return 4
	case change < -0.02:
		return -6
	default:
		return -2
	}
}

func okFlag(ok bool) string {
	if ok {
		return "OK"
	}
	return "NO"
}
