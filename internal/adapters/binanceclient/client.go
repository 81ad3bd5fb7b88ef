// Package binanceclient implements ports.MarketDataClient against the Binance
// USDT-M futures public REST API.
package binanceclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jpillora/backoff"

	"signalRadar/internal/domain"
	"signalRadar/internal/ports"
)

const (
	maxAttempts    = 5
	connectTimeout = 9 * time.Second
	requestTimeout = 14 * time.Second
	jitterMax      = 250 * time.Millisecond
)

// Client is a rate-limited, retrying HTTP client for the exchange's
// market-data endpoints. A counting semaphore caps in-flight requests
// process-wide; excess callers block until a slot frees.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
	sem        chan struct{}
	retryWait  *backoff.Backoff
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	BaseURL        string
	MaxConcurrency int // Max in-flight requests, defaults to 6
	Logger         ports.Logger

	// Retry delay bounds, overridable in tests. Defaults follow the
	// 0.6s * 2^attempt curve capped at 6s.
	RetryMinWait time.Duration
	RetryMaxWait time.Duration
}

// New creates a new Binance market-data client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for Binance client")
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 6
	}
	minWait := cfg.RetryMinWait
	if minWait <= 0 {
		minWait = 600 * time.Millisecond
	}
	maxWait := cfg.RetryMaxWait
	if maxWait <= 0 {
		maxWait = 6 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
				TLSHandshakeTimeout: connectTimeout,
			},
		},
		logger: cfg.Logger,
		sem:    make(chan struct{}, maxConcurrency),
		retryWait: &backoff.Backoff{
			Min:    minWait,
			Max:    maxWait,
			Factor: 2,
		},
	}, nil
}

// retryableStatus reports whether a response status warrants a backoff and
// retry: 429, 418 (the exchange's ban-warning code) and all 5xx.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == 418 || code >= 500
}

// get performs one rate-limited GET with retries and returns the response
// body. Non-retryable non-2xx statuses fail fast; retryable statuses and
// transport errors back off exponentially with jitter, up to maxAttempts.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ports.ErrContextCanceled, ctx.Err())
	}
	defer func() { <-c.sem }()

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.retryWait.ForAttempt(float64(attempt-1)) + time.Duration(rand.Int63n(int64(jitterMax)))
			c.logger.Debug(ctx, "retrying upstream request", map[string]interface{}{
				"url": reqURL, "attempt": attempt + 1, "delay": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ports.ErrContextCanceled, ctx.Err())
			}
		}

		body, err := c.doOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return nil, permanent.err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ports.ErrUpstream, maxAttempts, lastErr)
}

// permanentError marks a failure that must not be retried.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

func (c *Client) doOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("%w: building request: %w", ports.ErrUpstream, err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "signal-radar/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failure, retryable.
		return nil, fmt.Errorf("%w: %w", ports.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ports.ErrConnectionFailed, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case retryableStatus(resp.StatusCode):
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418 {
			return nil, fmt.Errorf("%w: upstream status %d", ports.ErrRateLimited, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: upstream status %d", ports.ErrUpstream, resp.StatusCode)
	default:
		// Other 4xx carry no point in retrying.
		return nil, &permanentError{err: fmt.Errorf("%w: upstream status %d", ports.ErrUpstream, resp.StatusCode)}
	}
}

// Ping checks connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/fapi/v1/ping", nil)
	return err
}

// ExchangeInfo retrieves metadata for all listed symbols.
func (c *Client) ExchangeInfo(ctx context.Context) ([]ports.SymbolInfo, error) {
	body, err := c.get(ctx, "/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Symbols []ports.SymbolInfo `json:"symbols"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding exchangeInfo: %w", ports.ErrUpstream, err)
	}
	return payload.Symbols, nil
}

// Ticker24h retrieves the 24-hour rolling ticker for all symbols.
func (c *Client) Ticker24h(ctx context.Context) ([]ports.Ticker24h, error) {
	body, err := c.get(ctx, "/fapi/v1/ticker/24hr", nil)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Symbol      string `json:"symbol"`
		QuoteVolume string `json:"quoteVolume"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding ticker24h: %w", ports.ErrUpstream, err)
	}
	tickers := make([]ports.Ticker24h, 0, len(rows))
	for _, row := range rows {
		// Malformed volumes rank as zero rather than failing the whole list.
		qv, _ := strconv.ParseFloat(row.QuoteVolume, 64)
		tickers = append(tickers, ports.Ticker24h{Symbol: row.Symbol, QuoteVolume: qv})
	}
	return tickers, nil
}

// BookTicker retrieves the best bid/ask for a symbol.
func (c *Client) BookTicker(ctx context.Context, symbol string) (ports.BookTicker, error) {
	params := url.Values{"symbol": {symbol}}
	body, err := c.get(ctx, "/fapi/v1/ticker/bookTicker", params)
	if err != nil {
		return ports.BookTicker{}, err
	}
	var row struct {
		Symbol   string `json:"symbol"`
		BidPrice string `json:"bidPrice"`
		AskPrice string `json:"askPrice"`
	}
	if err := json.Unmarshal(body, &row); err != nil {
		return ports.BookTicker{}, fmt.Errorf("%w: decoding bookTicker: %w", ports.ErrUpstream, err)
	}
	bid, err := strconv.ParseFloat(row.BidPrice, 64)
	if err != nil {
		return ports.BookTicker{}, fmt.Errorf("%w: parsing bid %q: %w", ports.ErrUpstream, row.BidPrice, err)
	}
	ask, err := strconv.ParseFloat(row.AskPrice, 64)
	if err != nil {
		return ports.BookTicker{}, fmt.Errorf("%w: parsing ask %q: %w", ports.ErrUpstream, row.AskPrice, err)
	}
	return ports.BookTicker{Symbol: row.Symbol, BidPrice: bid, AskPrice: ask}, nil
}

// Klines retrieves up to limit candlesticks for the symbol and interval,
// oldest first.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	params := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, "/fapi/v1/klines", params)
	if err != nil {
		return nil, err
	}
	candles, err := domain.ParseKlineRows(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUpstream, err)
	}
	return candles, nil
}

// OpenInterestHist retrieves the open-interest history for a symbol, oldest
// first.
func (c *Client) OpenInterestHist(ctx context.Context, symbol, period string, limit int) ([]ports.OpenInterestPoint, error) {
	params := url.Values{
		"symbol": {symbol},
		"period": {period},
		"limit":  {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, "/futures/data/openInterestHist", params)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		SumOpenInterest string `json:"sumOpenInterest"`
		Timestamp       int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding openInterestHist: %w", ports.ErrUpstream, err)
	}
	points := make([]ports.OpenInterestPoint, 0, len(rows))
	for _, row := range rows {
		oi, err := strconv.ParseFloat(row.SumOpenInterest, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing open interest %q: %w", ports.ErrUpstream, row.SumOpenInterest, err)
		}
		points = append(points, ports.OpenInterestPoint{SumOpenInterest: oi, Timestamp: row.Timestamp})
	}
	return points, nil
}
