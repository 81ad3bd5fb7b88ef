package ports

import (
	"context"

	"signalRadar/internal/domain"
)

// SymbolInfo is the subset of exchange metadata the universe selector needs.
type SymbolInfo struct {
	Symbol       string `json:"symbol"`
	QuoteAsset   string `json:"quoteAsset"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
}

// Ticker24h is one entry of the 24-hour rolling ticker list.
type Ticker24h struct {
	Symbol      string
	QuoteVolume float64
}

// BookTicker carries the current best bid/ask for a symbol.
type BookTicker struct {
	Symbol   string
	BidPrice float64
	AskPrice float64
}

// OpenInterestPoint is one bucket of the open-interest history series.
type OpenInterestPoint struct {
	SumOpenInterest float64
	Timestamp       int64
}

// MarketDataClient defines the interface for the exchange's public futures
// market-data endpoints. Implementations are responsible for rate limiting,
// retries and timeouts; callers get either parsed data or an error wrapping
// ErrUpstream.
type MarketDataClient interface {
	// Ping checks connectivity to the exchange API.
	Ping(ctx context.Context) error

	// ExchangeInfo retrieves metadata for all listed symbols.
	ExchangeInfo(ctx context.Context) ([]SymbolInfo, error)

	// Ticker24h retrieves the 24-hour rolling ticker for all symbols.
	Ticker24h(ctx context.Context) ([]Ticker24h, error)

	// BookTicker retrieves the best bid/ask for a symbol.
	BookTicker(ctx context.Context, symbol string) (BookTicker, error)

	// Klines retrieves up to limit candlesticks for the symbol and interval,
	// oldest first.
	Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)

	// OpenInterestHist retrieves the open-interest history for a symbol at the
	// given bucket period (e.g. "5m"), oldest first.
	OpenInterestHist(ctx context.Context, symbol, period string, limit int) ([]OpenInterestPoint, error)
}
