package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Candle represents a single candlestick parsed from the upstream positional
// kline array. Only Open/High/Low/Close are consumed downstream; a candle
// lives for one fetch-and-compute pass and is never persisted.
type Candle struct {
	OpenTime    time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	CloseTime   time.Time
	QuoteVolume float64
	TradeCount  int64
}

// ParseKlineRows decodes the upstream kline payload, a JSON array of
// positional arrays:
//
//	[openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...]
//
// Timestamps and trade counts arrive as JSON numbers, prices and volumes as
// strings.
func ParseKlineRows(raw json.RawMessage) ([]Candle, error) {
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding kline rows: %w", err)
	}

	candles := make([]Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 9 {
			return nil, fmt.Errorf("kline row %d has %d fields, want at least 9", i, len(row))
		}

		var c Candle
		var err error
		for _, f := range []struct {
			idx  int
			dst  *float64
			name string
		}{
			{1, &c.Open, "open"},
			{2, &c.High, "high"},
			{3, &c.Low, "low"},
			{4, &c.Close, "close"},
			{5, &c.Volume, "volume"},
			{7, &c.QuoteVolume, "quote volume"},
		} {
			if *f.dst, err = toFloat(row[f.idx]); err != nil {
				return nil, fmt.Errorf("kline row %d: parsing %s: %w", i, f.name, err)
			}
		}

		openTime, err := toFloat(row[0])
		if err != nil {
			return nil, fmt.Errorf("kline row %d: parsing open time: %w", i, err)
		}
		closeTime, err := toFloat(row[6])
		if err != nil {
			return nil, fmt.Errorf("kline row %d: parsing close time: %w", i, err)
		}
		trades, err := toFloat(row[8])
		if err != nil {
			return nil, fmt.Errorf("kline row %d: parsing trade count: %w", i, err)
		}
		c.OpenTime = time.UnixMilli(int64(openTime))
		c.CloseTime = time.UnixMilli(int64(closeTime))
		c.TradeCount = int64(trades)

		candles = append(candles, c)
	}
	return candles, nil
}

// toFloat coerces a decoded JSON value (number or numeric string) to float64.
func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric string %q: %w", t, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}

// Closes extracts the close prices of a candle series, oldest first.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high prices of a candle series, oldest first.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low prices of a candle series, oldest first.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
