package binanceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalRadar/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// newTestClient points a client at srv with near-zero retry delays so retry
// paths run fast.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:      srv.URL,
		Logger:       nopLogger{},
		RetryMinWait: time.Millisecond,
		RetryMaxWait: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{BaseURL: "http://localhost"})
	assert.Error(t, err, "logger is required")

	_, err = New(Config{Logger: nopLogger{}})
	assert.Error(t, err, "base URL is required")
}

func TestGet_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.Ping(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGet_FailsFastOnClientError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "4xx must not be retried")
}

func TestGet_ExhaustsAttemptsOnRateLimit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUpstream)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&hits))
}

func TestGet_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Ping(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestKlines_ParsesPositionalRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, "160", r.URL.Query().Get("limit"))
		// Open time, OHLC and volume as strings, close time, then ignored tail
		// fields, matching the upstream wire format.
		w.Write([]byte(`[
			[1700000000000,"100.1","101.5","99.2","100.9","1234.5",1700000899999,"124000.0",100,"600.0","60500.0","0"],
			[1700000900000,"100.9","102.0","100.5","101.7","987.6",1700001799999,"100300.0",90,"480.0","48900.0","0"]
		]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	candles, err := client.Klines(context.Background(), "BTCUSDT", "15m", 160)

	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.InDelta(t, 100.1, candles[0].Open, 1e-9)
	assert.InDelta(t, 101.5, candles[0].High, 1e-9)
	assert.InDelta(t, 99.2, candles[0].Low, 1e-9)
	assert.InDelta(t, 100.9, candles[0].Close, 1e-9)
	assert.InDelta(t, 101.7, candles[1].Close, 1e-9)
}

func TestBookTicker_ParsesStringPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/bookTicker", r.URL.Path)
		assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"ETHUSDT","bidPrice":"1999.95","askPrice":"2000.05"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	bt, err := client.BookTicker(context.Background(), "ETHUSDT")

	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", bt.Symbol)
	assert.InDelta(t, 1999.95, bt.BidPrice, 1e-9)
	assert.InDelta(t, 2000.05, bt.AskPrice, 1e-9)
}

func TestTicker24h_ToleratesMalformedVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","quoteVolume":"2000000000.5"},
			{"symbol":"WEIRDUSDT","quoteVolume":"n/a"}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	tickers, err := client.Ticker24h(context.Background())

	require.NoError(t, err)
	require.Len(t, tickers, 2)
	assert.InDelta(t, 2000000000.5, tickers[0].QuoteVolume, 1e-6)
	assert.Zero(t, tickers[1].QuoteVolume)
}

func TestOpenInterestHist_ParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/futures/data/openInterestHist", r.URL.Path)
		assert.Equal(t, "5m", r.URL.Query().Get("period"))
		w.Write([]byte(`[
			{"sumOpenInterest":"10000.5","timestamp":1700000000000},
			{"sumOpenInterest":"10300.0","timestamp":1700000300000}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	points, err := client.OpenInterestHist(context.Background(), "BTCUSDT", "5m", 30)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 10000.5, points[0].SumOpenInterest, 1e-9)
	assert.Equal(t, int64(1700000300000), points[1].Timestamp)
}

func TestExchangeInfo_ParsesSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","quoteAsset":"USDT","contractType":"PERPETUAL","status":"TRADING"},
			{"symbol":"BTCUSD_PERP","quoteAsset":"USD","contractType":"PERPETUAL","status":"TRADING"}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	info, err := client.ExchangeInfo(context.Background())

	require.NoError(t, err)
	require.Len(t, info, 2)
	assert.Equal(t, "BTCUSDT", info[0].Symbol)
	assert.Equal(t, "USDT", info[0].QuoteAsset)
	assert.Equal(t, "PERPETUAL", info[0].ContractType)
	assert.Equal(t, "TRADING", info[0].Status)
}
