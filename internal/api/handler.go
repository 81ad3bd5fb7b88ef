// Package api exposes the signal store and the position ledger over HTTP.
package api

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"signalRadar/internal/app"
	"signalRadar/internal/domain"
	"signalRadar/internal/ports"
)

// Handler serves the read endpoints and the position CRUD.
type Handler struct {
	logger    ports.Logger
	service   *app.SignalService
	positions ports.PositionRepository
	client    ports.MarketDataClient
	now       func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(logger ports.Logger, service *app.SignalService, positions ports.PositionRepository, client ports.MarketDataClient) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		positions: positions,
		client:    client,
		now:       time.Now,
	}
}

// NewServer builds the echo server with routes registered.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/healthz", h.Health)
	e.GET("/signals", h.Signals)
	e.GET("/positions", h.ListPositions)
	e.POST("/positions/open", h.OpenPosition)
	e.POST("/positions/close", h.ClosePosition)
	return e
}

// Health pings the upstream API and reports readiness.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.client.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

type signalsResponse struct {
	Count       int             `json:"count"`
	Summary     decisionSummary `json:"summary"`
	LastUpdated *time.Time      `json:"lastUpdated"`
	Signals     []domain.Signal `json:"signals"`
	Warning     *string         `json:"warning"`
}

type decisionSummary struct {
	BuyPct  float64 `json:"buyPct"`
	SellPct float64 `json:"sellPct"`
	WaitPct float64 `json:"waitPct"`
}

// Signals returns the latest signal set with a decision-mix summary. Callers
// are expected to check the warning field alongside the data; a failed cycle
// leaves the previous set in place with the error surfaced here.
func (h *Handler) Signals(c echo.Context) error {
	state := h.service.State()

	var buy, sell, wait int
	for _, s := range state.Signals {
		switch s.Decision {
		case domain.Buy:
			buy++
		case domain.Sell:
			sell++
		default:
			wait++
		}
	}
	total := len(state.Signals)
	if total == 0 {
		total = 1
	}

	return c.JSON(http.StatusOK, signalsResponse{
		Count: len(state.Signals),
		Summary: decisionSummary{
			BuyPct:  round1(float64(buy) * 100 / float64(total)),
			SellPct: round1(float64(sell) * 100 / float64(total)),
			WaitPct: round1(float64(wait) * 100 / float64(total)),
		},
		LastUpdated: state.LastUpdated,
		Signals:     state.Signals,
		Warning:     state.LastError,
	})
}

type openPositionRequest struct {
	Symbol     string   `json:"symbol"`
	EntryPrice *float64 `json:"entryPrice"`
	Note       *string  `json:"note"`
}

// ListPositions returns the full position ledger.
func (h *Handler) ListPositions(c echo.Context) error {
	positions, err := h.positions.ListPositions(c.Request().Context())
	if err != nil {
		h.logger.Error(c.Request().Context(), err, "listing positions failed")
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to list positions"})
	}
	return c.JSON(http.StatusOK, map[string]any{"positions": positions})
}

// OpenPosition records (or replaces) a ledger entry for a symbol.
func (h *Handler) OpenPosition(c echo.Context) error {
	var req openPositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid request body"})
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "symbol is required"})
	}

	pos := domain.Position{
		Symbol:     symbol,
		OpenedAt:   h.now().UTC(),
		EntryPrice: req.EntryPrice,
		Note:       req.Note,
	}
	if err := h.positions.UpsertPosition(c.Request().Context(), pos); err != nil {
		h.logger.Error(c.Request().Context(), err, "opening position failed", map[string]interface{}{"symbol": symbol})
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to open position"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// ClosePosition removes the ledger entry for a symbol.
func (h *Handler) ClosePosition(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "symbol is required"})
	}
	if err := h.positions.DeletePosition(c.Request().Context(), symbol); err != nil {
		h.logger.Error(c.Request().Context(), err, "closing position failed", map[string]interface{}{"symbol": symbol})
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to close position"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
