package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Binance Futures API
	BaseURL        string
	MaxConcurrency int // Max simultaneous in-flight upstream requests

	// Universe selection
	TopN             int
	SymbolWhitelist  []string // Empty slice enables dynamic volume-ranked discovery
	MinQuoteVolume   float64  // 24h quote-volume floor for discovered symbols
	EntryTimeframe   string   // Entry kline interval, e.g. "15m"
	MaxSpreadPercent float64  // Liquidity gate: max bid/ask spread in percent

	// Scheduler
	RefreshInterval time.Duration

	// Database
	DBPath string

	// HTTP API
	HTTPAddr string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.BaseURL = strings.TrimRight(getEnv("BINANCE_BASE_URL", "https://fapi.binance.com"), "/")
	if cfg.BaseURL == "" {
		errs = append(errs, "BINANCE_BASE_URL must be set")
	}

	cfg.MaxConcurrency, err = getEnvAsIntRequired("MAX_CONCURRENCY", 6)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_CONCURRENCY: %v", err))
	} else if cfg.MaxConcurrency <= 0 {
		errs = append(errs, "MAX_CONCURRENCY must be positive")
	}

	cfg.TopN, err = getEnvAsIntRequired("TOP_N", 15)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TOP_N: %v", err))
	} else if cfg.TopN <= 0 {
		errs = append(errs, "TOP_N must be positive")
	}

	// An explicitly empty SYMBOL_WHITELIST enables dynamic discovery, so the
	// default only applies when the variable is unset.
	whitelistCSV, ok := os.LookupEnv("SYMBOL_WHITELIST")
	if !ok {
		whitelistCSV = "BTCUSDT,ETHUSDT,SOLUSDT,XRPUSDT,BNBUSDT,DOGEUSDT,ADAUSDT,AVAXUSDT,LINKUSDT,TONUSDT,TRXUSDT,DOTUSDT,ATOMUSDT,NEARUSDT,LTCUSDT"
	}
	cfg.SymbolWhitelist = parseWhitelist(whitelistCSV)

	cfg.MinQuoteVolume, err = getEnvAsFloatRequired("MIN_QUOTE_VOL_24H", 50_000_000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_QUOTE_VOL_24H: %v", err))
	} else if cfg.MinQuoteVolume < 0 {
		errs = append(errs, "MIN_QUOTE_VOL_24H cannot be negative")
	}

	cfg.EntryTimeframe = getEnv("ENTRY_TIMEFRAME", "15m")
	if cfg.EntryTimeframe == "" {
		errs = append(errs, "ENTRY_TIMEFRAME must be set")
	}

	cfg.MaxSpreadPercent, err = getEnvAsFloatRequired("MAX_SPREAD_PCT", 0.12)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_SPREAD_PCT: %v", err))
	} else if cfg.MaxSpreadPercent <= 0 {
		errs = append(errs, "MAX_SPREAD_PCT must be positive")
	}

	refreshSeconds, err := getEnvAsIntRequired("REFRESH_SECONDS", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REFRESH_SECONDS: %v", err))
	} else if refreshSeconds <= 0 {
		errs = append(errs, "REFRESH_SECONDS must be positive")
	}
	cfg.RefreshInterval = time.Duration(refreshSeconds) * time.Second

	cfg.DBPath = getEnv("DB_PATH", "./data/app.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8000")

	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// parseWhitelist splits a comma-separated symbol list, trimming whitespace and
// upper-casing entries. An empty input yields an empty slice.
func parseWhitelist(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
