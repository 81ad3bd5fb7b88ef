package strategy

import (
	"context"
	"sort"
)

// TopSymbols returns the ordered universe to evaluate this cycle.
//
// With a non-empty whitelist the first topN entries are returned verbatim and
// no upstream calls are made. Otherwise symbols are discovered dynamically:
// USDT-quoted perpetuals in TRADING status, filtered by the 24h quote-volume
// floor and ranked by quote volume descending.
func (e *Engine) TopSymbols(ctx context.Context) ([]string, error) {
	if len(e.cfg.Whitelist) > 0 {
		if len(e.cfg.Whitelist) > e.cfg.TopN {
			return e.cfg.Whitelist[:e.cfg.TopN], nil
		}
		return e.cfg.Whitelist, nil
	}

	info, err := e.client.ExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(info))
	for _, s := range info {
		if s.QuoteAsset != "USDT" || s.ContractType != "PERPETUAL" || s.Status != "TRADING" {
			continue
		}
		allowed[s.Symbol] = struct{}{}
	}

	tickers, err := e.client.Ticker24h(ctx)
	if err != nil {
		return nil, err
	}
	ranked := tickers[:0:0]
	for _, t := range tickers {
		if _, ok := allowed[t.Symbol]; !ok {
			continue
		}
		if e.cfg.MinQuoteVolume > 0 && t.QuoteVolume < e.cfg.MinQuoteVolume {
			continue
		}
		ranked = append(ranked, t)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QuoteVolume > ranked[j].QuoteVolume
	})

	if len(ranked) > e.cfg.TopN {
		ranked = ranked[:e.cfg.TopN]
	}
	symbols := make([]string, len(ranked))
	for i, t := range ranked {
		symbols[i] = t.Symbol
	}
	return symbols, nil
}
