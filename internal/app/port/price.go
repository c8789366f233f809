package port

import (
	"context"

	"rwa_dashboard/internal/domain/entity"
)

// PriceService maps crypto symbols to fiat quotes. Reads degrade instead of
// failing: every method absorbs upstream errors and falls back to cached or
// static data, returning nil/empty only when nothing plausible is known.
type PriceService interface {
	// GetPrice returns a quote for the symbol or nil when the symbol is
	// unknown and every fallback tier is empty. Never returns an error.
	GetPrice(ctx context.Context, symbol string) *entity.PriceQuote

	// GetPrices resolves a batch of symbols. The returned map contains an
	// entry for every requested symbol; unresolvable ones map to nil.
	GetPrices(ctx context.Context, symbols []string) map[string]*entity.PriceQuote

	// GetHistoricalPrices returns a best-effort daily series. Empty on any
	// failure; historical data is never fabricated.
	GetHistoricalPrices(ctx context.Context, symbol string, days int) []entity.PricePoint

	// GetMarketOverview returns global market figures, nil on failure.
	GetMarketOverview(ctx context.Context) *entity.MarketOverview

	// GetTrending returns the upstream trending list, empty on failure.
	GetTrending(ctx context.Context) []entity.TrendingCoin
}
