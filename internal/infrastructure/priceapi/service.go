package priceapi

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/metrics"
)

const (
	// DefaultQuoteTTL is how long a fetched quote counts as fresh.
	DefaultQuoteTTL = 5 * time.Minute
	// DefaultMinRequestInterval is the hard spacing between upstream calls.
	DefaultMinRequestInterval = time.Second

	overviewCacheKey = "market-overview"
	trendingCacheKey = "trending"
)

// Service implements port.PriceService. Quotes resolve through three tiers:
// fresh cache, throttled upstream, then stale cache and the static table.
// The service never surfaces an upstream error to its callers.
type Service struct {
	client  CoinGeckoClient
	logger  port.Logger
	limiter *rate.Limiter
	group   singleflight.Group

	fresh *gocache.Cache // TTL-bound quotes
	stale *gocache.Cache // last known quote per symbol, never expires
}

// NewService creates the price service. Zero ttl/minInterval select the
// defaults.
func NewService(client CoinGeckoClient, log port.Logger, ttl, minInterval time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if minInterval <= 0 {
		minInterval = DefaultMinRequestInterval
	}
	return &Service{
		client:  client,
		logger:  log,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		fresh:   gocache.New(ttl, 2*ttl),
		stale:   gocache.New(gocache.NoExpiration, 0),
	}
}

// GetPrice implements port.PriceService. Symbols are matched
// case-insensitively; the returned quote carries the uppercase symbol.
func (s *Service) GetPrice(ctx context.Context, symbol string) *entity.PriceQuote {
	key := normalizeSymbol(symbol)
	if key == "" {
		return nil
	}

	if cached, ok := s.fresh.Get(key); ok {
		metrics.RecordCacheLookup("fresh")
		return cached.(*entity.PriceQuote)
	}

	// Concurrent callers for the same symbol share one upstream request.
	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		return s.fetchQuote(ctx, key), nil
	})
	if quote, ok := v.(*entity.PriceQuote); ok && quote != nil {
		return quote
	}
	return nil
}

// GetPrices implements port.PriceService. The result contains an entry for
// every requested symbol (keyed uppercase); uncached symbols are batched into
// a single upstream call.
func (s *Service) GetPrices(ctx context.Context, symbols []string) map[string]*entity.PriceQuote {
	result := make(map[string]*entity.PriceQuote, len(symbols))

	var missingIDs []string
	idToKey := make(map[string]string)
	for _, symbol := range symbols {
		key := normalizeSymbol(symbol)
		if key == "" {
			continue
		}
		if _, seen := result[key]; seen {
			continue
		}
		if cached, ok := s.fresh.Get(key); ok {
			metrics.RecordCacheLookup("fresh")
			result[key] = cached.(*entity.PriceQuote)
			continue
		}
		result[key] = nil
		if id, known := coinIDBySymbol[key]; known {
			missingIDs = append(missingIDs, id)
			idToKey[id] = key
		}
	}

	if len(missingIDs) > 0 {
		prices, err := s.callSimplePrices(ctx, missingIDs)
		if err != nil {
			s.logger.Warn("Batched price fetch failed, falling back per symbol", "symbols", len(missingIDs), "error", err)
		}
		for id, key := range idToKey {
			if sp, ok := prices[id]; ok {
				result[key] = s.storeQuote(key, sp)
			}
		}
	}

	// Anything still nil walks the stale/static chain.
	for key, quote := range result {
		if quote == nil {
			result[key] = s.fallbackQuote(key)
		}
	}
	return result
}

// GetHistoricalPrices implements port.PriceService. Best effort only: any
// failure yields an empty series, never fabricated history.
func (s *Service) GetHistoricalPrices(ctx context.Context, symbol string, days int) []entity.PricePoint {
	key := normalizeSymbol(symbol)
	id, known := coinIDBySymbol[key]
	if !known || days <= 0 {
		return []entity.PricePoint{}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return []entity.PricePoint{}
	}
	points, err := s.client.MarketChart(ctx, id, days)
	if err != nil {
		s.logger.Warn("Historical price fetch failed", "symbol", key, "days", days, "error", err)
		return []entity.PricePoint{}
	}
	return points
}

// GetMarketOverview implements port.PriceService.
func (s *Service) GetMarketOverview(ctx context.Context) *entity.MarketOverview {
	if cached, ok := s.fresh.Get(overviewCacheKey); ok {
		metrics.RecordCacheLookup("fresh")
		return cached.(*entity.MarketOverview)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return s.staleOverview()
	}
	overview, err := s.client.Global(ctx)
	if err != nil {
		s.logger.Warn("Global market fetch failed", "error", err)
		return s.staleOverview()
	}
	s.fresh.SetDefault(overviewCacheKey, overview)
	s.stale.SetDefault(overviewCacheKey, overview)
	return overview
}

// GetTrending implements port.PriceService.
func (s *Service) GetTrending(ctx context.Context) []entity.TrendingCoin {
	if cached, ok := s.fresh.Get(trendingCacheKey); ok {
		metrics.RecordCacheLookup("fresh")
		return cached.([]entity.TrendingCoin)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return []entity.TrendingCoin{}
	}
	coins, err := s.client.Trending(ctx)
	if err != nil {
		s.logger.Warn("Trending fetch failed", "error", err)
		return []entity.TrendingCoin{}
	}
	s.fresh.SetDefault(trendingCacheKey, coins)
	return coins
}

// fetchQuote resolves one symbol upstream, falling back down the tiers.
func (s *Service) fetchQuote(ctx context.Context, key string) *entity.PriceQuote {
	id, known := coinIDBySymbol[key]
	if !known {
		return s.fallbackQuote(key)
	}

	prices, err := s.callSimplePrices(ctx, []string{id})
	if err != nil {
		return s.fallbackQuote(key)
	}
	sp, ok := prices[id]
	if !ok {
		s.logger.Warn("Upstream omitted requested coin id", "symbol", key, "id", id)
		return s.fallbackQuote(key)
	}
	return s.storeQuote(key, sp)
}

// callSimplePrices serializes the upstream call through the request limiter.
func (s *Service) callSimplePrices(ctx context.Context, ids []string) (map[string]SimplePrice, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.client.SimplePrices(ctx, ids)
}

// storeQuote materializes an upstream price into both cache tiers.
func (s *Service) storeQuote(key string, sp SimplePrice) *entity.PriceQuote {
	quote := &entity.PriceQuote{
		Symbol:            key,
		PriceUSD:          sp.USD,
		Change24hAbsolute: sp.USD * sp.Change24Pct / 100,
		Change24hPercent:  sp.Change24Pct,
		MarketCapUSD:      sp.MarketCapUSD,
		Volume24hUSD:      sp.Volume24USD,
		FetchedAt:         time.Now().UTC(),
		Source:            "upstream",
	}
	s.fresh.SetDefault(key, quote)
	s.stale.SetDefault(key, quote)
	return quote
}

// fallbackQuote walks the degrade chain: stale cache, then the static table.
func (s *Service) fallbackQuote(key string) *entity.PriceQuote {
	if cached, ok := s.stale.Get(key); ok {
		metrics.RecordCacheLookup("stale")
		last := *cached.(*entity.PriceQuote)
		last.Source = "stale-cache"
		return &last
	}
	if static, ok := staticQuotes[key]; ok {
		metrics.RecordCacheLookup("static")
		return &entity.PriceQuote{
			Symbol:            key,
			PriceUSD:          static.PriceUSD,
			Change24hAbsolute: static.PriceUSD * static.Change24Pct / 100,
			Change24hPercent:  static.Change24Pct,
			FetchedAt:         time.Now().UTC(),
			Source:            "static",
		}
	}
	metrics.RecordCacheLookup("miss")
	return nil
}

// staleOverview returns the last known market overview, nil when none exists.
func (s *Service) staleOverview() *entity.MarketOverview {
	if cached, ok := s.stale.Get(overviewCacheKey); ok {
		metrics.RecordCacheLookup("stale")
		return cached.(*entity.MarketOverview)
	}
	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
