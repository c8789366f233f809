package priceapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/logger"
)

type mockClient struct {
	prices      map[string]SimplePrice
	pricesErr   error
	priceCalls  int
	overview    *entity.MarketOverview
	overviewErr error
	chart       []entity.PricePoint
	chartErr    error
}

func (m *mockClient) SimplePrices(_ context.Context, ids []string) (map[string]SimplePrice, error) {
	m.priceCalls++
	if m.pricesErr != nil {
		return nil, m.pricesErr
	}
	out := make(map[string]SimplePrice)
	for _, id := range ids {
		if sp, ok := m.prices[id]; ok {
			out[id] = sp
		}
	}
	return out, nil
}

func (m *mockClient) MarketChart(context.Context, string, int) ([]entity.PricePoint, error) {
	return m.chart, m.chartErr
}

func (m *mockClient) Global(context.Context) (*entity.MarketOverview, error) {
	return m.overview, m.overviewErr
}

func (m *mockClient) Trending(context.Context) ([]entity.TrendingCoin, error) {
	return nil, errors.New("not implemented")
}

func newTestService(client CoinGeckoClient) *Service {
	// A wide-open limiter keeps the tests fast.
	return NewService(client, logger.NewSlogAdapter(), time.Minute, time.Nanosecond)
}

func TestGetPrice(t *testing.T) {
	t.Run("returns the upstream quote and caches it", func(t *testing.T) {
		client := &mockClient{prices: map[string]SimplePrice{
			"ethereum": {USD: 3000, Change24Pct: 2.0, MarketCapUSD: 360e9, Volume24USD: 12e9},
		}}
		svc := newTestService(client)

		quote := svc.GetPrice(context.Background(), "eth")

		require.NotNil(t, quote)
		assert.Equal(t, "ETH", quote.Symbol)
		assert.Equal(t, 3000.0, quote.PriceUSD)
		assert.Equal(t, 2.0, quote.Change24hPercent)
		assert.InDelta(t, 60.0, quote.Change24hAbsolute, 0.001) // 3000 * 2%
		assert.Equal(t, "upstream", quote.Source)

		again := svc.GetPrice(context.Background(), "ETH")
		require.NotNil(t, again)
		assert.Equal(t, 3000.0, again.PriceUSD)
		assert.Equal(t, 1, client.priceCalls, "second lookup inside the TTL must not hit upstream")
	})

	t.Run("falls back to the static table when upstream fails", func(t *testing.T) {
		svc := newTestService(&mockClient{pricesErr: errors.New("rate limited")})

		quote := svc.GetPrice(context.Background(), "BTC")

		require.NotNil(t, quote)
		assert.Equal(t, "static", quote.Source)
		assert.Equal(t, 67400.0, quote.PriceUSD)
	})

	t.Run("prefers the stale cache over the static table", func(t *testing.T) {
		client := &mockClient{prices: map[string]SimplePrice{
			"ethereum": {USD: 3100},
		}}
		svc := newTestService(client)

		first := svc.GetPrice(context.Background(), "ETH")
		require.NotNil(t, first)

		// Upstream dies and the fresh tier expires; the last real quote wins.
		client.pricesErr = errors.New("down")
		svc.fresh.Flush()

		quote := svc.GetPrice(context.Background(), "ETH")
		require.NotNil(t, quote)
		assert.Equal(t, "stale-cache", quote.Source)
		assert.Equal(t, 3100.0, quote.PriceUSD)
	})

	t.Run("every static table symbol survives a dead upstream", func(t *testing.T) {
		svc := newTestService(&mockClient{pricesErr: errors.New("down")})

		for symbol := range staticQuotes {
			quote := svc.GetPrice(context.Background(), symbol)
			require.NotNil(t, quote, "symbol %s", symbol)
			assert.Positive(t, quote.PriceUSD, "symbol %s", symbol)
		}
	})

	t.Run("unknown symbols yield nil", func(t *testing.T) {
		svc := newTestService(&mockClient{pricesErr: errors.New("down")})

		assert.Nil(t, svc.GetPrice(context.Background(), "NOPE"))
		assert.Nil(t, svc.GetPrice(context.Background(), ""))
	})
}

func TestGetPrices(t *testing.T) {
	t.Run("covers every requested symbol", func(t *testing.T) {
		client := &mockClient{prices: map[string]SimplePrice{
			"ethereum": {USD: 3000},
			"bitcoin":  {USD: 67000},
		}}
		svc := newTestService(client)

		result := svc.GetPrices(context.Background(), []string{"eth", "BTC", "MATIC", "NOPE"})

		require.Len(t, result, 4)
		assert.Equal(t, 3000.0, result["ETH"].PriceUSD)
		assert.Equal(t, 67000.0, result["BTC"].PriceUSD)
		// MATIC is absent upstream but covered by the static table.
		require.NotNil(t, result["MATIC"])
		assert.Equal(t, "static", result["MATIC"].Source)
		// Unknown symbols stay present, mapped to nil.
		_, present := result["NOPE"]
		assert.True(t, present)
		assert.Nil(t, result["NOPE"])
	})

	t.Run("batches uncached symbols into one upstream call", func(t *testing.T) {
		client := &mockClient{prices: map[string]SimplePrice{
			"ethereum":  {USD: 3000},
			"bitcoin":   {USD: 67000},
			"chainlink": {USD: 14},
		}}
		svc := newTestService(client)

		svc.GetPrices(context.Background(), []string{"ETH", "BTC", "LINK"})

		assert.Equal(t, 1, client.priceCalls)
	})
}

func TestGetHistoricalPrices(t *testing.T) {
	t.Run("returns the upstream series", func(t *testing.T) {
		now := time.Now().UTC()
		svc := newTestService(&mockClient{chart: []entity.PricePoint{
			{Timestamp: now.Add(-time.Hour), PriceUSD: 2990},
			{Timestamp: now, PriceUSD: 3000},
		}})

		points := svc.GetHistoricalPrices(context.Background(), "ETH", 1)

		require.Len(t, points, 2)
		assert.Equal(t, 3000.0, points[1].PriceUSD)
	})

	t.Run("yields an empty series on failure, never fabricated history", func(t *testing.T) {
		svc := newTestService(&mockClient{chartErr: errors.New("down")})

		assert.Empty(t, svc.GetHistoricalPrices(context.Background(), "ETH", 7))
		assert.Empty(t, svc.GetHistoricalPrices(context.Background(), "NOPE", 7))
		assert.Empty(t, svc.GetHistoricalPrices(context.Background(), "ETH", 0))
	})
}

func TestGetMarketOverview(t *testing.T) {
	t.Run("caches the overview", func(t *testing.T) {
		client := &mockClient{overview: &entity.MarketOverview{TotalMarketCapUSD: 2.4e12}}
		svc := newTestService(client)

		first := svc.GetMarketOverview(context.Background())
		require.NotNil(t, first)

		client.overview = nil
		client.overviewErr = errors.New("down")
		second := svc.GetMarketOverview(context.Background())

		require.NotNil(t, second)
		assert.Equal(t, 2.4e12, second.TotalMarketCapUSD)
	})

	t.Run("nil when nothing was ever fetched", func(t *testing.T) {
		svc := newTestService(&mockClient{overviewErr: errors.New("down")})
		assert.Nil(t, svc.GetMarketOverview(context.Background()))
	})
}
