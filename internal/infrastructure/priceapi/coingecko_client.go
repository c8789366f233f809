package priceapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SimplePrice mirrors one entry of the /simple/price response.
type SimplePrice struct {
	USD          float64 `json:"usd"`
	MarketCapUSD float64 `json:"usd_market_cap"`
	Volume24USD  float64 `json:"usd_24h_vol"`
	Change24Pct  float64 `json:"usd_24h_change"`
}

// CoinGeckoClient defines the interface for the upstream price API. Any API
// exposing the same query shapes is substitutable.
type CoinGeckoClient interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]SimplePrice, error)
	MarketChart(ctx context.Context, id string, days int) ([]entity.PricePoint, error)
	Global(ctx context.Context) (*entity.MarketOverview, error)
	Trending(ctx context.Context) ([]entity.TrendingCoin, error)
}

// coinGeckoClientImpl is the fasthttp-backed implementation of CoinGeckoClient.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) CoinGeckoClient {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

func (c *coinGeckoClientImpl) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "failed")
		c.logger.Warn("Price API request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.RecordUpstreamRequest(endpoint, "failed")
		c.logger.Warn("Price API returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("price API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	metrics.RecordUpstreamRequest(endpoint, "success")

	// Body is reused by fasthttp after release; copy it out.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// SimplePrices implements CoinGeckoClient via /simple/price.
func (c *coinGeckoClientImpl) SimplePrices(ctx context.Context, ids []string) (map[string]SimplePrice, error) {
	if len(ids) == 0 {
		return map[string]SimplePrice{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_market_cap", "true")
	query.Set("include_24hr_vol", "true")
	query.Set("include_24hr_change", "true")

	body, err := c.get(ctx, "simple_price", "/simple/price", query)
	if err != nil {
		return nil, err
	}

	out := make(map[string]SimplePrice)
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simple price response: %w", err)
	}
	return out, nil
}

// MarketChart implements CoinGeckoClient via /coins/{id}/market_chart.
func (c *coinGeckoClientImpl) MarketChart(ctx context.Context, id string, days int) ([]entity.PricePoint, error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("days", fmt.Sprintf("%d", days))

	body, err := c.get(ctx, "market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal market chart response: %w", err)
	}

	points := make([]entity.PricePoint, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		points = append(points, entity.PricePoint{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			PriceUSD:  p[1],
		})
	}
	return points, nil
}

// Global implements CoinGeckoClient via /global.
func (c *coinGeckoClientImpl) Global(ctx context.Context) (*entity.MarketOverview, error) {
	body, err := c.get(ctx, "global", "/global", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			TotalMarketCap       map[string]float64 `json:"total_market_cap"`
			TotalVolume          map[string]float64 `json:"total_volume"`
			MarketCapPercentage  map[string]float64 `json:"market_cap_percentage"`
			MarketCapChange24USD float64            `json:"market_cap_change_percentage_24h_usd"`
			ActiveCryptos        int                `json:"active_cryptocurrencies"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal global market response: %w", err)
	}

	return &entity.MarketOverview{
		TotalMarketCapUSD:    payload.Data.TotalMarketCap["usd"],
		TotalVolume24hUSD:    payload.Data.TotalVolume["usd"],
		BTCDominancePercent:  payload.Data.MarketCapPercentage["btc"],
		MarketCapChange24h:   payload.Data.MarketCapChange24USD,
		ActiveCryptocurrency: payload.Data.ActiveCryptos,
		FetchedAt:            time.Now().UTC(),
	}, nil
}

// Trending implements CoinGeckoClient via /search/trending.
func (c *coinGeckoClientImpl) Trending(ctx context.Context) ([]entity.TrendingCoin, error) {
	body, err := c.get(ctx, "trending", "/search/trending", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Coins []struct {
			Item struct {
				ID            string `json:"id"`
				Symbol        string `json:"symbol"`
				Name          string `json:"name"`
				MarketCapRank int    `json:"market_cap_rank"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trending response: %w", err)
	}

	out := make([]entity.TrendingCoin, 0, len(payload.Coins))
	for _, coin := range payload.Coins {
		out = append(out, entity.TrendingCoin{
			ID:            coin.Item.ID,
			Symbol:        strings.ToUpper(coin.Item.Symbol),
			Name:          coin.Item.Name,
			MarketCapRank: coin.Item.MarketCapRank,
		})
	}
	return out, nil
}
