package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/metrics"
	"rwa_dashboard/internal/pkg/utils"
)

const (
	// DefaultCacheTTL bounds how long aggregates are served without refetching.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultRefreshInterval paces the background refresh loop.
	DefaultRefreshInterval = 5 * time.Minute

	portfolioCacheKey = "portfolio"
	marketCacheKey    = "market"
	gasCacheKey       = "metrics"
	loansCachePrefix  = "loans-"
)

// DialFunc opens a read-only chain backend. Overridable in tests.
type DialFunc func(rpcURL string) (port.Backend, error)

func defaultDial(rpcURL string) (port.Backend, error) {
	return ethclient.Dial(rpcURL)
}

// DashboardAggregator implements port.Aggregator. It combines the price
// service, the network registry, facet reads and the wallet session into the
// unified views the UI renders, caching every aggregate for a fixed TTL.
type DashboardAggregator struct {
	prices   port.PriceService
	registry port.NetworkRegistry
	facets   port.FacetAccessor
	session  port.WalletSession
	logger   port.Logger
	mode     entity.DataSourceMode
	dial     DialFunc

	cache           *gocache.Cache
	refreshInterval time.Duration

	mu           sync.Mutex
	listeners    map[int]port.RefreshListener
	nextListener int

	refreshMu  sync.Mutex
	refreshing bool
}

// AggregatorOption configures a DashboardAggregator.
type AggregatorOption func(*DashboardAggregator)

// WithCacheTTL overrides the aggregate cache TTL.
func WithCacheTTL(ttl time.Duration) AggregatorOption {
	return func(a *DashboardAggregator) {
		if ttl > 0 {
			a.cache = gocache.New(ttl, 2*ttl)
		}
	}
}

// WithRefreshInterval overrides the background refresh cadence.
func WithRefreshInterval(interval time.Duration) AggregatorOption {
	return func(a *DashboardAggregator) {
		if interval > 0 {
			a.refreshInterval = interval
		}
	}
}

// WithAggregatorDial overrides how read-only chain backends are opened.
func WithAggregatorDial(d DialFunc) AggregatorOption {
	return func(a *DashboardAggregator) { a.dial = d }
}

// NewDashboardAggregator creates the aggregation service.
func NewDashboardAggregator(
	prices port.PriceService,
	registry port.NetworkRegistry,
	facets port.FacetAccessor,
	session port.WalletSession,
	log port.Logger,
	mode entity.DataSourceMode,
	opts ...AggregatorOption,
) *DashboardAggregator {
	a := &DashboardAggregator{
		prices:          prices,
		registry:        registry,
		facets:          facets,
		session:         session,
		logger:          log,
		mode:            mode,
		dial:            defaultDial,
		cache:           gocache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		refreshInterval: DefaultRefreshInterval,
		listeners:       make(map[int]port.RefreshListener),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetPortfolioData implements port.Aggregator.
func (a *DashboardAggregator) GetPortfolioData(ctx context.Context) (*entity.PortfolioSnapshot, error) {
	if cached, ok := a.cache.Get(portfolioCacheKey); ok {
		return cached.(*entity.PortfolioSnapshot), nil
	}

	timer := prometheus.NewTimer(metrics.AggregationSeconds.WithLabelValues("portfolio"))
	defer timer.ObserveDuration()

	snapshot := a.buildPortfolio(ctx)
	a.cache.SetDefault(portfolioCacheKey, snapshot)
	return snapshot, nil
}

// buildPortfolio produces one aggregation pass: live positions from the
// primary chain plus, in fallback mode, synthesized placeholder positions for
// the remaining mainnets so the dashboard always has something to show.
func (a *DashboardAggregator) buildPortfolio(ctx context.Context) *entity.PortfolioSnapshot {
	state := a.session.State()
	snapshot := &entity.PortfolioSnapshot{
		WalletAddress: state.Address,
		GeneratedAt:   time.Now().UTC(),
	}

	var positions []entity.AssetPosition
	if state.IsConnected {
		positions = append(positions, a.livePositions(ctx, state)...)
	}
	if a.mode == entity.ModeFallback && state.Address != "" {
		synthesized := a.synthesizedPositions(ctx, state)
		if len(synthesized) > 0 {
			snapshot.ContainsSynthetic = true
			positions = append(positions, synthesized...)
		}
	}

	byChain := make(map[uint64]*entity.NetworkBreakdown)
	for _, pos := range positions {
		snapshot.TotalValueUSD += pos.ValueUSD
		snapshot.Change24hUSD += pos.ValueUSD * pos.PriceChange24h / 100

		breakdown, ok := byChain[pos.ChainID]
		if !ok {
			breakdown = &entity.NetworkBreakdown{Network: pos.Network, ChainID: pos.ChainID}
			byChain[pos.ChainID] = breakdown
		}
		breakdown.TotalValueUSD += pos.ValueUSD
		breakdown.PositionCount++
	}
	// Breakdown order follows the registry, not map iteration.
	for _, network := range a.registry.All() {
		if breakdown, ok := byChain[network.ChainID]; ok {
			snapshot.Networks = append(snapshot.Networks, *breakdown)
		}
	}
	snapshot.Positions = positions
	return snapshot
}

// livePositions reads the connected chain: the native balance plus, on the
// primary chain, the user's asset NFTs. NFT positions are valued at zero until
// an appraisal source exists.
func (a *DashboardAggregator) livePositions(ctx context.Context, state entity.WalletState) []entity.AssetPosition {
	network := a.registry.ByChainID(state.ChainID)
	if network == nil {
		return nil
	}

	var positions []entity.AssetPosition

	native := entity.AssetPosition{
		ID:          fmt.Sprintf("%s-native", network.Identifier),
		DisplayName: network.NativeSymbol,
		Kind:        entity.AssetCrypto,
		Symbol:      network.NativeSymbol,
		Balance:     state.NativeBalance,
		Network:     network.Name,
		ChainID:     network.ChainID,
	}
	if quote := a.prices.GetPrice(ctx, network.NativeSymbol); quote != nil {
		native.UnitPriceUSD = quote.PriceUSD
		native.PriceChange24h = quote.Change24hPercent
		native.ValueUSD = parseDecimal(state.NativeBalance) * quote.PriceUSD
	}
	positions = append(positions, native)

	backend := a.session.Backend()
	if backend == nil || state.ChainID != a.registry.PrimaryChainID() {
		return positions
	}
	nfts, err := a.readAssetNFTs(ctx, backend, state.Address)
	if err != nil {
		a.logger.Warn("Failed to read asset NFTs", "address", state.Address, "error", err)
		metrics.RecordRPCCall(network.Identifier, "failed")
		return positions
	}
	metrics.RecordRPCCall(network.Identifier, "success")
	for _, nft := range nfts {
		nft.Network = network.Name
		nft.ChainID = network.ChainID
		nft.ContractAddress = network.DiamondAddress
		positions = append(positions, nft)
	}
	return positions
}

// readAssetNFTs lists the user's tokenized asset NFTs through the user facet.
// Positions are valued at zero until an appraisal source exists.
func (a *DashboardAggregator) readAssetNFTs(ctx context.Context, backend port.Backend, address string) ([]entity.AssetPosition, error) {
	contract, err := a.facets.FacetContract(ctx, entity.FacetAuthUser, backend)
	if err != nil {
		return nil, err
	}
	opts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := contract.Call(opts, &out, "getUserNFTs", common.HexToAddress(address)); err != nil {
		return nil, fmt.Errorf("getUserNFTs failed: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	tokenIDs, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getUserNFTs result type %T", out[0])
	}

	positions := make([]entity.AssetPosition, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		name := fmt.Sprintf("Tokenized Asset #%s", tokenID)
		var metaOut []interface{}
		if err := contract.Call(opts, &metaOut, "getNFTMetadata", tokenID); err == nil && len(metaOut) == 1 {
			if meta, ok := metaOut[0].(string); ok && meta != "" {
				name = meta
			}
		}
		positions = append(positions, entity.AssetPosition{
			ID:          fmt.Sprintf("rwa-%s", tokenID),
			DisplayName: name,
			Kind:        entity.AssetRWA,
			Symbol:      "RWA",
			Balance:     "1",
			TokenID:     tokenID.String(),
		})
	}
	return positions, nil
}

// synthesizedPositions fabricates small, address-stable native balances for
// the remaining mainnets and prices them live. Only used in fallback mode;
// every position is marked Estimated.
func (a *DashboardAggregator) synthesizedPositions(ctx context.Context, state entity.WalletState) []entity.AssetPosition {
	seed := addressSeed(state.Address)

	var networks []entity.NetworkConfig
	var symbols []string
	for _, network := range a.registry.All() {
		if network.IsTestnet || network.ChainID == state.ChainID {
			continue
		}
		networks = append(networks, network)
		symbols = append(symbols, network.NativeSymbol)
	}
	if len(networks) == 0 {
		return nil
	}
	quotes := a.prices.GetPrices(ctx, symbols)

	positions := make([]entity.AssetPosition, 0, len(networks))
	for i, network := range networks {
		// 0.05 .. 2.60 native units, stable per address and network.
		units := 0.05 + float64((seed>>uint(i*7%57))%256)/100
		pos := entity.AssetPosition{
			ID:          fmt.Sprintf("%s-native-est", network.Identifier),
			DisplayName: network.NativeSymbol,
			Kind:        entity.AssetCrypto,
			Symbol:      network.NativeSymbol,
			Balance:     strconv.FormatFloat(units, 'f', 4, 64),
			Network:     network.Name,
			ChainID:     network.ChainID,
			Estimated:   true,
		}
		if quote := quotes[strings.ToUpper(network.NativeSymbol)]; quote != nil {
			pos.UnitPriceUSD = quote.PriceUSD
			pos.PriceChange24h = quote.Change24hPercent
			pos.ValueUSD = units * quote.PriceUSD
		}
		positions = append(positions, pos)
	}
	return positions
}

// GetMarketOverview implements port.Aggregator.
func (a *DashboardAggregator) GetMarketOverview(ctx context.Context) *entity.MarketOverview {
	if cached, ok := a.cache.Get(marketCacheKey); ok {
		return cached.(*entity.MarketOverview)
	}
	timer := prometheus.NewTimer(metrics.AggregationSeconds.WithLabelValues("market"))
	defer timer.ObserveDuration()

	overview := a.prices.GetMarketOverview(ctx)
	if overview != nil {
		a.cache.SetDefault(marketCacheKey, overview)
	}
	return overview
}

// GetGasSnapshot implements port.Aggregator. Samples the primary chain's
// suggested gas price; nil when no backend is reachable.
func (a *DashboardAggregator) GetGasSnapshot(ctx context.Context) *entity.GasSnapshot {
	if cached, ok := a.cache.Get(gasCacheKey); ok {
		return cached.(*entity.GasSnapshot)
	}
	timer := prometheus.NewTimer(metrics.AggregationSeconds.WithLabelValues("metrics"))
	defer timer.ObserveDuration()

	primary := a.registry.PrimaryChainID()
	network := a.registry.ByChainID(primary)
	if network == nil {
		return nil
	}

	backend := a.primaryBackend(network)
	if backend == nil {
		return nil
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		a.logger.Warn("Gas price sampling failed", "network", network.Name, "error", err)
		metrics.RecordRPCCall(network.Identifier, "failed")
		return nil
	}
	metrics.RecordRPCCall(network.Identifier, "success")

	snapshot := &entity.GasSnapshot{
		ChainID:      primary,
		GasPriceWei:  gasPrice.String(),
		GasPriceGwei: utils.WeiToGwei(gasPrice),
		FetchedAt:    time.Now().UTC(),
	}
	a.cache.SetDefault(gasCacheKey, snapshot)
	return snapshot
}

// primaryBackend prefers the session's connection when it already points at
// the primary chain, dialing a fresh read-only one otherwise.
func (a *DashboardAggregator) primaryBackend(network *entity.NetworkConfig) port.Backend {
	if state := a.session.State(); state.IsConnected && state.ChainID == network.ChainID {
		if backend := a.session.Backend(); backend != nil {
			return backend
		}
	}
	backend, err := a.dial(network.RPCURL)
	if err != nil {
		a.logger.Warn("Failed to dial primary chain", "network", network.Name, "error", err)
		return nil
	}
	return backend
}

// RefreshAll implements port.Aggregator. Overlapping invocations collapse:
// while one refresh runs, later ones return immediately.
func (a *DashboardAggregator) RefreshAll(ctx context.Context) {
	a.refreshMu.Lock()
	if a.refreshing {
		a.refreshMu.Unlock()
		a.logger.Debug("Refresh already in progress, skipping")
		return
	}
	a.refreshing = true
	a.refreshMu.Unlock()
	defer func() {
		a.refreshMu.Lock()
		a.refreshing = false
		a.refreshMu.Unlock()
	}()

	a.invalidateAll()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := a.GetPortfolioData(gctx)
		return err
	})
	g.Go(func() error {
		a.GetMarketOverview(gctx)
		return nil
	})
	g.Go(func() error {
		a.GetGasSnapshot(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		a.logger.Warn("Refresh completed with errors", "error", err)
	}

	a.notifyRefresh()
}

// StartAutoRefresh runs RefreshAll on a fixed cadence until ctx is cancelled.
func (a *DashboardAggregator) StartAutoRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(a.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.RefreshAll(ctx)
			}
		}
	}()
}

// Subscribe implements port.Aggregator.
func (a *DashboardAggregator) Subscribe(l port.RefreshListener) func() {
	a.mu.Lock()
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = l
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *DashboardAggregator) notifyRefresh() {
	a.mu.Lock()
	listeners := make([]port.RefreshListener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l.OnRefresh()
	}
}

// invalidateAll drops every cached aggregate, including per-address loan sets.
func (a *DashboardAggregator) invalidateAll() {
	a.cache.Delete(portfolioCacheKey)
	a.cache.Delete(marketCacheKey)
	a.cache.Delete(gasCacheKey)
	for key := range a.cache.Items() {
		if strings.HasPrefix(key, loansCachePrefix) {
			a.cache.Delete(key)
		}
	}
}

// addressSeed derives a stable seed from a wallet address for deterministic
// placeholder data. Same address, same data, across restarts.
func addressSeed(address string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(address)))
	return h.Sum64()
}

func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
