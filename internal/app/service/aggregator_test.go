package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/logger"
)

type stubPriceService struct {
	quotes   map[string]*entity.PriceQuote
	getCalls int
	overview *entity.MarketOverview
}

func (s *stubPriceService) GetPrice(_ context.Context, symbol string) *entity.PriceQuote {
	s.getCalls++
	return s.quotes[symbol]
}

func (s *stubPriceService) GetPrices(_ context.Context, symbols []string) map[string]*entity.PriceQuote {
	out := make(map[string]*entity.PriceQuote, len(symbols))
	for _, symbol := range symbols {
		out[symbol] = s.quotes[symbol]
	}
	return out
}

func (s *stubPriceService) GetHistoricalPrices(context.Context, string, int) []entity.PricePoint {
	return []entity.PricePoint{}
}

func (s *stubPriceService) GetMarketOverview(context.Context) *entity.MarketOverview {
	return s.overview
}

func (s *stubPriceService) GetTrending(context.Context) []entity.TrendingCoin {
	return []entity.TrendingCoin{}
}

type stubRegistry struct {
	networks []entity.NetworkConfig
	primary  uint64
}

func (r *stubRegistry) ByChainID(chainID uint64) *entity.NetworkConfig {
	for _, cfg := range r.networks {
		if cfg.ChainID == chainID {
			copied := cfg
			return &copied
		}
	}
	return nil
}

func (r *stubRegistry) ByName(string) *entity.NetworkConfig { return nil }

func (r *stubRegistry) IsTestnet(chainID uint64) bool {
	if cfg := r.ByChainID(chainID); cfg != nil {
		return cfg.IsTestnet
	}
	return false
}

func (r *stubRegistry) All() []entity.NetworkConfig { return r.networks }

func (r *stubRegistry) PrimaryChainID() uint64 { return r.primary }

type stubSession struct {
	state entity.WalletState
}

func (s *stubSession) Connect(context.Context) (entity.WalletState, error) { return s.state, nil }
func (s *stubSession) Disconnect()                                         {}
func (s *stubSession) SwitchNetwork(context.Context, uint64) error         { return nil }
func (s *stubSession) State() entity.WalletState                           { return s.state }
func (s *stubSession) Subscribe(port.WalletListener) func()                { return func() {} }
func (s *stubSession) Backend() port.Backend                               { return nil }
func (s *stubSession) Signer() *bind.TransactOpts                          { return nil }

type stubAccessor struct{}

func (stubAccessor) FacetContract(context.Context, entity.Facet, port.Backend) (*bind.BoundContract, error) {
	return nil, errors.New("no chain available")
}

func testNetworks() *stubRegistry {
	return &stubRegistry{
		primary: 50002,
		networks: []entity.NetworkConfig{
			{ChainID: 50002, Name: "Pharos Devnet", Identifier: "pharos", NativeSymbol: "PTT", Decimals: 18, IsTestnet: true, DiamondAddress: "0x9A8f7C26E2E1b0d7486F4dA9D1d4A1e6C4b9D301"},
			{ChainID: 1, Name: "Ethereum", Identifier: "ethereum", NativeSymbol: "ETH", Decimals: 18},
			{ChainID: 137, Name: "Polygon", Identifier: "polygon", NativeSymbol: "MATIC", Decimals: 18},
		},
	}
}

func newTestAggregator(t *testing.T, prices port.PriceService, session port.WalletSession, mode entity.DataSourceMode) *DashboardAggregator {
	t.Helper()
	if prices == nil {
		prices = &stubPriceService{}
	}
	if session == nil {
		session = &stubSession{}
	}
	return NewDashboardAggregator(prices, testNetworks(), stubAccessor{}, session, logger.NewSlogAdapter(), mode)
}

func TestCalculateLoanTerms(t *testing.T) {
	agg := newTestAggregator(t, nil, nil, entity.ModeFallback)

	t.Run("twelve month quote", func(t *testing.T) {
		terms := agg.CalculateLoanTerms(context.Background(), 10000, 12)

		assert.False(t, terms.Authoritative)
		assert.Equal(t, 7.0, terms.InterestRatePercent)
		assert.Equal(t, 10700.0, terms.TotalDebtUSD)
		assert.Equal(t, 1070.0, terms.BufferAmountUSD)
		assert.InDelta(t, 891.67, terms.MonthlyPaymentUSD, 0.01)
	})

	t.Run("longer terms carry higher rates", func(t *testing.T) {
		short := agg.CalculateLoanTerms(context.Background(), 10000, 6)
		long := agg.CalculateLoanTerms(context.Background(), 10000, 36)

		assert.Equal(t, 6.0, short.InterestRatePercent)
		assert.Equal(t, 11.0, long.InterestRatePercent)
		assert.Greater(t, long.TotalDebtUSD, short.TotalDebtUSD)
	})

	t.Run("zero duration yields zero monthly payment", func(t *testing.T) {
		terms := agg.CalculateLoanTerms(context.Background(), 10000, 0)
		assert.Zero(t, terms.MonthlyPaymentUSD)
	})

	t.Run("non-positive amount yields an empty quote", func(t *testing.T) {
		terms := agg.CalculateLoanTerms(context.Background(), 0, 12)
		assert.Zero(t, terms.TotalDebtUSD)
	})
}

func TestGetUserLoans(t *testing.T) {
	const address = "0xAbC0000000000000000000000000000000000001"

	t.Run("fallback mode synthesizes between one and five loans", func(t *testing.T) {
		agg := newTestAggregator(t, nil, nil, entity.ModeFallback)

		loans, err := agg.GetUserLoans(context.Background(), address)

		require.NoError(t, err)
		require.NotEmpty(t, loans)
		assert.LessOrEqual(t, len(loans), 5)
		for _, loan := range loans {
			assert.True(t, loan.Synthetic)
			assert.Greater(t, loan.TotalDebtUSD, 0.0)
			assert.GreaterOrEqual(t, loan.TotalDebtUSD, loan.LoanAmountUSD)
			if loan.Status == entity.LoanActive {
				assert.Greater(t, loan.OutstandingUSD, 0.0)
			}
		}
	})

	t.Run("synthesis is deterministic per address", func(t *testing.T) {
		first := newTestAggregator(t, nil, nil, entity.ModeFallback)
		second := newTestAggregator(t, nil, nil, entity.ModeFallback)

		a, err := first.GetUserLoans(context.Background(), address)
		require.NoError(t, err)
		b, err := second.GetUserLoans(context.Background(), address)
		require.NoError(t, err)

		require.Equal(t, len(a), len(b))
		for i := range a {
			assert.Equal(t, a[i].LoanAmountUSD, b[i].LoanAmountUSD)
			assert.Equal(t, a[i].InterestRatePercent, b[i].InterestRatePercent)
			assert.Equal(t, a[i].Status, b[i].Status)
		}
	})

	t.Run("live mode returns empty instead of synthesizing", func(t *testing.T) {
		agg := newTestAggregator(t, nil, nil, entity.ModeLive)

		loans, err := agg.GetUserLoans(context.Background(), address)

		require.NoError(t, err)
		assert.Empty(t, loans)
	})

	t.Run("results are cached per address", func(t *testing.T) {
		agg := newTestAggregator(t, nil, nil, entity.ModeFallback)

		first, err := agg.GetUserLoans(context.Background(), address)
		require.NoError(t, err)
		second, err := agg.GetUserLoans(context.Background(), address)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestGetLoanAnalytics(t *testing.T) {
	t.Run("zero outstanding yields zero collateralization", func(t *testing.T) {
		agg := newTestAggregator(t, nil, nil, entity.ModeLive)

		analytics, err := agg.GetLoanAnalytics(context.Background(), "0xAbC0000000000000000000000000000000000001")

		require.NoError(t, err)
		assert.Zero(t, analytics.TotalLoans)
		assert.Zero(t, analytics.CollateralizationPercent)
		assert.Zero(t, analytics.AverageInterestPercent)
	})

	t.Run("sums are consistent with the loan set", func(t *testing.T) {
		agg := newTestAggregator(t, nil, nil, entity.ModeFallback)
		address := "0xDeF0000000000000000000000000000000000002"

		loans, err := agg.GetUserLoans(context.Background(), address)
		require.NoError(t, err)
		analytics, err := agg.GetLoanAnalytics(context.Background(), address)
		require.NoError(t, err)

		assert.Equal(t, len(loans), analytics.TotalLoans)
		var borrowed, outstanding float64
		for _, loan := range loans {
			borrowed += loan.LoanAmountUSD
			outstanding += loan.OutstandingUSD
		}
		assert.InDelta(t, borrowed, analytics.TotalBorrowedUSD, 0.001)
		assert.InDelta(t, outstanding, analytics.TotalOutstandingUSD, 0.001)
		if outstanding > 0 {
			assert.Greater(t, analytics.CollateralizationPercent, 100.0)
		}
	})
}

func TestGetPortfolioData(t *testing.T) {
	const address = "0xAbC0000000000000000000000000000000000001"

	connected := func() *stubSession {
		return &stubSession{state: entity.WalletState{
			IsConnected:   true,
			Address:       address,
			ChainID:       50002,
			Network:       "Pharos Devnet",
			NativeBalance: "2.5",
		}}
	}
	prices := func() *stubPriceService {
		return &stubPriceService{quotes: map[string]*entity.PriceQuote{
			"PTT":   {Symbol: "PTT", PriceUSD: 1.20, Change24hPercent: 1.0},
			"ETH":   {Symbol: "ETH", PriceUSD: 3000, Change24hPercent: 2.0},
			"MATIC": {Symbol: "MATIC", PriceUSD: 0.70},
		}}
	}

	t.Run("fallback mode fills remaining mainnets with estimated positions", func(t *testing.T) {
		agg := newTestAggregator(t, prices(), connected(), entity.ModeFallback)

		snapshot, err := agg.GetPortfolioData(context.Background())

		require.NoError(t, err)
		assert.Equal(t, address, snapshot.WalletAddress)
		assert.True(t, snapshot.ContainsSynthetic)
		require.Len(t, snapshot.Positions, 3) // native + ETH + MATIC placeholders

		native := snapshot.Positions[0]
		assert.Equal(t, "PTT", native.Symbol)
		assert.False(t, native.Estimated)
		assert.InDelta(t, 3.0, native.ValueUSD, 0.001) // 2.5 * 1.20

		for _, pos := range snapshot.Positions[1:] {
			assert.True(t, pos.Estimated)
			assert.False(t, pos.ChainID == 50002)
		}
		assert.Greater(t, snapshot.TotalValueUSD, native.ValueUSD)
		assert.Len(t, snapshot.Networks, 3)
	})

	t.Run("live mode never synthesizes", func(t *testing.T) {
		agg := newTestAggregator(t, prices(), connected(), entity.ModeLive)

		snapshot, err := agg.GetPortfolioData(context.Background())

		require.NoError(t, err)
		assert.False(t, snapshot.ContainsSynthetic)
		require.Len(t, snapshot.Positions, 1)
		assert.Equal(t, "PTT", snapshot.Positions[0].Symbol)
	})

	t.Run("disconnected session yields an empty snapshot", func(t *testing.T) {
		agg := newTestAggregator(t, prices(), nil, entity.ModeFallback)

		snapshot, err := agg.GetPortfolioData(context.Background())

		require.NoError(t, err)
		assert.Empty(t, snapshot.Positions)
		assert.Zero(t, snapshot.TotalValueUSD)
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		priceSvc := prices()
		agg := newTestAggregator(t, priceSvc, connected(), entity.ModeLive)

		_, err := agg.GetPortfolioData(context.Background())
		require.NoError(t, err)
		callsAfterFirst := priceSvc.getCalls
		_, err = agg.GetPortfolioData(context.Background())
		require.NoError(t, err)

		assert.Equal(t, callsAfterFirst, priceSvc.getCalls)
	})
}

func TestRefreshAll(t *testing.T) {
	t.Run("notifies subscribers and drops caches", func(t *testing.T) {
		priceSvc := &stubPriceService{overview: &entity.MarketOverview{TotalMarketCapUSD: 1}}
		agg := NewDashboardAggregator(priceSvc, testNetworks(), stubAccessor{}, &stubSession{}, logger.NewSlogAdapter(), entity.ModeFallback,
			WithAggregatorDial(func(string) (port.Backend, error) {
				return nil, errors.New("no node in tests")
			}))

		var notified int
		dispose := agg.Subscribe(port.RefreshListenerFunc(func() { notified++ }))

		agg.RefreshAll(context.Background())
		assert.Equal(t, 1, notified)

		dispose()
		agg.RefreshAll(context.Background())
		assert.Equal(t, 1, notified)
	})

	t.Run("market overview is repopulated after refresh", func(t *testing.T) {
		priceSvc := &stubPriceService{overview: &entity.MarketOverview{TotalMarketCapUSD: 42, FetchedAt: time.Now()}}
		agg := NewDashboardAggregator(priceSvc, testNetworks(), stubAccessor{}, &stubSession{}, logger.NewSlogAdapter(), entity.ModeFallback,
			WithAggregatorDial(func(string) (port.Backend, error) {
				return nil, errors.New("no node in tests")
			}))

		agg.RefreshAll(context.Background())

		overview := agg.GetMarketOverview(context.Background())
		require.NotNil(t, overview)
		assert.Equal(t, 42.0, overview.TotalMarketCapUSD)
	})
}
