package port

import (
	"context"

	"rwa_dashboard/internal/domain/entity"
)

// RefreshListener is notified after every completed refresh cycle.
type RefreshListener interface {
	OnRefresh()
}

// RefreshListenerFunc adapts a plain function to RefreshListener.
type RefreshListenerFunc func()

func (f RefreshListenerFunc) OnRefresh() { f() }

// Aggregator is the orchestration layer combining prices, the network
// registry, facet reads and the wallet session into unified dashboard views.
// All reads are cached with a fixed TTL and degrade per the data source mode.
type Aggregator interface {
	GetPortfolioData(ctx context.Context) (*entity.PortfolioSnapshot, error)
	GetUserLoans(ctx context.Context, address string) ([]entity.LoanRecord, error)
	CalculateLoanTerms(ctx context.Context, amountUSD float64, durationMonths int) entity.LoanTerms
	GetLoanAnalytics(ctx context.Context, address string) (entity.LoanAnalytics, error)
	GetMarketOverview(ctx context.Context) *entity.MarketOverview
	GetGasSnapshot(ctx context.Context) *entity.GasSnapshot

	// CreateLoan and MakePayment are the write path; failures surface as
	// *entity.TransactionRejectedError or *entity.WriteFailure.
	CreateLoan(ctx context.Context, amountUSD float64, durationMonths int, collateralTokenID, accountTokenID string) (txHash string, err error)
	MakePayment(ctx context.Context, loanID string) (txHash string, err error)

	// RefreshAll drops every cached aggregate, refetches and notifies.
	RefreshAll(ctx context.Context)

	Subscribe(l RefreshListener) (dispose func())
}
