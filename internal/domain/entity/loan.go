package entity

import "time"

// LoanStatus is the lifecycle state of a collateralized loan.
type LoanStatus string

const (
	LoanPending    LoanStatus = "pending"
	LoanActive     LoanStatus = "active"
	LoanPaid       LoanStatus = "paid"
	LoanDefaulted  LoanStatus = "defaulted"
	LoanLiquidated LoanStatus = "liquidated"
)

// LoanRecord is one loan as presented to the UI. Records come either from an
// authoritative on-chain read or from the deterministic fallback generator;
// Synthetic distinguishes the two.
type LoanRecord struct {
	ID                     string     `json:"id"`
	LoanAmountUSD          float64    `json:"loanAmountUsd"`
	OutstandingUSD         float64    `json:"outstandingUsd"`
	TotalDebtUSD           float64    `json:"totalDebtUsd"`
	InterestRatePercent    float64    `json:"interestRatePercent"`
	MonthlyPaymentUSD      float64    `json:"monthlyPaymentUsd"`
	NextPaymentDueAt       time.Time  `json:"nextPaymentDueAt"`
	Status                 LoanStatus `json:"status"`
	CollateralValueUSD     float64    `json:"collateralValueUsd"`
	CollateralRatioPercent float64    `json:"collateralRatioPercent"`
	Network                string     `json:"network"`
	ChainID                uint64     `json:"chainId"`
	OnChainLoanID          string     `json:"onChainLoanId,omitempty"`
	CollateralTokenID      string     `json:"collateralTokenId,omitempty"`
	AccountTokenID         string     `json:"accountTokenId,omitempty"`
	Synthetic              bool       `json:"synthetic"`
}

// LoanTerms is the quoted cost of a prospective loan.
type LoanTerms struct {
	AmountUSD           float64 `json:"amountUsd"`
	DurationMonths      int     `json:"durationMonths"`
	InterestRatePercent float64 `json:"interestRatePercent"`
	TotalDebtUSD        float64 `json:"totalDebtUsd"`
	BufferAmountUSD     float64 `json:"bufferAmountUsd"`
	MonthlyPaymentUSD   float64 `json:"monthlyPaymentUsd"`
	Authoritative       bool    `json:"authoritative"` // true when quoted by the on-chain pricing contract
}

// LoanAnalytics is a pure aggregation over a user's loan set.
type LoanAnalytics struct {
	TotalLoans               int     `json:"totalLoans"`
	ActiveLoans              int     `json:"activeLoans"`
	TotalBorrowedUSD         float64 `json:"totalBorrowedUsd"`
	TotalOutstandingUSD      float64 `json:"totalOutstandingUsd"`
	TotalCollateralUSD       float64 `json:"totalCollateralUsd"`
	AverageInterestPercent   float64 `json:"averageInterestPercent"`
	OverdueCount             int     `json:"overdueCount"`
	CollateralizationPercent float64 `json:"collateralizationPercent"`
}
