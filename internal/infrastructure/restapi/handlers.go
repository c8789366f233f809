package restapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
)

// DashboardHandler serves the UI-facing read and session endpoints.
type DashboardHandler struct {
	aggregator port.Aggregator
	prices     port.PriceService
	registry   port.NetworkRegistry
	session    port.WalletSession
	logger     port.Logger
}

// NewDashboardHandler creates the handler set over the given services.
func NewDashboardHandler(
	aggregator port.Aggregator,
	prices port.PriceService,
	registry port.NetworkRegistry,
	session port.WalletSession,
	log port.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		aggregator: aggregator,
		prices:     prices,
		registry:   registry,
		session:    session,
		logger:     log,
	}
}

// GetPortfolio handles GET /portfolio.
func (h *DashboardHandler) GetPortfolio(c *gin.Context) {
	snapshot, err := h.aggregator.GetPortfolioData(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetLoans handles GET /loans/:address.
func (h *DashboardHandler) GetLoans(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}
	loans, err := h.aggregator.GetUserLoans(c.Request.Context(), address)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// GetLoanAnalytics handles GET /loans/:address/analytics.
func (h *DashboardHandler) GetLoanAnalytics(c *gin.Context) {
	analytics, err := h.aggregator.GetLoanAnalytics(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GetLoanTerms handles GET /loan-terms?amount=10000&months=12.
func (h *DashboardHandler) GetLoanTerms(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}
	months, err := strconv.Atoi(c.DefaultQuery("months", "12"))
	if err != nil || months < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, h.aggregator.CalculateLoanTerms(c.Request.Context(), amount, months))
}

// CreateLoan handles POST /loans.
func (h *DashboardHandler) CreateLoan(c *gin.Context) {
	var req struct {
		AmountUSD         float64 `json:"amountUsd" binding:"required,gt=0"`
		DurationMonths    int     `json:"durationMonths" binding:"required,gt=0"`
		CollateralTokenID string  `json:"collateralTokenId" binding:"required"`
		AccountTokenID    string  `json:"accountTokenId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txHash, err := h.aggregator.CreateLoan(c.Request.Context(), req.AmountUSD, req.DurationMonths, req.CollateralTokenID, req.AccountTokenID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"txHash": txHash})
}

// MakePayment handles POST /loans/:id/payments.
func (h *DashboardHandler) MakePayment(c *gin.Context) {
	txHash, err := h.aggregator.MakePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"txHash": txHash})
}

// GetPrice handles GET /prices/:symbol.
func (h *DashboardHandler) GetPrice(c *gin.Context) {
	quote := h.prices.GetPrice(c.Request.Context(), c.Param("symbol"))
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quote available for symbol"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetPrices handles GET /prices?symbols=ETH,BTC.
func (h *DashboardHandler) GetPrices(c *gin.Context) {
	raw := c.Query("symbols")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols query parameter is required"})
		return
	}
	quotes := h.prices.GetPrices(c.Request.Context(), strings.Split(raw, ","))
	c.JSON(http.StatusOK, gin.H{"prices": quotes})
}

// GetPriceHistory handles GET /prices/:symbol/history?days=7.
func (h *DashboardHandler) GetPriceHistory(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	points := h.prices.GetHistoricalPrices(c.Request.Context(), c.Param("symbol"), days)
	c.JSON(http.StatusOK, gin.H{"prices": points})
}

// GetMarket handles GET /market: global overview, trending list and the
// primary chain's gas sample in one response.
func (h *DashboardHandler) GetMarket(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"overview": h.aggregator.GetMarketOverview(ctx),
		"trending": h.prices.GetTrending(ctx),
		"gas":      h.aggregator.GetGasSnapshot(ctx),
	})
}

// GetNetworks handles GET /networks.
func (h *DashboardHandler) GetNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"networks":       h.registry.All(),
		"primaryChainId": h.registry.PrimaryChainID(),
	})
}

// GetSession handles GET /session.
func (h *DashboardHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

// ConnectSession handles POST /session/connect.
func (h *DashboardHandler) ConnectSession(c *gin.Context) {
	state, err := h.session.Connect(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// DisconnectSession handles POST /session/disconnect.
func (h *DashboardHandler) DisconnectSession(c *gin.Context) {
	h.session.Disconnect()
	c.JSON(http.StatusOK, h.session.State())
}

// SwitchSessionNetwork handles POST /session/network.
func (h *DashboardHandler) SwitchSessionNetwork(c *gin.Context) {
	var req struct {
		ChainID uint64 `json:"chainId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.session.SwitchNetwork(c.Request.Context(), req.ChainID); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.State())
}

// Refresh handles POST /refresh.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	h.aggregator.RefreshAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// renderError maps the domain error taxonomy onto HTTP statuses.
func (h *DashboardHandler) renderError(c *gin.Context, err error) {
	var cfgErr *entity.ConfigurationError
	var rejected *entity.TransactionRejectedError
	var writeFailure *entity.WriteFailure

	switch {
	case errors.Is(err, entity.ErrWalletUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "wallet_unavailable"})
	case errors.Is(err, entity.ErrNoAccounts):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "no_accounts"})
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unsupported_network"})
	case errors.As(err, &rejected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "transaction_rejected"})
	case errors.As(err, &writeFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "write_failed"})
	default:
		h.logger.Error("Unhandled error in HTTP handler", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
