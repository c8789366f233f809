package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires the dashboard routes, CORS and operational endpoints.
func SetupRouter(handler *DashboardHandler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/portfolio", handler.GetPortfolio)

		v1.GET("/loans/:address", handler.GetLoans)
		v1.GET("/loans/:address/analytics", handler.GetLoanAnalytics)
		v1.GET("/loan-terms", handler.GetLoanTerms)
		v1.POST("/loans", handler.CreateLoan)
		v1.POST("/loans/:id/payments", handler.MakePayment)

		v1.GET("/prices", handler.GetPrices)
		v1.GET("/prices/:symbol", handler.GetPrice)
		v1.GET("/prices/:symbol/history", handler.GetPriceHistory)
		v1.GET("/market", handler.GetMarket)

		v1.GET("/networks", handler.GetNetworks)

		v1.GET("/session", handler.GetSession)
		v1.POST("/session/connect", handler.ConnectSession)
		v1.POST("/session/disconnect", handler.DisconnectSession)
		v1.POST("/session/network", handler.SwitchSessionNetwork)

		v1.POST("/refresh", handler.Refresh)
	}

	return router
}
