package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/app/service"
	"rwa_dashboard/internal/infrastructure/configloader"
	"rwa_dashboard/internal/infrastructure/diamond"
	"rwa_dashboard/internal/infrastructure/priceapi"
	"rwa_dashboard/internal/infrastructure/profilestore"
	"rwa_dashboard/internal/infrastructure/registry"
	"rwa_dashboard/internal/infrastructure/restapi"
	"rwa_dashboard/internal/infrastructure/wallet"
	"rwa_dashboard/internal/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", "path", cfgPath, "error", err)
	}

	zapLogger := buildZapLogger(cfg.Logging.Level)
	defer func() { _ = zapLogger.Sync() }()
	logger.InitWithHandler(zapslog.NewHandler(zapLogger.Core()))
	log := logger.NewSlogAdapter()

	log.Info("Configuration loaded", "path", cfgPath, "mode", string(cfg.Mode()))

	networks := registry.New(log)

	priceClient := priceapi.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.APIKey,
		time.Duration(cfg.CoinGecko.ClientTimeoutSeconds)*time.Second,
		zapLogger,
	)
	priceSvc := priceapi.NewService(
		priceClient,
		log,
		time.Duration(cfg.CoinGecko.QuoteTTLMinutes)*time.Minute,
		time.Duration(cfg.CoinGecko.MinRequestIntervalMS)*time.Millisecond,
	)

	accessor := diamond.NewAccessor(networks, log)

	var profiles port.ProfileStore
	if dsn := cfg.Database.DSN(); dsn != "" {
		db, err := profilestore.Connect(dsn)
		if err != nil {
			log.Warn("Profile store unavailable, wallet addresses will not be persisted", "error", err)
		} else {
			profiles = profilestore.NewStore(db, log)
			log.Info("Profile store connected")
		}
	}

	bridge, err := wallet.NewRPCBridge(cfg.Wallet.RPCURL, log)
	if err != nil {
		logger.Fatal("Failed to initialize wallet bridge", "error", err)
	}
	sessionOpts := []wallet.Option{wallet.WithUserID(cfg.Wallet.UserID)}
	if cfg.Wallet.OperatorKey != "" {
		sessionOpts = append(sessionOpts, wallet.WithOperatorKey(cfg.Wallet.OperatorKey))
	}
	session := wallet.NewSessionManager(bridge, networks, profiles, log, sessionOpts...)

	aggregator := service.NewDashboardAggregator(
		priceSvc, networks, accessor, session, log, cfg.Mode(),
		service.WithCacheTTL(time.Duration(cfg.Aggregator.CacheTTLMinutes)*time.Minute),
		service.WithRefreshInterval(time.Duration(cfg.Aggregator.RefreshIntervalMinutes)*time.Minute),
	)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	aggregator.StartAutoRefresh(appCtx)

	handler := restapi.NewDashboardHandler(aggregator, priceSvc, networks, session, log)
	router := restapi.SetupRouter(handler, cfg.Server.AllowedOrigins)

	addr := cfg.Server.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")
	cancelApp()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}
	log.Info("Server exited")
}

// buildZapLogger picks the zap preset matching the configured level.
func buildZapLogger(level string) *zap.Logger {
	var (
		zl  *zap.Logger
		err error
	)
	if strings.EqualFold(level, "debug") {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		logger.Fatal("Failed to initialize zap logger", "error", err)
	}
	return zl
}
