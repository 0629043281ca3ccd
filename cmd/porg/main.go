package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"porg/internal/app/port"
	"porg/internal/app/service"
	"porg/internal/domain/entity"
	"porg/internal/infrastructure/cache"
	"porg/internal/infrastructure/chain"
	"porg/internal/infrastructure/configloader"
	"porg/internal/infrastructure/httpclient"
	"porg/internal/infrastructure/restapi"
	"porg/internal/infrastructure/store"
	"porg/internal/pkg/logger"
	"porg/internal/pkg/metrics"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(slogHandler))

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}
	logger.InitSlog(cfg.Logging.Level)
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	appLogger := logger.NewSlogAdapter()

	metrics.MustRegisterMetrics()

	db, err := store.New(cfg.Database, appLogger)
	if err != nil {
		log.Fatalf("Failed to open persistent store: %v", err)
	}

	chainClient := chain.NewSolanaClient(
		cfg.Chain.RPCURL,
		cfg.Chain.FallbackRPCURLs,
		time.Duration(cfg.Chain.RequestTimeoutSeconds)*time.Second,
		zapLogger,
	)
	zapLogger.Info("Chain client initialized", zap.String("rpc", cfg.Chain.RPCURL))

	registryClient := httpclient.NewRegistryClient(
		cfg.Registry.BaseURL,
		time.Duration(cfg.Registry.RequestTimeoutMillis)*time.Millisecond,
	)
	priceFeedClient := httpclient.NewPriceFeedClient(
		cfg.PriceFeed.BaseURL,
		time.Duration(cfg.PriceFeed.RequestTimeoutMillis)*time.Millisecond,
	)

	// Metadata is immutable, so its in-memory layer never expires. Prices
	// carry a freshness window.
	metadataCache := cache.New("metadata", 0, db.MetadataBackend(),
		func(ctx context.Context, mint string) (entity.MetadataEntry, error) {
			return registryClient.LookupMetadata(ctx, mint)
		}, nil, appLogger)
	priceCache := cache.New("price", time.Duration(cfg.Caching.PriceTTLMinutes)*time.Minute, db.PriceBackend(),
		func(ctx context.Context, mint string) (float64, error) {
			return priceFeedClient.LookupPrice(ctx, mint)
		}, nil, appLogger)

	metadataResolver := service.NewMetadataResolver(metadataCache, appLogger)
	priceResolver := service.NewPriceResolver(priceCache, appLogger)

	valuationService := service.NewValuationService(
		chainClient,
		metadataResolver,
		priceResolver,
		db.PortfolioBackend(),
		time.Duration(cfg.Caching.PortfolioTTLMinutes)*time.Minute,
		cfg.Performance.MaxConcurrentRoutines,
		nil,
		appLogger,
	)
	zapLogger.Info("ValuationService initialized")

	quoteClient := httpclient.NewJupiterClient(
		cfg.QuoteAPI.BaseURL,
		time.Duration(cfg.QuoteAPI.RequestTimeoutMillis)*time.Millisecond,
		cfg.QuoteAPI.RatePerSecond,
		cfg.QuoteAPI.Burst,
		metadataResolver,
		zapLogger,
	)

	var bridgeClient port.BridgeClient
	if cfg.Bridge.BaseURL != "" {
		bridgeClient = httpclient.NewBridgeClient(
			cfg.Bridge.BaseURL,
			time.Duration(cfg.Bridge.RequestTimeoutMillis)*time.Millisecond,
		)
	}

	var nonceCounter atomic.Uint64
	nonceCounter.Store(uint64(time.Now().UnixNano()))

	liquidationService := service.NewLiquidationService(
		valuationService,
		quoteClient,
		bridgeClient,
		chainClient,
		cfg.Protocol.FeeBps,
		cfg.Protocol.FeeAccount,
		cfg.Protocol.ProgramID,
		cfg.Liquidation.MaxConcurrentQuotes,
		func() uint64 { return nonceCounter.Add(1) },
		appLogger,
	)
	zapLogger.Info("LiquidationService initialized", zap.Int("feeBps", cfg.Protocol.FeeBps))

	classifierService := service.NewClassifierService(
		chainClient, db, cfg.Protocol.ProgramID, cfg.Protocol.BridgeProgramID, appLogger)
	historyService := service.NewHistoryService(db, cfg.History.DefaultLimit, appLogger)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := store.NewSweeper(db,
		time.Duration(cfg.Caching.SweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.Caching.SnapshotRetentionHours)*time.Hour,
		cfg.Caching.PriceHistoryKeep,
		appLogger,
	)
	go sweeper.Start(appCtx)

	handler := restapi.NewHandler(
		valuationService,
		liquidationService,
		classifierService,
		historyService,
		cfg.History.CacheSize,
		time.Duration(cfg.History.CacheTTLSeconds)*time.Second,
		appLogger,
	)
	router := restapi.SetupRouter(handler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
