package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/cache"
	"github.com/SanjarHikmatov/unired-task/internal/catalog"
	"github.com/SanjarHikmatov/unired-task/internal/config"
	"github.com/SanjarHikmatov/unired-task/internal/exchange"
	"github.com/SanjarHikmatov/unired-task/internal/handler"
	"github.com/SanjarHikmatov/unired-task/internal/integrations/cbr"
	"github.com/SanjarHikmatov/unired-task/internal/integrations/telegram"
	"github.com/SanjarHikmatov/unired-task/internal/middleware"
	"github.com/SanjarHikmatov/unired-task/internal/repository"
	"github.com/SanjarHikmatov/unired-task/internal/service"
	"github.com/SanjarHikmatov/unired-task/internal/utils/email"
	"github.com/SanjarHikmatov/unired-task/internal/validation"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := repository.Open(ctx, cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Error catalog
	errCatalog, err := catalog.New(repo, logger)
	if err != nil {
		logger.Fatalf("Failed to load built-in error catalog: %v", err)
	}
	if err := errCatalog.Refresh(ctx); err != nil {
		logger.WithError(err).Warn("Using built-in error messages until the next refresh")
	}

	// Initialize layers
	store := newCacheStore(cfg, logger)
	notifier := newNotifier(cfg, logger)
	rates := loadRates(ctx, cfg, logger)

	validator := validation.NewTransferValidator(repo, repo, cfg.AllowedCurrencies)
	cardService := service.NewCardService(repo, store, cfg.CardInfoTTL, logger)
	transferService := service.NewTransferService(repo, validator, rates, notifier, logger)
	reportService := service.NewReportService(repo, notifier, cfg.ReportDestination, logger)
	h := handler.NewHandler(cardService, transferService, errCatalog, repo, logger)

	// Scheduled jobs
	c := cron.New()
	if _, err := c.AddFunc(cfg.ReportSchedule, func() {
		if err := reportService.SendReport(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to send system report")
		}
	}); err != nil {
		logger.Fatalf("Invalid REPORT_SCHEDULE: %v", err)
	}
	if _, err := c.AddFunc(cfg.CatalogRefreshSchedule, func() {
		if err := errCatalog.Refresh(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to refresh error catalog")
		}
	}); err != nil {
		logger.Fatalf("Invalid CATALOG_REFRESH_SCHEDULE: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	h.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

func newCacheStore(cfg *config.Config, logger *logrus.Logger) cache.Store {
	if cfg.CacheBackend == "redis" {
		logger.Infof("Using redis card cache at %s", cfg.RedisAddr)
		return cache.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
	}
	return cache.NewMemoryStore(time.Minute)
}

func newNotifier(cfg *config.Config, logger *logrus.Logger) service.Notifier {
	switch cfg.Notifier {
	case "telegram":
		return telegram.NewNotifier(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	case "email":
		return email.NewSender(cfg, logger)
	default:
		return service.NewLogNotifier(logger)
	}
}

// loadRates starts from the configured rates. With RATES_SOURCE=cbr the
// central bank rates of today replace them where available.
func loadRates(ctx context.Context, cfg *config.Config, logger *logrus.Logger) exchange.Rates {
	rates := cfg.ExchangeRates
	if cfg.RatesSource != "cbr" {
		return rates
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	live, err := cbr.NewCBRClient(cfg.CBRURL, logger).GetRates(fetchCtx, time.Now(), cfg.AllowedCurrencies)
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch CBR rates, using configured rates")
		return rates
	}
	return rates.Merge(live)
}
