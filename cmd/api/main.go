package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventnest/internal/api"
	"eventnest/internal/config"
	"eventnest/internal/database"
	"eventnest/internal/events"
	"eventnest/internal/export"
	"eventnest/internal/logging"
	"eventnest/internal/metrics"
	"eventnest/internal/models"
	"eventnest/internal/notify"
	"eventnest/internal/service"
	"eventnest/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	outboxWorker := initWorker(cfg, db, redisClient, logger)
	server := buildServer(cfg, db, outboxWorker, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, logger)
	outboxWorker.Start(ctx)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()
	logger.Info().Int("port", cfg.API.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = server.Shutdown(shutdownCtx)
	outboxWorker.Stop()

	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, &logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initWorker(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *worker.NotifyWorker {
	retry := worker.RetryPolicy{
		MaxRetries:   cfg.Worker.MaxRetries,
		InitialDelay: time.Duration(cfg.Worker.InitialDelaySeconds) * time.Second,
	}
	outboxWorker := worker.NewNotifyWorker(db, redisClient, retry, logger)
	outboxWorker.SetPolling(time.Duration(cfg.Worker.PollIntervalSeconds)*time.Second, cfg.Worker.BatchSize)

	if cfg.Telegram.Enabled {
		bot, err := notify.NewTelegramBot(cfg.Telegram.BotToken)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		} else {
			outboxWorker.AddChannel(models.TaskNotify, notify.NewTelegramChannel(bot, cfg.Telegram.ChatIDs, logger))
		}
	}
	outboxWorker.AddChannel(models.TaskEmail, notify.NewEmailChannel(&notify.LogEmailSender{Logger: logger}))

	return outboxWorker
}

func buildServer(cfg *config.Config, db *database.DB, outboxWorker *worker.NotifyWorker, logger *zerolog.Logger) *api.HTTPServer {
	eventBus := events.NewEventBus()
	notifier := service.NewNotificationService(db, outboxWorker, logger)
	mailer := notify.NewOutboxMailer(outboxWorker, logger)

	deps := api.Deps{
		DB:            db,
		Quotes:        service.NewQuoteService(db, notifier, mailer, eventBus, logger),
		Bookings:      service.NewBookingService(db, notifier, eventBus, logger),
		Dates:         service.NewDateService(db, notifier, eventBus, logger),
		Reviews:       service.NewReviewService(db, notifier, eventBus, logger),
		Conversations: service.NewConversationService(db, notifier, eventBus, logger),
		Notifications: notifier,
		Wishlist:      service.NewWishlistService(db),
		Exporter:      export.NewExcelExporter(db, exportDir(), logger),
		Verifier:      api.NewStaticTokenVerifier(cfg.API.Auth),
		Logger:        logger,
	}

	if cfg.Google.BookingsSpreadsheetID != "" {
		sheets, err := export.NewSheetsReporter(cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadsheetID)
		if err != nil {
			logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		} else {
			deps.Sheets = sheets
			logger.Info().Msg("google sheets connected")
		}
	}

	return api.NewHTTPServer(cfg.API, deps)
}

func exportDir() string {
	if dir := os.Getenv("EXPORTS_PATH"); dir != "" {
		return dir
	}
	return "exports"
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
