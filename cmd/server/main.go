package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"thefinder/server/config"
	"thefinder/server/internal/api"
	"thefinder/server/internal/auth"
	"thefinder/server/internal/database"
	"thefinder/server/internal/ingest"
	"thefinder/server/internal/processor"
	"thefinder/server/internal/queue"
	"thefinder/server/internal/session"
	"thefinder/server/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database")
	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	catalog, err := config.LoadCatalog(cfg.CitiesFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load city catalog")
	}
	go reloadCatalogOnHangup(ctx, catalog, logger)

	var messenger telegram.Messenger = telegram.DisabledMessenger{Logger: logger}
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBotMessenger(cfg.Telegram.BotToken, "")
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Telegram bot")
		}
		messenger = bot
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, Telegram messages are disabled")
	}
	telegramService := telegram.NewService(messenger, db, telegram.NewLinkSigner(cfg.LinkSecret()), cfg.AppURL, logger)
	if err := telegramService.EnsureCommands(); err != nil {
		logger.WithError(err).Warn("Failed to register bot commands")
	}

	sessions := newSessionStore(ctx, cfg, logger)

	handler, err := api.NewHandler(db, api.Options{
		Config:   cfg,
		Catalog:  catalog,
		Telegram: telegramService,
		Auth:     auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Sessions: sessions,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize handlers")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer limiter.Close()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestID(),
		api.RequestLogger(logger),
		api.CORS(cfg.Server.AllowedOrigins),
		limiter.Middleware(),
	)
	api.SetupRoutes(router, handler)

	stopIngestion := startIngestion(ctx, cfg, db, catalog, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server gracefully")
	}
	stopIngestion()
	if closer, ok := sessions.(interface{ Close() error }); ok {
		closer.Close()
	}
	logger.Info("Server stopped")
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) session.Store {
	if cfg.Redis.URL == "" {
		logger.Info("REDIS_URL not set, admin sessions are kept in memory")
		return session.NewMemoryStore(cfg.Auth.AdminSessionTTL)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := session.NewRedisStore(pingCtx, cfg.Redis.URL, cfg.Auth.AdminSessionTTL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	return store
}

// startIngestion wires broker -> listing queue -> batch processor. The returned
// function stops the consumer, then the processor's retries, then the queue.
func startIngestion(ctx context.Context, cfg *config.Config, db *database.Database, catalog *config.Catalog, logger *logrus.Logger) func() {
	if cfg.Ingest.AMQPURL == "" {
		logger.Info("AMQP_URL not set, listing ingestion is disabled")
		return func() {}
	}

	validator, err := ingest.NewValidator()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load listing event schema")
	}

	listingQueue := queue.NewListingQueue(cfg.Ingest.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(db.GetDB(), listingQueue, cfg, logger)
	batchProcessor.Start()
	listingQueue.Start()

	consumer := ingest.NewConsumer(cfg, ingest.NewDecoder(validator, catalog), listingQueue, logger)
	consumerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(consumerCtx); err != nil {
			logger.WithError(err).Error("Listing consumer stopped")
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		// abort retry sleeps first so Close does not wait them out
		batchProcessor.Stop()
		listingQueue.Close()
		consumer.Close()
	}
}

func reloadCatalogOnHangup(ctx context.Context, catalog *config.Catalog, logger *logrus.Logger) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			if err := catalog.Reload(); err != nil {
				logger.WithError(err).Error("Failed to reload city catalog, keeping the previous one")
				continue
			}
			logger.WithField("cities", len(catalog.Cities())).Info("City catalog reloaded")
		}
	}
}
