package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"airbnmail/internal/ai"
	"airbnmail/internal/calendar"
	"airbnmail/internal/config"
	"airbnmail/internal/gmail"
	"airbnmail/internal/handler"
	"airbnmail/internal/logger"
	"airbnmail/internal/parser"
	"airbnmail/internal/repository"
	"airbnmail/internal/repository/memory"
	"airbnmail/internal/repository/postgres"
	"airbnmail/internal/router"
	"airbnmail/internal/scheduler"
	"airbnmail/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config validation failed:", err)
	}

	// Initialize logger
	appLogger := logger.New()

	// Initialize repository (conditionally use postgres or in-memory based on DATABASE_URL)
	var repo repository.NotificationRepository

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer db.Close()

		if err := postgres.InitializeDatabase(db); err != nil {
			log.Fatal("Failed to initialize database:", err)
		}

		repo = postgres.NewPostgresNotificationRepository(db)
		appLogger.Info("Using PostgreSQL repository")
	} else {
		repo = memory.NewInMemoryNotificationRepository()
		appLogger.Info("Using in-memory repository")
	}

	// Optional Redis seen-cache
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		appLogger.Info("Using Redis seen-cache at", cfg.RedisAddr)
	}

	// Initialize the extraction pipeline
	analyzer := ai.NewAnalyzer(cfg.OpenAIKey, cfg.OpenAIModel, appLogger)
	emailParser := parser.New(analyzer, appLogger)

	// Initialize Google clients
	gmailClient, err := gmail.NewGmailClient(cfg.GmailAccessToken, appLogger)
	if err != nil {
		log.Fatal("Failed to create Gmail client:", err)
	}

	calendarClient, err := calendar.NewCalendarClient(cfg.GmailAccessToken, cfg.CalendarTimezone, appLogger)
	if err != nil {
		log.Fatal("Failed to create Calendar client:", err)
	}

	// Initialize services
	reconciler := service.NewReconcilerService(repo, calendarClient, cfg.CalendarID, cfg.CalendarTimezone, appLogger)

	webhooks := service.NewWebhookDispatcher(appLogger)
	if cfg.WebhookURL != "" {
		webhooks.Register("webhook", service.NewHTTPWebhook(cfg.WebhookURL, 10*time.Second))
		appLogger.Info("Registered outbound webhook:", cfg.WebhookURL)
	}

	syncService := service.NewSyncService(
		gmailClient,
		emailParser,
		reconciler,
		repo,
		webhooks,
		cache,
		cfg.GmailQuery,
		appLogger,
	)

	// Start the background sync job
	syncJob := scheduler.NewSyncJob(syncService, appLogger)
	go syncJob.Start()
	defer syncJob.Stop()

	// Initialize handlers
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	notificationHandler := handler.NewNotificationHandler(syncService, e.Logger)

	// Setup routes
	router.SetupRoutes(e, notificationHandler)

	// Start server
	appLogger.Info("Starting server on port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		appLogger.Error("Failed to start server:", err)
	}
}
