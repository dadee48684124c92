package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	lendingapp "github.com/lending/backend/internal/application/lending"
	"github.com/lending/backend/internal/infrastructure/cache"
	"github.com/lending/backend/internal/infrastructure/config"
	"github.com/lending/backend/internal/infrastructure/logger"
	"github.com/lending/backend/internal/infrastructure/persistence"
	"github.com/lending/backend/internal/infrastructure/scheduler"
	"github.com/lending/backend/internal/interfaces/http/handler"
	"github.com/lending/backend/internal/interfaces/http/middleware"
	"github.com/lending/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Lending Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis is optional: tariff caching degrades to direct reads without it
	var redisClient *redis.Client
	if client, err := cache.NewRedisClient(&cfg.Redis); err != nil {
		log.Warn("Redis unavailable, tariff cache disabled", zap.Error(err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully")
	}

	// Initialize repositories
	tariffRepo := persistence.NewGormTariffRepository(db.DB, redisClient, cfg.Lending.TariffCacheTTL)
	applicationRepo := persistence.NewGormLoanApplicationRepository(db.DB)
	loanRepo := persistence.NewGormLoanRepository(db.DB)
	calendarRepo := persistence.NewGormBankCalendarRepository(db.DB)

	// Initialize application services
	processingService := lendingapp.NewProcessingService(
		tariffRepo, applicationRepo, loanRepo, calendarRepo, log,
	)

	// Initialize end-of-day scheduler (if enabled)
	var eodScheduler *scheduler.EndOfDayScheduler
	if cfg.Scheduler.Enabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Scheduler.EndOfDaySchedule)
		if err != nil {
			log.Fatal("Invalid end-of-day schedule", zap.Error(err))
		}
		eodScheduler = scheduler.NewEndOfDayScheduler(scheduler.EndOfDaySchedulerConfig{
			Enabled:       true,
			CronHour:      hour,
			CronMinute:    minute,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
		}, processingService, log)
		if err := eodScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start end-of-day scheduler", zap.Error(err))
		}
		defer func() {
			if err := eodScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping end-of-day scheduler", zap.Error(err))
			}
		}()
		log.Info("End-of-day scheduler started",
			zap.Int("hour", hour),
			zap.Int("minute", minute),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// Initialize HTTP handlers
	tariffHandler := handler.NewTariffHandler(processingService)
	applicationHandler := handler.NewLoanApplicationHandler(processingService)
	loanHandler := handler.NewLoanHandler(processingService)
	processingHandler := handler.NewProcessingHandler(processingService, eodScheduler)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Lending domain (tariffs, applications, loans, processing)
	lendingRoutes := router.NewDomainGroup("lending", "/lending")

	lendingRoutes.POST("/tariffs", tariffHandler.Create)
	lendingRoutes.GET("/tariffs", tariffHandler.List)
	lendingRoutes.GET("/tariffs/:id", tariffHandler.GetByID)
	lendingRoutes.DELETE("/tariffs/:id", tariffHandler.Delete)

	lendingRoutes.POST("/applications", applicationHandler.Create)
	lendingRoutes.GET("/applications", applicationHandler.List)
	lendingRoutes.GET("/applications/:id", applicationHandler.GetByID)
	lendingRoutes.DELETE("/applications/:id", applicationHandler.Delete)
	lendingRoutes.POST("/applications/:id/approve", applicationHandler.Approve)
	lendingRoutes.POST("/applications/:id/reject", applicationHandler.Reject)
	lendingRoutes.POST("/applications/:id/contract", applicationHandler.Contract)

	lendingRoutes.GET("/loans", loanHandler.List)
	lendingRoutes.GET("/loans/:id", loanHandler.GetByID)
	lendingRoutes.GET("/loans/:id/schedule", loanHandler.GetSchedule)
	lendingRoutes.POST("/loans/:id/payments", loanHandler.RegisterPayment)
	lendingRoutes.POST("/loans/:id/close", loanHandler.Close)

	lendingRoutes.GET("/processing/date", processingHandler.GetBankDate)
	lendingRoutes.PUT("/processing/date", processingHandler.SetBankDate)
	lendingRoutes.POST("/processing/end-of-day", processingHandler.ProcessEndOfDay)
	lendingRoutes.GET("/processing/scheduler", processingHandler.SchedulerStatus)
	lendingRoutes.POST("/processing/scheduler/run", processingHandler.TriggerSchedulerRun)

	r.Register(lendingRoutes)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
