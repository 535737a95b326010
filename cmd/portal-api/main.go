package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/auth"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/bulk"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/config"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/export"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/metrics"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/notifications"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/notifications/websocket"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/progress"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/review"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/search"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/stats"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/verification"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env for local development, then configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// Connect to database
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database pool", zap.Error(err))
	}
	defer sqlDB.Close()
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	store := entities.NewStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	metrics.Register()

	// Optional search mirror
	indexer, err := search.Connect(cfg.Search, logger)
	if err != nil {
		logger.Warn("Search disabled", zap.Error(err))
		indexer = nil
	}
	if indexer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := indexer.EnsureIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure search indexes", zap.Error(err))
		}
		cancel()
	}

	// Notifications
	hub := websocket.NewHub(logger)
	dispatcher := notifications.NewDispatcher(store, hub, logger)

	// Services
	verificationService := verification.NewService(store, dispatcher, logger)
	progressService := progress.NewService(store, logger)
	reviewService := review.NewService(store, dispatcher, logger)
	statsCache := stats.NewSnapshotCache(cfg.Stats.CacheTTL)
	statsService := stats.NewService(store, statsCache, logger).WithPersistence(store)
	coordinator := bulk.NewCoordinator(store, bulk.NewTxRunner(store), statsService, dispatcher, logger)
	if indexer != nil {
		coordinator.WithSearch(indexer)
	}

	authMiddleware := auth.NewMiddleware(cfg.Security.JWTSecret, verificationService, logger)

	// Handlers. The verification handler gets its guard and user id
	// accessor injected here because auth sits above it.
	verificationHandler := verification.NewHandler(verificationService, auth.RequireOrganizer(), auth.UserID, logger)
	progressHandler := progress.NewHandler(progressService, logger)
	reviewHandler := review.NewHandler(reviewService, logger)
	statsHandler := stats.NewHandler(statsService, logger)
	exportHandler := export.NewHandler(statsService, logger)
	bulkHandler := bulk.NewHandler(coordinator, logger)
	searchHandler := search.NewHandler(indexer, logger)

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	{
		verificationHandler.RegisterRoutes(api)
		progressHandler.RegisterRoutes(api)
		reviewHandler.RegisterRoutes(api)
		statsHandler.RegisterRoutes(api)
		exportHandler.RegisterRoutes(api)
		bulkHandler.RegisterRoutes(api)
		searchHandler.RegisterRoutes(api)
	}

	// Live notification stream
	router.GET("/ws", func(c *gin.Context) {
		if err := hub.HandleConnection(c.Writer, c.Request); err != nil {
			logger.Warn("Websocket upgrade failed", zap.Error(err))
		}
	})

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
