package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dissertation/internal/auth"
	"dissertation/internal/config"
	"dissertation/internal/dissertation"
	"dissertation/internal/handler"
	"dissertation/internal/httpmiddleware"
	"dissertation/internal/logging"
	"dissertation/internal/queue"
	"dissertation/internal/storage"
	"dissertation/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)
	defer logger.Sync()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx := context.Background()

	var (
		entityStore dissertation.Store
		db          *store.DB
	)
	if cfg.StoreBackend == "memory" {
		entityStore = dissertation.NewMemoryStore()
		logger.Info("using in-memory store")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := db.Migrate(ctx, cfg.MigrationsDir); err != nil {
			return err
		}
		entityStore = dissertation.NewPostgresStore(db.Client)
	}
	defer entityStore.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "dissertation:notifications")
	}

	engine := dissertation.NewEngine(entityStore, logger)
	gate := dissertation.NewGate(entityStore)

	var docs storage.Storage
	if cfg.UploadBackend == "cloudinary" && cfg.CloudinaryCloudName != "" {
		docs = storage.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		logger.Info("cloudinary document storage configured", zap.String("cloud", cfg.CloudinaryCloudName))
	} else {
		local, err := storage.NewLocal(cfg.UploadsDir)
		if err != nil {
			return err
		}
		docs = local
	}

	h := handler.New(entityStore, engine, gate, docs, q, logger, cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		storeHealthy := entityStore.Ping(c.Request.Context()) == nil
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !storeHealthy {
			status = http.StatusServiceUnavailable
		}
		payload := gin.H{"status": "ok", "store": storeHealthy, "redis": redisHealthy}
		if db != nil {
			if version, err := db.MigrationVersion(c.Request.Context()); err == nil {
				payload["migration_version"] = version
			}
		}
		c.JSON(status, payload)
	})

	h.Register(r, auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Uploaded documents are served statically when using local storage.
	if cfg.UploadBackend != "cloudinary" {
		r.Static("/uploads", cfg.UploadsDir)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
