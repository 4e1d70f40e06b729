package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/api"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/cache"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/config"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/loader"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/monitoring"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/ratelimit"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/security"
)

var version = "dev"

// app is everything main needs to serve and to shut down again.
type app struct {
	handler  http.Handler
	cache    *cache.Cache
	security *security.SecurityMiddleware
	redis    *ratelimit.RedisClient
}

func (a *app) close() {
	a.cache.Stop()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*app, error) {
	metrics := monitoring.NewMetrics()
	fetchCache := cache.NewCache(cfg.FetchCacheTTL, time.Minute, metrics)

	src, err := loader.NewSource(cfg, fetchCache, metrics)
	if err != nil {
		fetchCache.Stop()
		return nil, err
	}

	reload := func(ctx context.Context) *analysis.Store {
		return loader.LoadStore(ctx, src, logger, metrics)
	}

	session := dashboard.NewSession(reload(ctx), logger, metrics)

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.MaxRequestsPerMin = cfg.MaxRequestsPerMin
	securityConfig.RequestTimeout = cfg.RequestTimeout
	sm := security.NewSecurityMiddleware(securityConfig, metrics)

	var redisClient *ratelimit.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis unavailable, rate limits stay per instance", "error", err)
		} else {
			sm.UseSharedLimiter(ratelimit.NewLimiter(redisClient, cfg.MaxRequestsPerMin))
		}
	}

	router, err := api.NewRouter(api.Options{
		Session:        session,
		Reload:         reload,
		Metrics:        metrics,
		Logger:         logger,
		Cache:          fetchCache,
		Security:       sm,
		AllowedOrigins: cfg.AllowedOrigins,
		EnableSwagger:  cfg.EnableSwagger,
		EnableHSTS:     cfg.EnableHSTS,
		Version:        version,
	})
	a := &app{handler: router, cache: fetchCache, security: sm, redis: redisClient}
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func main() {
	cfg := config.Load()

	logger := monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger.Logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer a.close()

	go a.security.Cleanup(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "source", cfg.Describe())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
