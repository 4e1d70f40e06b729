// Package api exposes a dashboard session over HTTP and serves the
// embedded dashboard page.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/cache"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
	_ "github.com/ZanzyTHEbar/impact-effort-matrix/internal/docs"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/frontend"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/middleware"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/monitoring"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/security"
)

// ReloadFunc loads a fresh store. It must not return nil.
type ReloadFunc func(ctx context.Context) *analysis.Store

// Options configure the router. Session is required; everything else has a
// usable zero value.
type Options struct {
	Session  *dashboard.Session
	Reload   ReloadFunc
	Metrics  *monitoring.Metrics
	Logger   *monitoring.Logger
	Cache    *cache.Cache
	Security *security.SecurityMiddleware

	AllowedOrigins []string
	EnableSwagger  bool
	EnableHSTS     bool
	Version        string
}

// Server holds the handlers' dependencies.
type Server struct {
	session  *dashboard.Session
	reload   ReloadFunc
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	cache    *cache.Cache
	security *security.SecurityMiddleware
	gzip     *middleware.CompressionMiddleware
	version  string
	started  time.Time
}

// NewRouter wires middleware, API routes, Swagger and the dashboard page.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLogger(monitoring.ParseLevel("info"))
	}
	if opts.Security == nil {
		opts.Security = security.NewSecurityMiddleware(security.DefaultSecurityConfig(), opts.Metrics)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		session:  opts.Session,
		reload:   opts.Reload,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		cache:    opts.Cache,
		security: opts.Security,
		gzip:     middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		version:  opts.Version,
		started:  time.Now(),
	}

	distFS, err := frontend.GetDistFS()
	if err != nil {
		return nil, err
	}
	indexTemplate, err := frontend.LoadIndexTemplate(distFS)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(opts.Metrics, opts.Logger))
	r.Use(s.gzip.Handler())
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(corsMiddleware(opts.AllowedOrigins))
	r.Use(security.SecurityHeadersMiddleware(opts.EnableHSTS))
	r.Use(opts.Security.RequestTimeout)

	r.GET("/health", s.health)
	r.GET("/metrics", s.metricsStats)

	api := r.Group("/api")
	api.Use(opts.Security.RateLimitByIP)
	api.Use(opts.Security.LimitBody)
	api.Use(opts.Security.ValidateContentType)
	{
		api.GET("/view", s.view)
		api.GET("/state", s.state)
		api.POST("/events", s.dispatchEvent)
		api.PUT("/weights", s.setWeights)
		api.POST("/filters", s.toggleFilter)
		api.POST("/scaling/:metric/toggle", s.toggleScaling)
		api.POST("/view/:view", s.switchView)
		api.POST("/sort", s.sortTable)
		api.POST("/quadrants/:quadrant/toggle", s.toggleQuadrant)
		api.DELETE("/quadrants/selected", s.clearQuadrant)
		api.GET("/features/*name", s.feature)
		api.GET("/palette", s.palette)
		api.GET("/issues", s.issues)
		api.POST("/reload", s.reloadDataset)
	}

	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(security.CSPMiddleware(), frontend.NewDashboardHandler(distFS, indexTemplate))

	return r, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", monitoring.RequestIDHeader},
		ExposeHeaders:    []string{monitoring.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
