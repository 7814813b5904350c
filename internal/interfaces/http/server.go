// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/configurator"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"github.com/your-org/eyewear-backend/internal/interfaces/http/handlers"
	"github.com/your-org/eyewear-backend/internal/interfaces/http/middleware"
	"github.com/your-org/eyewear-backend/internal/interfaces/http/routes"
	"github.com/your-org/eyewear-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	logger      *logrus.Logger
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance with every service wired
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *Server {
	s := &Server{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		startedAt:   time.Now().UTC(),
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	s.gin = gin.New()
	if len(cfg.Security.TrustedProxies) > 0 {
		if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			logger.WithError(err).Warn("Ignoring invalid trusted proxies")
		}
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	log.Printf("🚀 HTTP Server starting on port %s", s.config.Server.Port)
	log.Printf("🌐 API Base URL: http://localhost:%s/api/v1", s.config.Server.Port)
	log.Printf("📊 Health Check: http://localhost:%s/health", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Println("🛑 Shutting down HTTP server...")

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Println("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware - recover from panics
	s.gin.Use(gin.Recovery())

	// Request ID first so the access log carries it
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))

	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.config, s.redisClient, s.logger))

	// Request size limit middleware
	s.gin.Use(middleware.RequestSizeLimit(1 << 20)) // 1MB limit

	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes wires the services and mounts the routes
func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	productService := product.NewService(s.db)
	lensRepository := lens.NewRepository(s.db, productService)

	var resolver lens.ConfigResolver = lens.NewResolver(lensRepository, s.logger, s.config.Lens)
	if s.config.Lens.CacheResolvedConfig {
		resolver = lens.NewCachedResolver(resolver, s.redisClient, s.config.Lens.ConfigCacheTTL, s.logger)
	}

	checkoutService := checkout.NewService(s.redisClient, s.config)
	cartService := cart.NewService(s.db, s.redisClient, s.config)

	wizardService := configurator.NewService(configurator.Dependencies{
		Products:        productService,
		Resolver:        resolver,
		Variants:        lensRepository,
		Coupons:         checkoutService,
		Cart:            cartService,
		ShippingMethods: checkoutService.ShippingMethods(),
		DefaultPD:       s.config.Lens.DefaultPD,
		Logger:          s.logger,
	}, configurator.NewRedisStore(s.redisClient, s.config.Lens.WizardSessionTTL), s.config.Lens.WizardSessionTTL)

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, routes.Handlers{
		Lens:   handlers.NewLensHandler(resolver, productService),
		Wizard: handlers.NewWizardHandler(wizardService, pdf.NewService(s.config)),
		Cart:   handlers.NewCartHandler(cartService),
	}, s.config)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"lens_config":  "/api/v1/products/:id/lens-config",
					"axis_convert": "/api/v1/optics/axis/convert",
					"prescription": "/api/v1/prescriptions/validate",
					"wizard":       "/api/v1/wizard",
					"cart":         "/api/v1/cart",
				},
			})
		})
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database connection error",
		})
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database ping failed",
		})
		return
	}

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "redis ping failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
