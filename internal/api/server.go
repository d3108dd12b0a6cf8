package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nexconsult/registry-api/docs"
	"github.com/nexconsult/registry-api/internal/api/handlers"
	"github.com/nexconsult/registry-api/internal/api/middleware"
	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	metricsHandler := handlers.NewMetricsHandler(s.services.RetrievalService, s.services.CacheService, s.services.BrowserService, s.logger)
	s.Router.GET("/metrics", metricsHandler.GetMetrics)

	if !s.config.IsProduction() {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	// Health and metrics stay outside the limiter
	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)

	v1 := s.Router.Group("/api/v1")
	v1.Use(s.rateLimiter.Middleware())
	{
		documentHandler := handlers.NewDocumentHandler(s.logger)
		documents := v1.Group("/documents")
		{
			documents.GET("/:document", documentHandler.GetDocument)
			documents.POST("/validate", documentHandler.Validate)
		}

		recordsHandler := handlers.NewRecordsHandler(s.services.RetrievalService, s.config.Retrieval.MaxBatchSize, s.logger)
		sites := v1.Group("/sites")
		{
			sites.GET("", recordsHandler.ListSites)
			sites.GET("/:site/records/:document", recordsHandler.GetRecords)
			sites.POST("/:site/records/batch", recordsHandler.GetBatchRecords)
		}

		cache := v1.Group("/cache")
		cache.Use(middleware.AdminAuth(s.config.Security.AdminKey))
		{
			cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.services.RetrievalService, s.logger)
			cache.GET("/stats", cacheHandler.GetStats)
			cache.DELETE("/clear", cacheHandler.Clear)
			cache.DELETE("/:site/:document", cacheHandler.Delete)
		}

		browser := v1.Group("/browser")
		browser.Use(middleware.AdminAuth(s.config.Security.AdminKey))
		{
			browserHandler := handlers.NewBrowserHandler(s.services.BrowserService, s.logger)
			browser.GET("/stats", browserHandler.GetStats)
			browser.POST("/restart", browserHandler.Restart)
			browser.GET("/health", browserHandler.GetHealth)
		}
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	s.Router.HandleMethodNotAllowed = true
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}

// Close stops background work owned by the server
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
