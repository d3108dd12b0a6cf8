package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/nexconsult/registry-api/internal/captcha/tesseract"
	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/retrieval"
)

// Container holds all service dependencies
type Container struct {
	config           *config.Config
	logger           *logrus.Logger
	redisClient      *redis.Client
	cancel           context.CancelFunc
	Decoder          *captcha.Decoder
	Sites            *retrieval.Registry
	RetrievalService RetrievalServiceInterface
	CacheService     *CacheService
	BrowserService   BrowserServiceInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	container.initRedis()

	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis connects to redis; on failure the cache runs in memory only
func (c *Container) initRedis() {
	if !c.config.Redis.Enabled {
		c.logger.Info("Redis disabled, using in-memory cache")
		return
	}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout)
	defer cancel()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running with in-memory cache")
		_ = c.redisClient.Close()
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}
}

func (c *Container) initServices() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.CacheService = NewCacheService(c.redisClient, c.config.Retrieval.CacheTTL, c.logger)
	c.CacheService.StartCleanupRoutine(ctx, 5*time.Minute)

	c.BrowserService = NewBrowserService(c.config.Browser, c.config.Retrieval.UserAgent, c.logger)

	sites, err := retrieval.DefaultRegistry(c.config.Retrieval.SitesFile)
	if err != nil {
		return fmt.Errorf("failed to load site definitions: %w", err)
	}
	c.Sites = sites

	c.Decoder = captcha.NewDecoder(tesseract.New(), c.logger)

	var cookies retrieval.CookieSource
	if c.config.Browser.Enabled {
		cookies = c.BrowserService
	}

	flow := retrieval.NewFlow(c.Decoder, cookies, FlowOptions(c.config), c.logger)

	c.RetrievalService = NewRetrievalService(c.config.Retrieval, sites, flow, c.CacheService, c.Decoder, c.logger)
	return nil
}

// FlowOptions maps configuration onto retrieval flow options
func FlowOptions(cfg *config.Config) retrieval.Options {
	return retrieval.Options{
		MaxAttempts:        cfg.Retrieval.MaxAttempts,
		RetryDelay:         cfg.Retrieval.RetryDelay,
		RequestTimeout:     cfg.Retrieval.RequestTimeout,
		OverallTimeout:     cfg.Retrieval.OverallTimeout,
		UserAgent:          cfg.Retrieval.UserAgent,
		InsecureSkipVerify: cfg.Retrieval.InsecureSkipVerify,
		RequestsPerSecond:  cfg.Retrieval.RequestsPerSecond,
		OCRLanguage:        cfg.OCR.Language,
		OCRPageSegMode:     cfg.OCR.PageSegMode,
	}
}

// Close closes all service connections
func (c *Container) Close() error {
	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	if c.RetrievalService != nil {
		if err := c.RetrievalService.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close retrieval service: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.BrowserService != nil {
		if err := c.BrowserService.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser service: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	}

	if c.BrowserService != nil {
		health["browser"] = c.BrowserService.Health()
	}

	if c.RetrievalService != nil {
		health["retrieval"] = c.RetrievalService.Health()
	}

	return health
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
