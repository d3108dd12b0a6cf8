package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/config"
)

// ErrBrowserDisabled is returned when the pool was not enabled in config
var ErrBrowserDisabled = errors.New("browser pool disabled")

// BrowserService keeps a small pool of headless Chrome instances used to
// obtain cookies for forms that need JavaScript before they accept requests
type BrowserService struct {
	config    config.BrowserConfig
	userAgent string
	logger    *logrus.Logger
	pool      chan *chromeBrowser
	browsers  []*chromeBrowser
	mu        sync.RWMutex
	closed    bool
}

type chromeBrowser struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	healthy bool
	mu      sync.RWMutex
}

// NewBrowserService creates the pool. A disabled pool starts no browsers.
func NewBrowserService(cfg config.BrowserConfig, userAgent string, logger *logrus.Logger) *BrowserService {
	size := cfg.MaxBrowsers
	if size < 1 {
		size = 1
	}
	service := &BrowserService{
		config:    cfg,
		userAgent: userAgent,
		logger:    logger,
		pool:      make(chan *chromeBrowser, size),
		browsers:  make([]*chromeBrowser, 0, size),
	}

	if !cfg.Enabled {
		logger.Info("Browser service disabled")
		return service
	}

	for i := 0; i < cfg.MinBrowsers; i++ {
		b, err := service.createBrowser()
		if err != nil {
			logger.WithError(err).Error("Failed to create initial browser")
			continue
		}
		service.browsers = append(service.browsers, b)
		service.pool <- b
	}

	logger.WithField("browsers", len(service.browsers)).Info("Browser service initialized")
	return service
}

// SessionCookies opens pageURL in a fresh tab of a pooled browser and returns
// the cookies the page set
func (s *BrowserService) SessionCookies(ctx context.Context, pageURL string) ([]*http.Cookie, error) {
	b, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(b)

	tabCtx, cancelTab := chromedp.NewContext(b.ctx)
	defer cancelTab()

	timeout := s.config.PageTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	// Propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var cookies []*network.Cookie
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() == nil {
			b.markUnhealthy()
		}
		return nil, fmt.Errorf("browser warm-up of %s failed: %w", pageURL, err)
	}

	s.logger.WithFields(logrus.Fields{
		"browser_id": b.id,
		"url":        pageURL,
		"cookies":    len(cookies),
	}).Debug("Browser cookies captured")

	return toHTTPCookies(cookies), nil
}

func toHTTPCookies(cookies []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if !c.Session && c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}

func (s *BrowserService) acquire(ctx context.Context) (*chromeBrowser, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if !s.config.Enabled {
		return nil, ErrBrowserDisabled
	}
	if closed {
		return nil, fmt.Errorf("browser service is closed")
	}

	select {
	case b := <-s.pool:
		if b.isHealthy() {
			return b, nil
		}
		s.logger.WithField("browser_id", b.id).Warn("Unhealthy browser detected, creating new one")
		return s.replace(b)
	default:
	}

	// Nothing idle; grow if under the limit, otherwise wait
	s.mu.Lock()
	if len(s.browsers) < s.config.MaxBrowsers {
		b, err := s.createBrowser()
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		s.browsers = append(s.browsers, b)
		s.mu.Unlock()
		return b, nil
	}
	s.mu.Unlock()

	select {
	case b := <-s.pool:
		if b.isHealthy() {
			return b, nil
		}
		return s.replace(b)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *BrowserService) replace(old *chromeBrowser) (*chromeBrowser, error) {
	old.close()

	b, err := s.createBrowser()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.browsers {
		if existing == old {
			s.browsers = append(s.browsers[:i], s.browsers[i+1:]...)
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create new browser: %w", err)
	}
	s.browsers = append(s.browsers, b)
	return b, nil
}

func (s *BrowserService) release(b *chromeBrowser) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		b.close()
		return
	}

	select {
	case s.pool <- b:
	default:
		b.close()
	}
}

func (s *BrowserService) createBrowser() (*chromeBrowser, error) {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1366, 768),
	}
	if s.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.userAgent))
	}
	if s.config.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	b := &chromeBrowser{
		id:      fmt.Sprintf("browser-%d", time.Now().UnixNano()),
		ctx:     ctx,
		cancel:  func() { ctxCancel(); allocCancel() },
		healthy: true,
	}

	// First Run starts the process
	testCtx, testCancel := context.WithTimeout(ctx, 15*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		b.close()
		return nil, fmt.Errorf("browser health check failed: %w", err)
	}

	s.logger.WithField("browser_id", b.id).Debug("Browser created successfully")
	return b, nil
}

// GetStats returns browser pool statistics
func (s *BrowserService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	healthy := 0
	for _, b := range s.browsers {
		if b.isHealthy() {
			healthy++
		}
	}

	return map[string]interface{}{
		"enabled":          s.config.Enabled,
		"total_browsers":   len(s.browsers),
		"healthy_browsers": healthy,
		"available":        len(s.pool),
		"max_browsers":     s.config.MaxBrowsers,
		"min_browsers":     s.config.MinBrowsers,
	}
}

// Health returns browser service health status
func (s *BrowserService) Health() map[string]interface{} {
	stats := s.GetStats()

	status := "healthy"
	switch healthy := stats["healthy_browsers"].(int); {
	case !s.config.Enabled:
		status = "disabled"
	case healthy == 0 && s.config.MinBrowsers > 0:
		status = "unhealthy"
	case healthy < s.config.MinBrowsers:
		status = "degraded"
	}

	return map[string]interface{}{
		"status": status,
		"stats":  stats,
	}
}

// Restart restarts the browser pool
func (s *BrowserService) Restart() error {
	if !s.config.Enabled {
		return ErrBrowserDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.browsers {
		b.close()
	}
	for len(s.pool) > 0 {
		<-s.pool
	}
	s.browsers = s.browsers[:0]

	for i := 0; i < s.config.MinBrowsers; i++ {
		b, err := s.createBrowser()
		if err != nil {
			s.logger.WithError(err).Error("Failed to create browser during restart")
			continue
		}
		s.browsers = append(s.browsers, b)
		s.pool <- b
	}

	s.logger.Info("Browser pool restarted")
	return nil
}

// Close closes all browsers and releases resources
func (s *BrowserService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, b := range s.browsers {
		b.close()
	}
	for len(s.pool) > 0 {
		<-s.pool
	}

	s.logger.Info("Browser service closed")
	return nil
}

func (b *chromeBrowser) isHealthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.healthy
}

func (b *chromeBrowser) markUnhealthy() {
	b.mu.Lock()
	b.healthy = false
	b.mu.Unlock()
}

func (b *chromeBrowser) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.healthy = false
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
