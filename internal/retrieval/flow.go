package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/nexconsult/registry-api/internal/utils"
)

// Spans go to the global provider; without one installed by the host they are no-ops.
var tracer = otel.Tracer("registry-api/retrieval")

// DefaultMaxAttempts bounds the captcha loop when no ceiling is configured
const DefaultMaxAttempts = 10

// State names the steps of one retrieval
type State string

const (
	StateFetchingForm    State = "FETCHING_FORM"
	StateDecodingCaptcha State = "DECODING_CAPTCHA"
	StateSubmitting      State = "SUBMITTING"
	StateSuccess         State = "SUCCESS"
	StateRetryable       State = "RETRYABLE_FAILURE"
	StateNoRecord        State = "TERMINAL_NO_RECORD"
	StateError           State = "TERMINAL_ERROR"
)

// CaptchaDecoder transcribes a captcha image
type CaptchaDecoder interface {
	Decode(ctx context.Context, image []byte, opts captcha.Options) (string, error)
}

// CookieSource supplies cookies for a page, typically from a real browser
type CookieSource interface {
	SessionCookies(ctx context.Context, pageURL string) ([]*http.Cookie, error)
}

// Options configures a Flow
type Options struct {
	MaxAttempts        int
	RetryDelay         time.Duration
	RequestTimeout     time.Duration
	OverallTimeout     time.Duration
	UserAgent          string
	InsecureSkipVerify bool
	RequestsPerSecond  float64
	OCRLanguage        string
	OCRPageSegMode     int
}

// Flow drives the captcha-gated form state machine for any configured site
type Flow struct {
	decoder CaptchaDecoder
	cookies CookieSource
	logger  *logrus.Logger
	opts    Options

	limiters *limiterSet
}

// NewFlow creates a retrieval flow. cookies may be nil.
func NewFlow(decoder CaptchaDecoder, cookies CookieSource, opts Options, logger *logrus.Logger) *Flow {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Flow{
		decoder:  decoder,
		cookies:  cookies,
		logger:   logger,
		opts:     opts,
		limiters: newLimiterSet(opts.RequestsPerSecond),
	}
}

// Retrieve runs one retrieval for identifier against site. A site reporting
// no records yields a Result with StatusNoRecord, not an error.
func (f *Flow) Retrieve(ctx context.Context, identifier string, site *SiteConfig) (*Result, error) {
	start := time.Now()

	doc := utils.ValidateDocument(identifier)
	if doc.Malformed() {
		return nil, fmt.Errorf("%w: %q", ErrMalformedIdentifier, identifier)
	}

	if f.opts.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.OverallTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "Retrieve", trace.WithAttributes(
		attribute.String("site", site.Name),
		attribute.String("document.kind", string(doc.Kind)),
	))
	defer span.End()

	sess, err := NewSession(doc, site, SessionOptions{
		UserAgent:          f.opts.UserAgent,
		RequestTimeout:     f.opts.RequestTimeout,
		InsecureSkipVerify: f.opts.InsecureSkipVerify,
		Limiter:            f.limiters.get(site.Name),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger := f.logger.WithFields(logrus.Fields{
		"site":     site.Name,
		"document": doc.Digits,
		"session":  sess.ID,
	})

	if site.BrowserWarmup && f.cookies != nil {
		f.warmup(ctx, sess, logger)
	}

	result, err := f.run(ctx, sess, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).WithField("attempts", sess.Attempts).Warn("Retrieval failed")
		return nil, err
	}

	result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("attempts", result.Attempts),
		attribute.String("status", string(result.Status)),
		attribute.Int("records", result.Table.Len()),
	)
	logger.WithFields(logrus.Fields{
		"attempts": result.Attempts,
		"status":   result.Status,
		"records":  result.Table.Len(),
		"duration": result.Duration,
	}).Info("Retrieval completed")

	return result, nil
}

func (f *Flow) run(ctx context.Context, sess *Session, logger *logrus.Entry) (*Result, error) {
	for sess.Attempts < f.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("retrieval cancelled after %d attempts: %w", sess.Attempts, err)
		}
		if sess.Attempts > 0 && f.opts.RetryDelay > 0 {
			timer := time.NewTimer(f.opts.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("retrieval cancelled after %d attempts: %w", sess.Attempts, ctx.Err())
			case <-timer.C:
			}
		}

		sess.Attempts++
		pg, state, err := f.attempt(ctx, sess, logger)
		if err != nil {
			return nil, err
		}

		switch state {
		case StateRetryable:
			continue
		case StateNoRecord:
			return f.newResult(sess, StatusNoRecord, newResultTable(), nil), nil
		case StateSuccess:
			table, warnings, err := f.assemble(ctx, sess, pg, logger)
			if err != nil {
				return nil, err
			}
			return f.newResult(sess, StatusFound, table, warnings), nil
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, sess.Attempts)
}

// attempt performs one FETCHING_FORM -> DECODING_CAPTCHA -> SUBMITTING pass
func (f *Flow) attempt(ctx context.Context, sess *Session, logger *logrus.Entry) (*page, State, error) {
	ctx, span := tracer.Start(ctx, "Attempt", trace.WithAttributes(attribute.Int("attempt", sess.Attempts)))
	defer span.End()

	logger = logger.WithField("attempt", sess.Attempts)
	logger.Info("Retrieval attempt")

	fail := func(err error) (*page, State, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, StateError, err
	}

	logger.WithField("state", StateFetchingForm).Debug("Fetching form")
	form, err := sess.fetchForm(ctx)
	if err != nil {
		return fail(err)
	}

	var answer string
	if sess.Site.HasCaptcha() {
		logger.WithField("state", StateDecodingCaptcha).Debug("Decoding captcha")
		img, err := sess.captchaImage(ctx, form)
		if err != nil {
			return fail(err)
		}
		answer, err = f.decoder.Decode(ctx, img, captcha.Options{
			Threshold:   sess.Site.CaptchaThreshold,
			PageSegMode: f.opts.OCRPageSegMode,
			Language:    f.opts.OCRLanguage,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			// An unreadable image is just another wrong answer
			logger.WithError(err).Debug("Captcha decode failed")
			span.SetAttributes(attribute.String("state", string(StateRetryable)))
			return nil, StateRetryable, nil
		}
	}

	logger.WithField("state", StateSubmitting).Debug("Submitting form")
	pg, err := sess.submit(ctx, answer)
	if err != nil {
		return fail(err)
	}

	out, message, err := classify(sess.Site, pg)
	if err != nil {
		return fail(err)
	}

	var state State
	switch out {
	case outcomeSuccess:
		state = StateSuccess
	case outcomeNoRecord:
		state = StateNoRecord
	default:
		state = StateRetryable
		logger.WithField("message", message).Debug("Submission rejected")
	}
	span.SetAttributes(attribute.String("state", string(state)))
	return pg, state, nil
}

func (f *Flow) warmup(ctx context.Context, sess *Session, logger *logrus.Entry) {
	cookies, err := f.cookies.SessionCookies(ctx, sess.Site.FormURL)
	if err != nil {
		logger.WithError(err).Warn("Browser warm-up failed, continuing without cookies")
		return
	}
	if err := sess.SeedCookies(sess.Site.FormURL, cookies); err != nil {
		logger.WithError(err).Warn("Failed to seed session cookies")
		return
	}
	logger.WithField("cookies", len(cookies)).Debug("Session seeded from browser")
}

func (f *Flow) newResult(sess *Session, status Status, table *ResultTable, warnings []string) *Result {
	return &Result{
		Site:        sess.Site.Name,
		Document:    sess.Document.Digits,
		Formatted:   sess.Document.Formatted,
		Status:      status,
		Table:       table,
		Attempts:    sess.Attempts,
		Warnings:    warnings,
		RetrievedAt: time.Now(),
	}
}

// IsTimeout reports whether err ended a retrieval because of a deadline
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// limiterSet paces requests per site across all sessions
type limiterSet struct {
	rps float64
	mu  sync.Mutex
	m   map[string]*rate.Limiter
}

func newLimiterSet(rps float64) *limiterSet {
	return &limiterSet{
		rps: rps,
		m:   make(map[string]*rate.Limiter),
	}
}

func (l *limiterSet) get(site string) *rate.Limiter {
	if l.rps <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.m[site]
	if !ok {
		burst := int(l.rps)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(l.rps), burst)
		l.m[site] = lim
	}
	return lim
}
