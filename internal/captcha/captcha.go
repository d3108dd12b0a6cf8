package captcha

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const (
	DefaultThreshold   = 110
	DefaultPageSegMode = 7 // single uniform line of text
	DefaultLanguage    = "eng"
)

// Options tunes one decode call
type Options struct {
	Threshold   int
	PageSegMode int
	Language    string
}

func (o Options) withDefaults() Options {
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.PageSegMode == 0 {
		o.PageSegMode = DefaultPageSegMode
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	return o
}

// OCREngine turns a single-channel PNG bitmap into text
type OCREngine interface {
	Recognize(ctx context.Context, png []byte, opts Options) (string, error)
}

// Stats holds decoder statistics
type Stats struct {
	TotalRequests   int64         `json:"total_requests"`
	SuccessRequests int64         `json:"success_requests"`
	FailedRequests  int64         `json:"failed_requests"`
	AverageTime     time.Duration `json:"average_time"`
	LastRequest     time.Time     `json:"last_request"`
}

// Decoder produces a best-effort transcription of a CAPTCHA image.
// It never judges whether the answer is right; the site does that.
type Decoder struct {
	engine OCREngine
	logger *logrus.Logger

	mu    sync.RWMutex
	stats Stats
}

// NewDecoder creates a decoder backed by the given OCR engine
func NewDecoder(engine OCREngine, logger *logrus.Logger) *Decoder {
	return &Decoder{
		engine: engine,
		logger: logger,
	}
}

// Decode preprocesses the raw image bytes and runs OCR on the result
func (d *Decoder) Decode(ctx context.Context, imageData []byte, opts Options) (string, error) {
	start := time.Now()
	opts = opts.withDefaults()

	d.mu.Lock()
	d.stats.TotalRequests++
	d.stats.LastRequest = start
	d.mu.Unlock()

	text, err := d.decode(ctx, imageData, opts)

	d.mu.Lock()
	if err != nil {
		d.stats.FailedRequests++
	} else {
		d.stats.SuccessRequests++
	}
	d.stats.AverageTime = (d.stats.AverageTime + time.Since(start)) / 2
	d.mu.Unlock()

	if err != nil {
		return "", err
	}

	d.logger.WithFields(logrus.Fields{
		"text":      text,
		"threshold": opts.Threshold,
		"duration":  time.Since(start),
	}).Debug("Captcha decoded")

	return text, nil
}

func (d *Decoder) decode(ctx context.Context, imageData []byte, opts Options) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode captcha image: %w", err)
	}

	bitmap, err := Preprocess(src, opts.Threshold)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, bitmap, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode preprocessed captcha: %w", err)
	}

	raw, err := d.engine.Recognize(ctx, buf.Bytes(), opts)
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}

	return CleanText(raw), nil
}

// Stats returns a snapshot of decoder statistics
func (d *Decoder) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

var nonWord = regexp.MustCompile(`\W+`)

// CleanText drops newlines and every non-word character from OCR output
func CleanText(raw string) string {
	return nonWord.ReplaceAllString(strings.ReplaceAll(raw, "\n", ""), "")
}
