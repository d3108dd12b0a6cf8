// Package tesseract provides the libtesseract backed captcha.OCREngine.
// It is the only cgo dependency and is wired from the binaries only.
package tesseract

import (
	"context"
	"fmt"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/otiai10/gosseract/v2"
)

var _ captcha.OCREngine = (*Engine)(nil)

// Engine runs OCR through libtesseract.
// A new client is created per call because gosseract clients are not safe for concurrent use.
type Engine struct{}

// New creates a tesseract backed OCR engine
func New() *Engine {
	return &Engine{}
}

// Recognize implements captcha.OCREngine
func (e *Engine) Recognize(ctx context.Context, png []byte, opts captcha.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(opts.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetVariable(gosseract.SettableVariable("page_separator"), ""); err != nil {
		return "", fmt.Errorf("failed to set page separator: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	return client.Text()
}
