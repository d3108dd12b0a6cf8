package tesseract

import (
	"context"
	"testing"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/stretchr/testify/assert"
)

func TestRecognizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, err := New().Recognize(ctx, nil, captcha.Options{Language: "eng", PageSegMode: 7})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, text)
}
