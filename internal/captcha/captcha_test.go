package captcha

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	text string
	err  error
	seen []byte
	opts Options
}

func (f *fakeEngine) Recognize(_ context.Context, png []byte, opts Options) (string, error) {
	f.seen = png
	f.opts = opts
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/3+y/3)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestPreprocessBlackAndWhiteIsStable(t *testing.T) {
	src := checkerboard(30, 12)

	for threshold := 1; threshold <= 254; threshold++ {
		out, err := Preprocess(src, threshold)
		require.NoError(t, err)
		require.Equal(t, src.Pix, out.Pix, "threshold %d", threshold)
	}
}

func TestPreprocessOutputIsBinary(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			v := uint8(x * 12)
			src.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	out, err := Preprocess(src, 110)
	require.NoError(t, err)
	for _, v := range out.Pix {
		assert.True(t, v == 0 || v == 255)
	}
}

func TestPreprocessRejectsBadThreshold(t *testing.T) {
	_, err := Preprocess(checkerboard(4, 4), 300)
	assert.Error(t, err)

	_, err = Preprocess(checkerboard(4, 4), -1)
	assert.Error(t, err)
}

func TestBinarize(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 1))
	gray.Pix = []uint8{49, 50, 200}

	out := Binarize(gray, 50)
	assert.Equal(t, []uint8{0, 255, 255}, out.Pix)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "aB3xY", CleanText("a B-3\nx.Y\n"))
	assert.Equal(t, "", CleanText("\n\n"))
	assert.Equal(t, "ab_c", CleanText("ab_c"))
}

func TestDecoderDecode(t *testing.T) {
	engine := &fakeEngine{text: " x7K9 \n"}
	decoder := NewDecoder(engine, quietLogger())

	text, err := decoder.Decode(context.Background(), encodePNG(t, checkerboard(30, 12)), Options{})
	require.NoError(t, err)
	assert.Equal(t, "x7K9", text)

	assert.Equal(t, DefaultThreshold, engine.opts.Threshold)
	assert.Equal(t, DefaultPageSegMode, engine.opts.PageSegMode)
	assert.Equal(t, DefaultLanguage, engine.opts.Language)

	decoded, err := imaging.Decode(bytes.NewReader(engine.seen))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 12), decoded.Bounds())

	stats := decoder.Stats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.SuccessRequests)
}

func TestDecoderDecodeErrors(t *testing.T) {
	decoder := NewDecoder(&fakeEngine{}, quietLogger())
	_, err := decoder.Decode(context.Background(), []byte("not an image"), Options{})
	assert.Error(t, err)

	failing := NewDecoder(&fakeEngine{err: errors.New("boom")}, quietLogger())
	_, err = failing.Decode(context.Background(), encodePNG(t, checkerboard(6, 6)), Options{})
	assert.Error(t, err)

	assert.Equal(t, int64(1), failing.Stats().FailedRequests)
}

func TestDecoderEmptyTextIsNotAnError(t *testing.T) {
	decoder := NewDecoder(&fakeEngine{text: "..."}, quietLogger())
	text, err := decoder.Decode(context.Background(), encodePNG(t, checkerboard(6, 6)), Options{Threshold: 50})
	require.NoError(t, err)
	assert.Empty(t, text)
}
