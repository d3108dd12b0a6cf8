package captcha

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// smoothMoreKernel is the 5x5 "smooth more" filter: a heavy centre weight with a
// light ring, normalized by its sum (100).
var smoothMoreKernel = [25]float64{
	1, 1, 1, 1, 1,
	1, 5, 5, 5, 1,
	1, 5, 44, 5, 1,
	1, 5, 5, 5, 1,
	1, 1, 1, 1, 1,
}

// Preprocess smooths the image twice, converts it to greyscale and binarizes it.
// Images that are already pure black and white skip smoothing, so their output
// does not depend on the threshold.
func Preprocess(src image.Image, threshold int) (*image.Gray, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold must be between 0 and 255, got %d", threshold)
	}

	gray := toGray(src)
	if !isBinary(gray) {
		opts := &imaging.ConvolveOptions{Normalize: true}
		smoothed := imaging.Convolve5x5(src, smoothMoreKernel, opts)
		smoothed = imaging.Convolve5x5(smoothed, smoothMoreKernel, opts)
		gray = toGray(smoothed)
	}

	return Binarize(gray, threshold), nil
}

// Binarize maps every pixel below threshold to black and everything else to white
func Binarize(gray *image.Gray, threshold int) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if int(gray.GrayAt(x, y).Y) < threshold {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	return out
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}

	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return gray
}

func isBinary(gray *image.Gray) bool {
	for _, v := range gray.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}
