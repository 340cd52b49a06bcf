package utils

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/expenseocr/receipt-extraction/dto"
)

const (
	// Below this mean brightness the photo is assumed to be light text on a
	// dark background (thermal paper shot with flash, inverted polarity)
	// and the grayscale is flipped before OCR.
	brightnessThreshold = 150

	contrastBoost = 30

	// Small photos are upscaled so Tesseract has enough pixels per glyph.
	minOcrHeight   = 800
	upscaledHeight = 1200
)

// NormalizedImage is the OCR-ready form of a receipt photo. Inverted
// records which branch of the brightness decision was taken and is kept
// for diagnostics only; nothing downstream consumes it.
type NormalizedImage struct {
	Image          *image.NRGBA
	Inverted       bool
	MeanBrightness float64
}

// NormalizeImage converts a receipt photo into a grayscale,
// contrast-adjusted bitmap that maximizes OCR legibility. The input image
// is never modified; identical input always produces identical output.
func NormalizeImage(img image.Image) (*NormalizedImage, error) {
	if img == nil {
		return nil, dto.ErrInvalidImage
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, dto.ErrInvalidImage
	}

	gray := imaging.Grayscale(img)
	mean := meanBrightness(gray)

	inverted := false
	if mean < brightnessThreshold {
		gray = imaging.Invert(gray)
		inverted = true
	}

	gray = imaging.AdjustContrast(gray, contrastBoost)

	if gray.Bounds().Dy() < minOcrHeight {
		gray = imaging.Resize(gray, 0, upscaledHeight, imaging.Lanczos)
	}

	return &NormalizedImage{
		Image:          gray,
		Inverted:       inverted,
		MeanBrightness: mean,
	}, nil
}

// meanBrightness averages the red channel over the whole bitmap. The image
// is already grayscale, so one channel is a complete brightness statistic.
func meanBrightness(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			sum += uint64(row[x*4])
		}
	}
	return float64(sum) / float64(w*h)
}
