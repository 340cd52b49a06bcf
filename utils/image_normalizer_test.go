package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseocr/receipt-extraction/dto"
)

func uniformImage(w, h int, gray uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}
	return img
}

func TestNormalizeImageDarkPhotoGetsInverted(t *testing.T) {
	norm, err := NormalizeImage(uniformImage(20, 20, 40))

	require.NoError(t, err)
	assert.True(t, norm.Inverted)
	assert.InDelta(t, 40, norm.MeanBrightness, 1)
}

func TestNormalizeImageBrightPhotoKeepsPolarity(t *testing.T) {
	norm, err := NormalizeImage(uniformImage(20, 20, 220))

	require.NoError(t, err)
	assert.False(t, norm.Inverted)
	assert.InDelta(t, 220, norm.MeanBrightness, 1)
}

func TestNormalizeImageThresholdBoundary(t *testing.T) {
	// Exactly at the threshold: not inverted. Just below: inverted.
	at, err := NormalizeImage(uniformImage(10, 10, 150))
	require.NoError(t, err)
	assert.False(t, at.Inverted)

	below, err := NormalizeImage(uniformImage(10, 10, 149))
	require.NoError(t, err)
	assert.True(t, below.Inverted)
}

func TestNormalizeImageUpscalesSmallPhotos(t *testing.T) {
	norm, err := NormalizeImage(uniformImage(60, 40, 200))

	require.NoError(t, err)
	assert.Equal(t, upscaledHeight, norm.Image.Bounds().Dy())
}

func TestNormalizeImageRejectsZeroArea(t *testing.T) {
	_, err := NormalizeImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, dto.ErrInvalidImage)
}

func TestNormalizeImageRejectsNil(t *testing.T) {
	_, err := NormalizeImage(nil)
	assert.ErrorIs(t, err, dto.ErrInvalidImage)
}

func TestNormalizeImageDoesNotMutateInput(t *testing.T) {
	src := uniformImage(10, 10, 30)

	_, err := NormalizeImage(src)

	require.NoError(t, err)
	r, _, _, _ := src.At(5, 5).RGBA()
	assert.Equal(t, uint32(30), r>>8)
}

func TestNormalizeImageDeterministic(t *testing.T) {
	a, err := NormalizeImage(uniformImage(15, 15, 90))
	require.NoError(t, err)
	b, err := NormalizeImage(uniformImage(15, 15, 90))
	require.NoError(t, err)

	assert.Equal(t, a.Inverted, b.Inverted)
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}
