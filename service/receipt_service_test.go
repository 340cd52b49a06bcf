package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseocr/receipt-extraction/dto"
)

type stubOCREngine struct {
	text string
	conf float64
	err  error
}

func (s stubOCREngine) ExtractTextAndQuality(img image.Image) (string, float64, error) {
	return s.text, s.conf, s.err
}

type stubPDFProcessor struct {
	text    string
	textErr error
	images  []image.Image
	imgErr  error
}

func (s stubPDFProcessor) ExtractText([]byte) (string, error) {
	return s.text, s.textErr
}

func (s stubPDFProcessor) ExtractImages([]byte) ([]image.Image, error) {
	return s.images, s.imgErr
}

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeaderFor(t *testing.T, name string, data []byte) *multipart.FileHeader {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(int64(buf.Len()) + 1024)
	require.NoError(t, err)
	require.NotEmpty(t, form.File["file"])
	return form.File["file"][0]
}

func TestExtractFromUploadImage(t *testing.T) {
	svc := NewReceiptService(
		stubOCREngine{text: "Total: Rs. 450.00\nDate: 24/05/2025", conf: 91.5},
		stubPDFProcessor{},
	)

	req := &dto.ExtractRequest{
		File:     fileHeaderFor(t, "bill.png", pngBytes(t, whiteImage(60, 60))),
		Category: dto.CategoryFood,
		Purpose:  "Team lunch",
	}

	resp, err := svc.ExtractFromUpload(req)

	require.NoError(t, err)
	assert.Equal(t, "450.00", resp.Amount)
	assert.Equal(t, "24/05/2025", resp.Date)
	assert.Equal(t, dto.SourceOCR, resp.Source)
	assert.Equal(t, dto.CategoryFood, resp.Category)
	assert.Equal(t, "Team lunch", resp.Purpose)
	assert.Equal(t, 91.5, resp.OcrConfidence)
	assert.False(t, resp.ImageInverted)
	assert.NotEmpty(t, resp.ProcessedAt)
}

func TestExtractFromUploadImageNoFields(t *testing.T) {
	svc := NewReceiptService(stubOCREngine{text: "illegible smudge"}, stubPDFProcessor{})

	req := &dto.ExtractRequest{
		File: fileHeaderFor(t, "bill.png", pngBytes(t, whiteImage(40, 40))),
	}

	resp, err := svc.ExtractFromUpload(req)

	// Missing fields are an expected outcome, not an error.
	require.NoError(t, err)
	assert.Empty(t, resp.Amount)
	assert.Empty(t, resp.Date)
}

func TestExtractFromUploadUndecodableImage(t *testing.T) {
	svc := NewReceiptService(stubOCREngine{}, stubPDFProcessor{})

	req := &dto.ExtractRequest{
		File: fileHeaderFor(t, "bill.png", []byte("this is not an image")),
	}

	_, err := svc.ExtractFromUpload(req)

	assert.ErrorIs(t, err, dto.ErrInvalidImage)
}

func TestExtractFromUploadOCRFailure(t *testing.T) {
	svc := NewReceiptService(stubOCREngine{err: errors.New("tesseract crashed")}, stubPDFProcessor{})

	req := &dto.ExtractRequest{
		File: fileHeaderFor(t, "bill.png", pngBytes(t, whiteImage(40, 40))),
	}

	_, err := svc.ExtractFromUpload(req)

	assert.ErrorContains(t, err, "OCR extraction failed")
}

func TestExtractFromUploadPDFTextLayer(t *testing.T) {
	svc := NewReceiptService(
		stubOCREngine{},
		stubPDFProcessor{text: "Cab Invoice\nFare ₹320.50\nDate: 01/06/2025"},
	)

	req := &dto.ExtractRequest{
		File:     fileHeaderFor(t, "invoice.pdf", []byte("%PDF-1.7 fake")),
		Category: dto.CategoryTravel,
	}

	resp, err := svc.ExtractFromUpload(req)

	require.NoError(t, err)
	assert.Equal(t, "320.50", resp.Amount)
	assert.Equal(t, "01/06/2025", resp.Date)
	assert.Equal(t, dto.SourcePDFText, resp.Source)
}

func TestExtractFromUploadPDFFallsBackToPageImages(t *testing.T) {
	svc := NewReceiptService(
		stubOCREngine{text: "Total Rs. 780", conf: 80},
		stubPDFProcessor{
			textErr: errors.New("no text layer"),
			images:  []image.Image{whiteImage(50, 50)},
		},
	)

	req := &dto.ExtractRequest{
		File: fileHeaderFor(t, "scan.pdf", []byte("%PDF-1.4 fake")),
	}

	resp, err := svc.ExtractFromUpload(req)

	require.NoError(t, err)
	assert.Equal(t, "780", resp.Amount)
	assert.Equal(t, dto.SourceOCR, resp.Source)
	assert.Equal(t, float64(80), resp.OcrConfidence)
}

func TestExtractFromUploadPDFNoPages(t *testing.T) {
	svc := NewReceiptService(stubOCREngine{}, stubPDFProcessor{textErr: errors.New("no text layer")})

	req := &dto.ExtractRequest{
		File: fileHeaderFor(t, "scan.pdf", []byte("%PDF-1.4 fake")),
	}

	_, err := svc.ExtractFromUpload(req)

	assert.Error(t, err)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.7")))
	assert.False(t, isPDF([]byte{0x89, 'P', 'N', 'G'}))
	assert.False(t, isPDF(nil))
}

func TestSplitQRPayload(t *testing.T) {
	lines := splitQRPayload("upi://pay?pa=merchant@bank&am=450.00&tn=lunch")

	assert.Equal(t, []string{"upi://pay", "pa=merchant@bank", "am=450.00", "tn=lunch"}, lines)
}

func TestSplitQRPayloadAmountFeedsCascade(t *testing.T) {
	// The am= field of a UPI QR must survive as an extractable line.
	lines := splitQRPayload("upi://pay?pa=x@y&am=450.00")

	assert.Contains(t, lines, "am=450.00")
}
