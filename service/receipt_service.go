package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"
	"time"

	"github.com/expenseocr/receipt-extraction/dto"
	"github.com/expenseocr/receipt-extraction/utils"
)

// OCREngine converts a normalized receipt bitmap into raw text plus an
// average word confidence. The engine is an external collaborator;
// Tesseract is the default adapter.
type OCREngine interface {
	ExtractTextAndQuality(img image.Image) (string, float64, error)
}

type ReceiptService struct {
	ocrEngine    OCREngine
	pdfProcessor PDFProcessor
}

func NewReceiptService(ocrEngine OCREngine, pdfProcessor PDFProcessor) *ReceiptService {
	return &ReceiptService{
		ocrEngine:    ocrEngine,
		pdfProcessor: pdfProcessor,
	}
}

// ExtractFromUpload runs the full pipeline over one uploaded receipt:
// decode, normalize, OCR (or the PDF path), then the field extraction
// cascade. Invocations are independent and stateless, so callers may run
// them concurrently.
func (s *ReceiptService) ExtractFromUpload(req *dto.ExtractRequest) (*dto.ExtractResponse, error) {
	f, err := req.File.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	if isPDF(data) {
		return s.extractFromPDF(data, req)
	}
	return s.extractFromImage(data, req)
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func (s *ReceiptService) extractFromImage(data []byte, req *dto.ExtractRequest) (*dto.ExtractResponse, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, dto.ErrInvalidImage
	}

	norm, err := utils.NormalizeImage(img)
	if err != nil {
		return nil, err
	}

	text, conf, err := s.ocrEngine.ExtractTextAndQuality(norm.Image)
	if err != nil {
		return nil, fmt.Errorf("OCR extraction failed: %w", err)
	}

	// QR decoding runs on the original photo: binarization helps OCR but
	// can destroy the QR's quiet zone.
	if qrLines := decodeQRLines(img); len(qrLines) > 0 {
		log.Printf("QR code decoded on receipt, %d extra lines", len(qrLines))
		text = text + "\n" + strings.Join(qrLines, "\n")
	}

	fields := utils.ExtractFields(text)
	return s.buildResponse(fields, req, dto.SourceOCR, conf, norm.Inverted), nil
}

func (s *ReceiptService) extractFromPDF(data []byte, req *dto.ExtractRequest) (*dto.ExtractResponse, error) {
	// Digital receipts usually carry a text layer; OCR is only needed for
	// scanned ones.
	if text, err := s.pdfProcessor.ExtractText(data); err == nil && strings.TrimSpace(text) != "" {
		fields := utils.ExtractFields(text)
		return s.buildResponse(fields, req, dto.SourcePDFText, 0, false), nil
	}

	images, err := s.pdfProcessor.ExtractImages(data)
	if err != nil {
		return nil, fmt.Errorf("pdf image extraction failed: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("pdf contains no text and no extractable page images")
	}

	var textBuilder strings.Builder
	var totalConf float64
	var pages int
	inverted := false

	for _, img := range images {
		norm, err := utils.NormalizeImage(img)
		if err != nil {
			log.Printf("Skipping unusable pdf page image: %v", err)
			continue
		}

		pageText, pageConf, err := s.ocrEngine.ExtractTextAndQuality(norm.Image)
		if err != nil {
			log.Printf("OCR failed on pdf page image: %v", err)
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
		totalConf += pageConf
		pages++
		if norm.Inverted {
			inverted = true
		}
	}

	if pages == 0 {
		return nil, fmt.Errorf("OCR failed on every pdf page")
	}

	fields := utils.ExtractFields(textBuilder.String())
	return s.buildResponse(fields, req, dto.SourceOCR, totalConf/float64(pages), inverted), nil
}

func (s *ReceiptService) buildResponse(fields dto.ReceiptFields, req *dto.ExtractRequest, source string, conf float64, inverted bool) *dto.ExtractResponse {
	resp := &dto.ExtractResponse{
		Date:          fields.Date,
		Category:      req.Category,
		Purpose:       req.Purpose,
		OcrConfidence: conf,
		ImageInverted: inverted,
		Source:        source,
		ProcessedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	if fields.Amount != nil {
		resp.Amount = fields.Amount.String()
		log.Printf("Amount %s extracted via %s strategy from line %d", resp.Amount, fields.AmountStrategy, fields.AmountLine)
	} else {
		log.Println("No amount candidate survived the cascade")
	}
	if fields.Date == "" {
		log.Println("No date pattern matched")
	}

	return resp
}
