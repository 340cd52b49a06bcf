package dto

import "errors"

// ErrInvalidImage signals an undecodable or zero-area receipt image. It is
// the only hard failure in the pipeline; a field the cascade cannot find is
// reported as an empty value instead.
var ErrInvalidImage = errors.New("invalid or undecodable image")

// Where the extracted text came from.
const (
	SourceOCR     = "ocr"
	SourcePDFText = "pdf_text"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractResponse carries the two extracted fields plus everything the
// record-keeping collaborator needs to file the expense row.
type ExtractResponse struct {
	Amount        string  `json:"amount"`
	Date          string  `json:"date"`
	Category      string  `json:"category,omitempty"`
	Purpose       string  `json:"purpose,omitempty"`
	OcrConfidence float64 `json:"ocr_confidence"`
	ImageInverted bool    `json:"image_inverted"`
	Source        string  `json:"source"`
	ProcessedAt   string  `json:"processed_at"`
}
