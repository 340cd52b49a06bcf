package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/expenseocr/receipt-extraction/dto"
	"github.com/expenseocr/receipt-extraction/service"

	"github.com/gin-gonic/gin"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
	}
}

// ExtractReceipt handles the POST /receipt/extract endpoint
func (h *ReceiptHandler) ExtractReceipt(c *gin.Context) {
	log.Println("Received receipt extraction request")

	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "A receipt file is required", err)
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = inferMimeType(file.Filename)
	}
	if !isValidMimeType(mimeType) {
		h.sendError(c, http.StatusBadRequest, "Invalid file type. Supported: PDF, PNG, JPEG", nil)
		return
	}

	request := &dto.ExtractRequest{
		File:     file,
		Category: c.PostForm("category"),
		Purpose:  c.PostForm("purpose"),
	}

	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	log.Printf("Processing receipt file: %s", file.Filename)

	response, err := h.receiptService.ExtractFromUpload(request)
	if err != nil {
		if errors.Is(err, dto.ErrInvalidImage) {
			h.sendError(c, http.StatusBadRequest, "Uploaded file is not a usable image", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to extract receipt fields", err)
		return
	}

	log.Println("Receipt extraction completed successfully")
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *ReceiptHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "RECEIPT_EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}

// isValidMimeType checks if the MIME type is supported
func isValidMimeType(mimeType string) bool {
	validTypes := []string{
		"application/pdf",
		"image/png",
		"image/jpeg",
		"image/jpg",
	}

	mimeType = strings.ToLower(mimeType)
	for _, valid := range validTypes {
		if strings.Contains(mimeType, valid) {
			return true
		}
	}
	return false
}

// inferMimeType infers MIME type from file extension
func inferMimeType(filename string) string {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".pdf") {
		return "application/pdf"
	} else if strings.HasSuffix(lower, ".png") {
		return "image/png"
	} else if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return "image/jpeg"
	}
	return ""
}
