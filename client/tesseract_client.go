package client

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// receiptWhitelist restricts recognition to the characters that actually
// appear on printed receipts: digits, Latin letters, currency glyphs and a
// little punctuation. Everything else is noise the extraction cascade
// would otherwise have to fight.
const receiptWhitelist = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"₹$€£:/.,- "

type TesseractClient struct {
	dataPath string
}

func NewTesseractClient(dataPath string) *TesseractClient {
	return &TesseractClient{
		dataPath: dataPath,
	}
}

// ExtractTextAndQuality runs Tesseract over a normalized receipt bitmap and
// returns the raw text plus the average word confidence.
func (tc *TesseractClient) ExtractTextAndQuality(img image.Image) (string, float64, error) {
	tempFile, err := os.CreateTemp("", "receipt-*.png")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()
	defer os.Remove(tempPath)

	if err := imaging.Save(img, tempPath); err != nil {
		return "", 0, fmt.Errorf("failed to save temp image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage("eng"); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetWhitelist(receiptWhitelist); err != nil {
		return "", 0, fmt.Errorf("failed to set whitelist: %w", err)
	}
	// Receipts are sparse columns of short lines, not dense paragraphs.
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return "", 0, fmt.Errorf("failed to set page seg mode: %w", err)
	}

	if err := client.SetImage(tempPath); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Confidence is advisory; the text alone is still usable.
		return text, 0, nil
	}

	var totalConf float64
	for _, box := range boxes {
		totalConf += box.Confidence
	}

	avgConf := 0.0
	if len(boxes) > 0 {
		avgConf = totalConf / float64(len(boxes))
	}

	return text, avgConf, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	log.Println("Tesseract client closed")
}
