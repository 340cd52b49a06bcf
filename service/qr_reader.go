package service

import (
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// decodeQRLines tries to read a QR code printed on the receipt. UPI payment
// QRs encode the paid amount in their am= field, which is a far stronger
// signal than anything OCR produces. The decoded payload is split into
// lines the extraction cascade can scan like OCR output.
func decodeQRLines(img image.Image) []string {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		// Most receipts carry no QR code; this is the common path.
		return nil
	}

	return splitQRPayload(result.GetText())
}

// splitQRPayload breaks a payload like
// "upi://pay?pa=merchant@bank&am=450.00&tn=lunch" into one line per field.
func splitQRPayload(payload string) []string {
	payload = strings.NewReplacer("?", "\n", "&", "\n").Replace(payload)

	var lines []string
	for _, l := range strings.Split(payload, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
