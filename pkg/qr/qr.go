package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PNG renders url as a QR code PNG of size×size pixels.
func PNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
