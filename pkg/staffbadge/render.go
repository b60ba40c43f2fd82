package staffbadge

import (
	"encoding/base64"
	"errors"

	skipqrcode "github.com/skip2/go-qrcode"
)

const defaultBadgeSize = 256

// renderQR encodes content as a PNG QR code of size x size pixels.
func renderQR(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultBadgeSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrRenderBadge, err)
	}
	return png, nil
}

// DataURI returns the badge image as an inline data URI for printing
// templates. It returns "" when the badge has no image.
func (b *Badge) DataURI() string {
	if len(b.QR) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b.QR)
}
