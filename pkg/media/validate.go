package media

import (
	"bytes"
	"fmt"
)

// Magic byte signatures for allowed image types
var magicBytes = map[string][][]byte{
	"image/jpeg": {{0xFF, 0xD8, 0xFF}},
	"image/png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"image/gif":  {{0x47, 0x49, 0x46, 0x38, 0x37, 0x61}, {0x47, 0x49, 0x46, 0x38, 0x39, 0x61}}, // GIF87a & GIF89a
	"image/webp": {{0x52, 0x49, 0x46, 0x46}},                                                   // RIFF header
}

// DetectImageType returns the MIME type implied by the content's magic bytes.
// The declared type is only a hint; content wins.
func DetectImageType(data []byte) (string, error) {
	if len(data) < 12 {
		return "", fmt.Errorf("%w: file too small", ErrInvalidImage)
	}
	for mime, signatures := range magicBytes {
		for _, sig := range signatures {
			if !bytes.HasPrefix(data, sig) {
				continue
			}
			if mime == "image/webp" && !bytes.Equal(data[8:12], []byte("WEBP")) {
				continue
			}
			return mime, nil
		}
	}
	return "", fmt.Errorf("%w: content is not a jpeg, png, gif or webp image", ErrInvalidImage)
}
