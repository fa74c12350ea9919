package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidImage  = errors.New("invalid image data")
	ErrTooLarge      = errors.New("image exceeds size limit")
	ErrNotConfigured = errors.New("media storage is not configured")
)

// IsDataURI reports whether s looks like an inline image payload.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:image")
}

// ParseDataURI decodes "data:image/<type>;base64,<payload>".
// maxBytes bounds the decoded size; zero disables the check.
func ParseDataURI(s string, maxBytes int) (string, []byte, error) {
	s = strings.TrimSpace(s)
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return "", nil, fmt.Errorf("%w: not a data URI", ErrInvalidImage)
	}

	meta := strings.TrimPrefix(header, "data:")
	mime, params, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(mime, "image/") {
		return "", nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, mime)
	}
	if !strings.Contains(params, "base64") {
		return "", nil, fmt.Errorf("%w: payload must be base64 encoded", ErrInvalidImage)
	}

	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return "", nil, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return "", nil, ErrTooLarge
	}

	return mime, data, nil
}
