package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// maxPixels caps the decoded canvas. Decoders allocate width*height up front,
// so the header is checked before any pixel data is read.
const maxPixels = 40_000_000

// compressImage downsizes to fit maxDimension (never upscaling) and re-encodes as JPEG.
func compressImage(data []byte, maxDimension int, quality int) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image header: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit is %d pixels", ErrInvalidImage, format, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image (format: %s): %v", ErrInvalidImage, format, err)
	}

	bounds := img.Bounds()
	newWidth, newHeight := fitWithin(bounds.Dx(), bounds.Dy(), maxDimension)

	// White background so transparent PNG/GIF areas do not turn black in JPEG
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.Draw(resized, resized.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales (w, h) down so the longer side is at most limit, keeping aspect ratio.
func fitWithin(width, height, limit int) (int, int) {
	if limit <= 0 || (width <= limit && height <= limit) {
		return width, height
	}
	if width >= height {
		h := int(float64(height) * float64(limit) / float64(width))
		if h < 1 {
			h = 1
		}
		return limit, h
	}
	w := int(float64(width) * float64(limit) / float64(height))
	if w < 1 {
		w = 1
	}
	return w, limit
}
