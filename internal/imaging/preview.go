package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultPreviewMaxDimension bounds the longest side of a preview.
const DefaultPreviewMaxDimension = 1024

// previewQuality is the JPEG quality used for down-scaled previews.
const previewQuality = 85

// Preview returns display bytes for an upload. Images already within
// maxDimension are returned unchanged; larger ones are scaled with
// Catmull-Rom and re-encoded as JPEG. Images over MaxPixels are rejected
// with a ValidationError before decoding.
func Preview(data []byte, mimeType string, maxDimension int) ([]byte, string, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultPreviewMaxDimension
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if err := CheckPixels(Info{Width: cfg.Width, Height: cfg.Height}); err != nil {
		return nil, "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDimension && height <= maxDimension {
		return data, mimeType, nil
	}

	newWidth, newHeight := scaledDimensions(width, height, maxDimension)
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode preview: %w", err)
	}

	log.Debug().
		Int("orig_width", width).
		Int("orig_height", height).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Preview generated")

	return buf.Bytes(), "image/jpeg", nil
}

// scaledDimensions fits width x height inside a maxDimension square,
// preserving aspect ratio and never returning a zero side.
func scaledDimensions(width, height, maxDimension int) (int, int) {
	if width >= height {
		h := height * maxDimension / width
		return maxDimension, max(h, 1)
	}
	w := width * maxDimension / height
	return max(w, 1), maxDimension
}
