package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// Info describes an accepted upload. Camera fields come from EXIF and are
// empty when the file carries none.
type Info struct {
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Format      string    `json:"format"`
	CameraMake  string    `json:"cameraMake,omitempty"`
	CameraModel string    `json:"cameraModel,omitempty"`
	DateTaken   time.Time `json:"dateTaken,omitzero"`
}

// Inspect decodes the image header and, best-effort, its EXIF block.
// A header that cannot be decoded is an error; missing EXIF is not.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	info := Info{Width: cfg.Width, Height: cfg.Height, Format: format}

	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("format", format).Msg("No EXIF metadata in upload")
		return info, nil
	}

	info.CameraMake = strings.TrimSpace(exifData.Make)
	info.CameraModel = strings.TrimSpace(exifData.Model)
	if t := exifData.DateTimeOriginal(); !t.IsZero() {
		info.DateTaken = t
	} else if t := exifData.CreateDate(); !t.IsZero() {
		info.DateTaken = t
	}

	log.Debug().
		Int("width", info.Width).
		Int("height", info.Height).
		Str("format", format).
		Str("camera", strings.TrimSpace(info.CameraMake+" "+info.CameraModel)).
		Msg("Upload inspected")

	return info, nil
}
