// Package imaging validates uploaded photographs and prepares the small
// amount of local image data the wizard needs: header inspection, EXIF
// camera details, down-scaled previews and data URI encoding. It never
// edits pixels; all retouching happens in the remote model.
package imaging

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// MaxUploadBytes is the largest accepted upload (20 MiB).
const MaxUploadBytes int64 = 20 << 20

// MaxPixels bounds the declared width x height of an accepted image (50 MP).
const MaxPixels int64 = 50_000_000

// AllowedMIMETypes lists the upload formats the remote model accepts.
var AllowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Upload is a file received from the client, before validation.
type Upload struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Size returns the upload size in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// ValidationReason identifies why an upload was rejected.
type ValidationReason int

const (
	// ReasonEmpty means the upload carried no bytes.
	ReasonEmpty ValidationReason = iota
	// ReasonUnsupportedType means the declared MIME type is not allowed.
	ReasonUnsupportedType
	// ReasonTooLarge means the upload exceeds MaxUploadBytes.
	ReasonTooLarge
	// ReasonContentMismatch means the bytes are not the declared image type.
	ReasonContentMismatch
	// ReasonTooManyPixels means the decoded size would exceed MaxPixels.
	ReasonTooManyPixels
)

func (r ValidationReason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty"
	case ReasonUnsupportedType:
		return "unsupported_type"
	case ReasonTooLarge:
		return "too_large"
	case ReasonContentMismatch:
		return "content_mismatch"
	case ReasonTooManyPixels:
		return "too_many_pixels"
	default:
		return "unknown"
	}
}

// ValidationError is returned for uploads rejected before any remote call.
type ValidationError struct {
	Reason   ValidationReason
	MIMEType string
	Size     int64
	Detected string
	Width    int
	Height   int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "upload is empty"
	case ReasonUnsupportedType:
		return fmt.Sprintf("unsupported file type %q: upload a JPEG, PNG or WEBP image", e.MIMEType)
	case ReasonTooLarge:
		return fmt.Sprintf("file too large: %d bytes exceeds the %d byte limit", e.Size, MaxUploadBytes)
	case ReasonContentMismatch:
		return fmt.Sprintf("file content is %s, not the declared %s", e.Detected, e.MIMEType)
	case ReasonTooManyPixels:
		return fmt.Sprintf("image is %dx%d pixels, over the %d pixel limit", e.Width, e.Height, MaxPixels)
	default:
		return "invalid upload"
	}
}

// NormalizeMIMEType lowercases a declared type, drops parameters and maps
// the common "image/jpg" alias to "image/jpeg".
func NormalizeMIMEType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(declared))
	}
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return "image/jpeg"
	}
	return mt
}

// Validate checks the declared type, then size, then emptiness, and finally
// that the sniffed content matches the declared type.
func Validate(u Upload) error {
	declared := NormalizeMIMEType(u.MIMEType)

	if !AllowedMIMETypes[declared] {
		return &ValidationError{Reason: ReasonUnsupportedType, MIMEType: u.MIMEType, Size: u.Size()}
	}
	if u.Size() > MaxUploadBytes {
		return &ValidationError{Reason: ReasonTooLarge, MIMEType: declared, Size: u.Size()}
	}
	if u.Size() == 0 {
		return &ValidationError{Reason: ReasonEmpty, MIMEType: declared}
	}

	detected := NormalizeMIMEType(http.DetectContentType(u.Data))
	if detected != declared {
		return &ValidationError{Reason: ReasonContentMismatch, MIMEType: declared, Size: u.Size(), Detected: detected}
	}
	return nil
}

// CheckPixels rejects images whose header declares more than MaxPixels.
// It must run before any full decode.
func CheckPixels(info Info) error {
	if int64(info.Width)*int64(info.Height) > MaxPixels {
		return &ValidationError{Reason: ReasonTooManyPixels, Width: info.Width, Height: info.Height}
	}
	return nil
}
