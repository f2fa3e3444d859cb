package wizard

import (
	"fmt"
	"sync"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/rs/zerolog/log"
)

// previewed is an accepted upload with its preview handle. Close releases
// the handle exactly once; later calls are no-ops.
type previewed struct {
	image   gemini.Image
	info    imaging.Info
	preview Handle

	table     *HandleTable
	closeOnce sync.Once
}

// decoded is a validated upload with its preview bytes, not yet holding a
// handle. Building one is the expensive part of accepting an upload and
// needs no session state.
type decoded struct {
	image       gemini.Image
	info        imaging.Info
	previewData []byte
	previewMIME string
}

// decodeUpload validates u, checks its declared pixel count and renders
// its preview.
func decodeUpload(u imaging.Upload, maxDimension int) (*decoded, error) {
	if err := imaging.Validate(u); err != nil {
		return nil, err
	}
	mimeType := imaging.NormalizeMIMEType(u.MIMEType)

	info, err := imaging.Inspect(u.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	if err := imaging.CheckPixels(info); err != nil {
		return nil, err
	}

	previewData, previewMIME, err := imaging.Preview(u.Data, mimeType, maxDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return &decoded{
		image:       gemini.Image{Data: u.Data, MIMEType: mimeType},
		info:        info,
		previewData: previewData,
		previewMIME: previewMIME,
	}, nil
}

// register stores the preview in table.
func (d *decoded) register(table *HandleTable) (*previewed, error) {
	h, err := table.Acquire(d.previewData, d.previewMIME)
	if err != nil {
		return nil, err
	}
	return &previewed{
		image:   d.image,
		info:    d.info,
		preview: h,
		table:   table,
	}, nil
}

// Close releases the preview handle.
func (p *previewed) Close() {
	if p == nil {
		return
	}
	p.closeOnce.Do(func() {
		if err := p.table.Release(p.preview); err != nil {
			log.Warn().Err(err).Str("handle", string(p.preview)).Msg("Preview handle already released")
		}
	})
}

// WorkingImage is the photo being retouched, with the remote results derived
// from it. Results are data URIs from the model and hold no handles.
type WorkingImage struct {
	*previewed
	Enhanced string
	Final    string
}

// ReferenceImage is the palette source used during harmonization.
type ReferenceImage struct {
	*previewed
}

// ImageView is the read-only form of an image in a Snapshot.
type ImageView struct {
	Preview  Handle       `json:"preview"`
	MIMEType string       `json:"mimeType"`
	Size     int          `json:"size"`
	Info     imaging.Info `json:"info"`
	Enhanced string       `json:"enhanced,omitempty"`
	Final    string       `json:"final,omitempty"`
}

func (w *WorkingImage) view() *ImageView {
	if w == nil {
		return nil
	}
	return &ImageView{
		Preview:  w.preview,
		MIMEType: w.image.MIMEType,
		Size:     len(w.image.Data),
		Info:     w.info,
		Enhanced: w.Enhanced,
		Final:    w.Final,
	}
}

func (r *ReferenceImage) view() *ImageView {
	if r == nil {
		return nil
	}
	return &ImageView{
		Preview:  r.preview,
		MIMEType: r.image.MIMEType,
		Size:     len(r.image.Data),
		Info:     r.info,
	}
}
