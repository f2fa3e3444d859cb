package main

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/fpang/retouch-studio/internal/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 4.4.5).
const zipMethodZstd uint16 = 93

type archiveEntry struct {
	name     string
	mimeType string
	data     []byte
}

type manifest struct {
	Session    string                   `json:"session"`
	Created    time.Time                `json:"created"`
	Step       wizard.Step              `json:"step"`
	Parameters gemini.RetouchParameters `json:"parameters"`
	Palette    []gemini.ExtractedColor  `json:"palette,omitempty"`
	Selection  []gemini.ExtractedColor  `json:"selection,omitempty"`
	Files      []string                 `json:"files"`
}

// handleDownload streams a ZIP of the working image and its results, with a
// JSON manifest of the settings that produced them.
func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := sessionFrom(r)
	original, ok := sess.Original()
	if !ok {
		respondError(w, r, wizard.ErrNoImage)
		return
	}
	snap := sess.Snapshot()
	if snap.Image == nil {
		respondError(w, r, wizard.ErrNoImage)
		return
	}

	entries := []archiveEntry{{name: "original" + extensionFor(original.MIMEType), mimeType: original.MIMEType, data: original.Data}}
	for _, result := range []struct{ base, uri string }{
		{"enhanced", snap.Image.Enhanced},
		{"final", snap.Image.Final},
	} {
		if result.uri == "" {
			continue
		}
		mimeType, data, err := imaging.ParseDataURI(result.uri)
		if err != nil {
			log.Warn().Err(err).Str("session_id", id).Str("file", result.base).Msg("Skipping unparsable result")
			continue
		}
		entries = append(entries, archiveEntry{name: result.base + extensionFor(mimeType), mimeType: mimeType, data: data})
	}

	m := manifest{
		Session:    id,
		Created:    time.Now().UTC(),
		Step:       snap.Step,
		Parameters: snap.Parameters,
		Palette:    snap.Palette,
		Selection:  snap.Selection,
	}
	for _, e := range entries {
		m.Files = append(m.Files, e.name)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="retouch-%s.zip"`, id))
	n, err := writeArchive(w, entries, m)
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("Failed to write archive")
		return
	}
	log.Info().Str("session_id", id).Int("files", len(entries)).Int64("bytes", n).Msg("Archive downloaded")
}

// writeArchive stores images uncompressed since they are already compressed,
// and compresses the manifest with zstd.
func writeArchive(w io.Writer, entries []archiveEntry, m manifest) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zipMethodZstd, func(out io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})

	for _, e := range entries {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store, Modified: m.Created})
		if err != nil {
			return cw.n, fmt.Errorf("failed to create %s: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", e.name, err)
		}
	}

	f, err := zw.CreateHeader(&zip.FileHeader{Name: "manifest.json", Method: zipMethodZstd, Modified: m.Created})
	if err != nil {
		return cw.n, fmt.Errorf("failed to create manifest: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return cw.n, fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return cw.n, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
