package main

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/fpang/retouch-studio/internal/wizard"
	"golang.org/x/text/language"
)

type stubRemote struct {
	uri        string
	palette    gemini.ColorPalette
	suggestion gemini.Suggestion
	lastParams gemini.RetouchParameters
	lastCount  int
	lastColors []gemini.ExtractedColor
}

func (f *stubRemote) Enhance(ctx context.Context, img gemini.Image, p gemini.RetouchParameters) (string, error) {
	f.lastParams = p
	return f.uri, nil
}

func (f *stubRemote) ExtractPalette(ctx context.Context, img gemini.Image, count int) (gemini.ColorPalette, error) {
	f.lastCount = count
	return f.palette, nil
}

func (f *stubRemote) TransferColors(ctx context.Context, img gemini.Image, colors []gemini.ExtractedColor) (string, error) {
	f.lastColors = colors
	return f.uri, nil
}

func (f *stubRemote) Suggest(ctx context.Context, img gemini.Image, guidance string) (gemini.Suggestion, error) {
	return f.suggestion, nil
}

func writeJPEG(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	return path
}

func pngURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return imaging.EncodeDataURI("image/png", buf.Bytes())
}

func intPtr(v int) *int { return &v }

func TestEnhanceWritesResult(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir)
	remote := &stubRemote{uri: pngURI(t)}
	tools := &toolset{remote: remote, locale: language.English}

	_, out, err := tools.enhance(context.Background(), nil, EnhanceInput{
		Path:  path,
		Dodge: intPtr(70),
		Style: "drammatico",
	})
	if err != nil {
		t.Fatalf("enhance() error = %v", err)
	}
	want := filepath.Join(dir, "photo-enhanced.png")
	if out.Output != want || out.MIMEType != "image/png" {
		t.Errorf("output = %+v, want path %s", out, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("result not written: %v", err)
	}
	if remote.lastParams.Dodge != 70 || remote.lastParams.Burn != 50 || remote.lastParams.Style != gemini.StyleDramatic {
		t.Errorf("params = %+v", remote.lastParams)
	}
}

func TestEnhanceRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir)
	tools := &toolset{remote: &stubRemote{uri: pngURI(t)}, locale: language.English}

	tests := []struct {
		name string
		in   EnhanceInput
	}{
		{"missing path", EnhanceInput{}},
		{"missing file", EnhanceInput{Path: filepath.Join(dir, "nope.jpg")}},
		{"unknown style", EnhanceInput{Path: path, Style: "noir"}},
		{"dodge out of range", EnhanceInput{Path: path, Dodge: intPtr(101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tools.enhance(context.Background(), nil, tt.in); err == nil {
				t.Error("enhance() error = nil, want error")
			}
		})
	}
}

func TestUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	os.WriteFile(path, []byte("hello"), 0o644)
	tools := &toolset{remote: &stubRemote{}, locale: language.English}

	if _, _, err := tools.suggest(context.Background(), nil, SuggestInput{Path: path}); err == nil {
		t.Error("suggest() error = nil, want unsupported type error")
	}
}

func TestExtractPaletteDefaultsCount(t *testing.T) {
	path := writeJPEG(t, t.TempDir())
	remote := &stubRemote{palette: gemini.ColorPalette{Colors: []gemini.ExtractedColor{{Hex: "#000000"}}}}
	tools := &toolset{remote: remote, locale: language.English}

	_, palette, err := tools.extractPalette(context.Background(), nil, PaletteInput{Path: path})
	if err != nil {
		t.Fatalf("extractPalette() error = %v", err)
	}
	if remote.lastCount != gemini.DefaultPaletteSize || len(palette.Colors) != 1 {
		t.Errorf("count = %d, colors = %d", remote.lastCount, len(palette.Colors))
	}
}

func TestTransferColors(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir)
	outDir := filepath.Join(dir, "out")
	remote := &stubRemote{uri: pngURI(t)}
	tools := &toolset{remote: remote, outputDir: outDir, locale: language.English}

	if _, _, err := tools.transferColors(context.Background(), nil, TransferInput{Path: path}); err == nil {
		t.Error("transferColors() with no colors: error = nil")
	}

	colors := []gemini.ExtractedColor{{Hex: "#AABBCC", Name: "Mist"}}
	_, out, err := tools.transferColors(context.Background(), nil, TransferInput{Path: path, Colors: colors})
	if err != nil {
		t.Fatalf("transferColors() error = %v", err)
	}
	if want := filepath.Join(outDir, "photo-harmonized.png"); out.Output != want {
		t.Errorf("output = %s, want %s", out.Output, want)
	}
	if len(remote.lastColors) != 1 {
		t.Errorf("colors sent = %v", remote.lastColors)
	}
}

func TestSaveRejectsMalformedResult(t *testing.T) {
	tools := &toolset{locale: language.English}
	if _, err := tools.save("not a data uri", "", "/tmp/photo.jpg", "enhanced"); err == nil {
		t.Error("save() error = nil, want error")
	}
}

func TestDescribeLocalizes(t *testing.T) {
	tests := []struct {
		tag  language.Tag
		want string
	}{
		{language.English, wizard.Describe(wizard.ErrEmptySelection, language.English)},
		{language.Italian, wizard.Describe(wizard.ErrEmptySelection, language.Italian)},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			tools := &toolset{locale: tt.tag}
			if got := tools.describe(wizard.ErrEmptySelection).Error(); got != tt.want {
				t.Errorf("describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
