package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/fpang/retouch-studio/internal/wizard"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// toolset runs the remote operations on local files.
type toolset struct {
	remote    wizard.Remote
	outputDir string
	locale    language.Tag
}

type EnhanceInput struct {
	Path     string `json:"path" jsonschema:"path of the photo to retouch"`
	Output   string `json:"output,omitempty" jsonschema:"where to write the result; defaults next to the input"`
	Dodge    *int   `json:"dodge,omitempty" jsonschema:"dodge intensity 0-100, default 50"`
	Burn     *int   `json:"burn,omitempty" jsonschema:"burn intensity 0-100, default 50"`
	Style    string `json:"lightingStyle,omitempty" jsonschema:"Standard, Cinematic, Rembrandt, Soft Contrast or Dramatic"`
	Guidance string `json:"creativeGuidance,omitempty" jsonschema:"free-text direction for the retouch"`
}

type ImageOutput struct {
	Output   string `json:"output"`
	MIMEType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
}

type PaletteInput struct {
	Path  string `json:"path" jsonschema:"path of the reference image"`
	Count int    `json:"count,omitempty" jsonschema:"number of colors 4-16, default 8"`
}

type TransferInput struct {
	Path   string                  `json:"path" jsonschema:"path of the photo to recolor"`
	Output string                  `json:"output,omitempty" jsonschema:"where to write the result; defaults next to the input"`
	Colors []gemini.ExtractedColor `json:"colors" jsonschema:"palette colors to apply, as returned by extract_palette"`
}

type SuggestInput struct {
	Path     string `json:"path" jsonschema:"path of the photo to analyze"`
	Guidance string `json:"creativeGuidance,omitempty" jsonschema:"free-text direction the suggestion should follow"`
}

func (t *toolset) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "enhance_photo",
		Description: "Apply an AI dodge & burn retouch to a photo and write the result to disk.",
	}, t.enhance)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_palette",
		Description: "Extract the dominant colors of a reference image with names and semantic roles.",
	}, t.extractPalette)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transfer_colors",
		Description: "Recolor a photo with a palette while keeping its lighting and composition.",
	}, t.transferColors)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest_dodge_burn",
		Description: "Recommend dodge and burn intensities for a photo.",
	}, t.suggest)
}

func (t *toolset) enhance(ctx context.Context, req *mcp.CallToolRequest, in EnhanceInput) (*mcp.CallToolResult, ImageOutput, error) {
	img, err := t.load(in.Path)
	if err != nil {
		return nil, ImageOutput{}, err
	}

	params := gemini.DefaultParameters()
	if in.Dodge != nil {
		params.Dodge = *in.Dodge
	}
	if in.Burn != nil {
		params.Burn = *in.Burn
	}
	if in.Style != "" {
		style, err := gemini.ParseLightingStyle(in.Style)
		if err != nil {
			return nil, ImageOutput{}, t.describe(err)
		}
		params.Style = style
	}
	params.Guidance = in.Guidance
	if err := params.Validate(); err != nil {
		return nil, ImageOutput{}, t.describe(err)
	}

	uri, err := t.remote.Enhance(ctx, img, params)
	if err != nil {
		return nil, ImageOutput{}, t.describe(err)
	}
	out, err := t.save(uri, in.Output, in.Path, "enhanced")
	return nil, out, err
}

func (t *toolset) extractPalette(ctx context.Context, req *mcp.CallToolRequest, in PaletteInput) (*mcp.CallToolResult, gemini.ColorPalette, error) {
	img, err := t.load(in.Path)
	if err != nil {
		return nil, gemini.ColorPalette{}, err
	}
	count := in.Count
	if count == 0 {
		count = gemini.DefaultPaletteSize
	}
	palette, err := t.remote.ExtractPalette(ctx, img, count)
	if err != nil {
		return nil, gemini.ColorPalette{}, t.describe(err)
	}
	log.Info().Str("path", in.Path).Int("colors", len(palette.Colors)).Msg("Palette extracted")
	return nil, palette, nil
}

func (t *toolset) transferColors(ctx context.Context, req *mcp.CallToolRequest, in TransferInput) (*mcp.CallToolResult, ImageOutput, error) {
	if len(in.Colors) == 0 {
		return nil, ImageOutput{}, t.describe(wizard.ErrEmptySelection)
	}
	img, err := t.load(in.Path)
	if err != nil {
		return nil, ImageOutput{}, err
	}
	uri, err := t.remote.TransferColors(ctx, img, in.Colors)
	if err != nil {
		return nil, ImageOutput{}, t.describe(err)
	}
	out, err := t.save(uri, in.Output, in.Path, "harmonized")
	return nil, out, err
}

func (t *toolset) suggest(ctx context.Context, req *mcp.CallToolRequest, in SuggestInput) (*mcp.CallToolResult, gemini.Suggestion, error) {
	img, err := t.load(in.Path)
	if err != nil {
		return nil, gemini.Suggestion{}, err
	}
	sug, err := t.remote.Suggest(ctx, img, in.Guidance)
	if err != nil {
		return nil, gemini.Suggestion{}, t.describe(err)
	}
	return nil, sug, nil
}

// load reads and validates the image at path.
func (t *toolset) load(path string) (gemini.Image, error) {
	if path == "" {
		return gemini.Image{}, errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return gemini.Image{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	u := imaging.Upload{
		Filename: filepath.Base(path),
		MIMEType: mimeFromExtension(path),
		Data:     data,
	}
	if err := imaging.Validate(u); err != nil {
		return gemini.Image{}, t.describe(err)
	}
	return gemini.Image{Data: data, MIMEType: imaging.NormalizeMIMEType(u.MIMEType)}, nil
}

// save writes a data URI result to output, or beside source with suffix.
func (t *toolset) save(uri, output, source, suffix string) (ImageOutput, error) {
	mimeType, data, err := imaging.ParseDataURI(uri)
	if err != nil {
		return ImageOutput{}, t.describe(wizard.ErrUnparsableResult)
	}
	if output == "" {
		output = defaultOutputPath(source, suffix, mimeType, t.outputDir)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return ImageOutput{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return ImageOutput{}, fmt.Errorf("failed to write %s: %w", output, err)
	}
	log.Info().Str("output", output).Str("mime", mimeType).Int("bytes", len(data)).Msg("Result written")
	return ImageOutput{Output: output, MIMEType: mimeType, Bytes: len(data)}, nil
}

// describe localizes err for the tool caller.
func (t *toolset) describe(err error) error {
	return errors.New(wizard.Describe(err, t.locale))
}

func defaultOutputPath(source, suffix, mimeType, dir string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, base+"-"+suffix+extensionFor(mimeType))
}

func mimeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
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
