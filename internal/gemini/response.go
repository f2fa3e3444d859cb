package gemini

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/fpang/retouch-studio/internal/jsonutil"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ResponseKind classifies a decoded model response.
type ResponseKind int

const (
	KindEmpty ResponseKind = iota
	KindTextOnly
	KindImage
)

func (k ResponseKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindTextOnly:
		return "text_only"
	default:
		return "empty"
	}
}

// Decoded is a model response reduced to what the operations need. Image is
// set only for KindImage. BlockReason and FinishReason are empty when the
// API reported none or an unspecified value.
type Decoded struct {
	Kind         ResponseKind
	Image        Image
	Text         string
	BlockReason  string
	FinishReason string
}

// Decode walks the first candidate once. The first part with an image/ MIME
// type and non-empty data wins, even when text parts precede it. Thought
// parts never contribute text.
func Decode(resp *genai.GenerateContentResponse) Decoded {
	var d Decoded
	if resp == nil {
		return d
	}

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != genai.BlockedReasonUnspecified {
		d.BlockReason = string(pf.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return d
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonUnspecified {
		d.FinishReason = string(cand.FinishReason)
	}
	if cand.Content == nil {
		return d
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if d.Kind != KindImage && part.InlineData != nil &&
			strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0 {
			d.Kind = KindImage
			d.Image = Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	d.Text = strings.TrimSpace(text.String())

	if d.Kind != KindImage && d.Text != "" {
		d.Kind = KindTextOnly
	}
	return d
}

// Failure explains why d holds no image. Exactly one cause is chosen, in
// order: block reason, non-STOP finish, model text, generic empty.
func (d Decoded) Failure() *GenerationFailure {
	switch {
	case d.BlockReason != "":
		return &GenerationFailure{Cause: CauseBlocked, Detail: d.BlockReason}
	case d.FinishReason != "" && d.FinishReason != string(genai.FinishReasonStop):
		return &GenerationFailure{Cause: CauseAbnormalFinish, Detail: d.FinishReason}
	case d.Text != "":
		return &GenerationFailure{Cause: CauseTextOnly, Detail: d.Text}
	default:
		return &GenerationFailure{Cause: CauseEmpty}
	}
}

// ExtractImage returns the first inline image in resp as a data URI, or a
// *GenerationFailure.
func ExtractImage(resp *genai.GenerateContentResponse) (string, error) {
	d := Decode(resp)
	if d.Kind != KindImage {
		return "", d.Failure()
	}
	return imaging.EncodeDataURI(d.Image.MIMEType, d.Image.Data), nil
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type paletteEnvelope struct {
	Colors json.RawMessage `json:"colors"`
}

// ValidatePaletteResponse parses a palette JSON document. The top level must
// be an object whose colors field is an array. A count different from
// expectedCount or a malformed hex code is logged but accepted.
func ValidatePaletteResponse(jsonText string, expectedCount int) (ColorPalette, error) {
	env, err := jsonutil.ParseJSON[paletteEnvelope](jsonText)
	if err != nil {
		return ColorPalette{}, &ParseFailure{Reason: "palette is not a JSON object", Err: err}
	}

	raw := bytes.TrimSpace(env.Colors)
	if len(raw) == 0 || raw[0] != '[' {
		return ColorPalette{}, &ParseFailure{Reason: "response has no colors array"}
	}

	var colors []ExtractedColor
	if err := json.Unmarshal(raw, &colors); err != nil {
		return ColorPalette{}, &ParseFailure{Reason: "colors array has invalid entries", Err: err}
	}

	if expectedCount > 0 && len(colors) != expectedCount {
		log.Warn().
			Int("expected", expectedCount).
			Int("received", len(colors)).
			Msg("Palette size differs from request")
	}
	for i, c := range colors {
		if !hexColorPattern.MatchString(c.Hex) {
			log.Warn().Int("index", i).Str("hex", c.Hex).Msg("Palette color has malformed hex code")
		}
	}

	return ColorPalette{Colors: colors}, nil
}

type suggestionEnvelope struct {
	Dodge     *float64 `json:"dodge"`
	Burn      *float64 `json:"burn"`
	Rationale string   `json:"rationale"`
}

// ParseSuggestion parses a dodge/burn suggestion. Both numbers are required;
// they are rounded and clamped to the intensity range.
func ParseSuggestion(jsonText string) (Suggestion, error) {
	env, err := jsonutil.ParseJSON[suggestionEnvelope](jsonText)
	if err != nil {
		return Suggestion{}, &ParseFailure{Reason: "suggestion is not a JSON object", Err: err}
	}
	if env.Dodge == nil || env.Burn == nil {
		return Suggestion{}, &ParseFailure{Reason: "suggestion is missing dodge or burn"}
	}
	return Suggestion{
		Dodge:     clampIntensity(*env.Dodge),
		Burn:      clampIntensity(*env.Burn),
		Rationale: strings.TrimSpace(env.Rationale),
	}, nil
}

func clampIntensity(v float64) int {
	n := int(math.Round(v))
	return min(max(n, MinIntensity), MaxIntensity)
}
