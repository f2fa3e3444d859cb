package gemini

import (
	"fmt"
	"strings"
)

// LightingStyle is the named lighting treatment applied during retouching.
type LightingStyle string

const (
	StyleStandard     LightingStyle = "Standard"
	StyleCinematic    LightingStyle = "Cinematic"
	StyleRembrandt    LightingStyle = "Rembrandt"
	StyleSoftContrast LightingStyle = "SoftContrast"
	StyleDramatic     LightingStyle = "Dramatic"
)

// LightingStyles lists every style in display order.
var LightingStyles = []LightingStyle{
	StyleStandard,
	StyleCinematic,
	StyleRembrandt,
	StyleSoftContrast,
	StyleDramatic,
}

// styleAliases maps lowercased display labels, including the Italian ones
// shown by the web front-end, to their style.
var styleAliases = map[string]LightingStyle{
	"standard":          StyleStandard,
	"cinematic":         StyleCinematic,
	"cinematico":        StyleCinematic,
	"rembrandt":         StyleRembrandt,
	"softcontrast":      StyleSoftContrast,
	"soft contrast":     StyleSoftContrast,
	"contrasto morbido": StyleSoftContrast,
	"dramatic":          StyleDramatic,
	"drammatico":        StyleDramatic,
}

// ParseLightingStyle resolves a style name or label, case-insensitively.
func ParseLightingStyle(s string) (LightingStyle, error) {
	if style, ok := styleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return style, nil
	}
	return "", &ParameterError{Field: "lightingStyle", Value: s}
}

// DisplayName returns the human-readable style name used in prompts.
func (s LightingStyle) DisplayName() string {
	if s == StyleSoftContrast {
		return "Soft Contrast"
	}
	return string(s)
}

// Intensity bounds for dodge and burn.
const (
	MinIntensity = 0
	MaxIntensity = 100
)

// RetouchParameters are the user's creative settings for one retouch.
type RetouchParameters struct {
	Dodge    int           `json:"dodge"`
	Burn     int           `json:"burn"`
	Style    LightingStyle `json:"lightingStyle"`
	Guidance string        `json:"creativeGuidance"`
}

// DefaultParameters returns 50/50, Standard, no guidance.
func DefaultParameters() RetouchParameters {
	return RetouchParameters{Dodge: 50, Burn: 50, Style: StyleStandard}
}

// Validate checks intensity ranges and the lighting style.
func (p RetouchParameters) Validate() error {
	if p.Dodge < MinIntensity || p.Dodge > MaxIntensity {
		return &ParameterError{Field: "dodge", Value: fmt.Sprint(p.Dodge)}
	}
	if p.Burn < MinIntensity || p.Burn > MaxIntensity {
		return &ParameterError{Field: "burn", Value: fmt.Sprint(p.Burn)}
	}
	if _, err := ParseLightingStyle(string(p.Style)); err != nil {
		return err
	}
	return nil
}

// Palette size bounds offered by the extraction slider.
const (
	MinPaletteSize     = 4
	MaxPaletteSize     = 16
	DefaultPaletteSize = 8
)

// ExtractedColor is one palette entry as described by the model.
type ExtractedColor struct {
	Hex      string `json:"hex"`
	Name     string `json:"name"`
	Semantic string `json:"semantic"`
}

// ColorPalette is the ordered result of a palette extraction.
type ColorPalette struct {
	Colors []ExtractedColor `json:"colors"`
}

// Suggestion is a recommended dodge/burn pair.
type Suggestion struct {
	Dodge     int    `json:"dodge"`
	Burn      int    `json:"burn"`
	Rationale string `json:"rationale,omitempty"`
}

// Image is raw image bytes with their MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// ParameterError reports a rejected parameter value.
type ParameterError struct {
	Field string
	Value string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
