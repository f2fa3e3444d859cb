package gemini

import (
	"fmt"
	"strings"
)

// imageOnlyRule closes every image-producing prompt.
const imageOnlyRule = "**Critical Rule: Your output MUST be the processed image ONLY. Do not output any text, JSON, or explanation. Just the image.**"

const defaultGuidance = "Use your expert artistic judgment to naturally enhance the image, guiding the viewer's eye and improving the overall mood."

var styleDescriptions = map[LightingStyle]string{
	StyleStandard:     "Applies a balanced enhancement to naturally increase dimensionality.",
	StyleCinematic:    "Emulates cinematic lighting with high contrast and deep shadows for a dramatic look.",
	StyleRembrandt:    "Creates a classic Rembrandt-style portrait with a triangle of light on the cheek to add dimensionality.",
	StyleSoftContrast: "Applies a dreamy and ethereal look with soft transitions between light and shadow.",
	StyleDramatic:     "Uses strong chiaroscuro for a bold image, pushing highlights and shadows to their extremes.",
}

// StyleDescription returns the one-sentence treatment for style, falling
// back to the Standard description for unknown values.
func StyleDescription(style LightingStyle) string {
	if d, ok := styleDescriptions[style]; ok {
		return d
	}
	return styleDescriptions[StyleStandard]
}

// IntensityWord maps a 0-100 intensity to its qualitative band.
func IntensityWord(v int) string {
	switch {
	case v < 20:
		return "very subtle"
	case v < 40:
		return "subtle"
	case v < 60:
		return "moderate"
	case v < 80:
		return "strong"
	default:
		return "very strong"
	}
}

// BuildRetouchPrompt renders the dodge and burn instruction for p.
func BuildRetouchPrompt(p RetouchParameters) string {
	var sb strings.Builder
	sb.WriteString(`You are a world-class photo retoucher. Your task is to perform a non-destructive "Dodge & Burn" enhancement on the provided image to increase its dimensionality and impact.`)
	sb.WriteString("\n\n")
	sb.WriteString("- **Objective:** Apply dodging (brightening highlights) and burning (darkening shadows) based on the following creative direction.\n")
	fmt.Fprintf(&sb, "- **Dodge Intensity:** %s\n", IntensityWord(p.Dodge))
	fmt.Fprintf(&sb, "- **Burn Intensity:** %s\n", IntensityWord(p.Burn))
	fmt.Fprintf(&sb, "- **Lighting Style:** %s. (%s)\n", p.Style.DisplayName(), StyleDescription(p.Style))
	if g := strings.TrimSpace(p.Guidance); g != "" {
		fmt.Fprintf(&sb, "- **User Guidance:** \"%s\"\n", g)
	} else {
		fmt.Fprintf(&sb, "- **User Guidance:** %s\n", defaultGuidance)
	}
	sb.WriteString("\n")
	sb.WriteString(imageOnlyRule)
	return sb.String()
}

// BuildPaletteExtractionPrompt asks for exactly count dominant colors with
// names and semantics written in language.
func BuildPaletteExtractionPrompt(count int, language string) string {
	if language == "" {
		language = DefaultPaletteLanguage
	}
	return fmt.Sprintf("Analyze this reference image and identify the %d most dominant and representative colors that define its overall mood and aesthetic. "+
		"For each color, provide its HEX code, a creative name, and a brief semantic description. "+
		"IMPORTANT: The 'name' and 'semantic' fields in the JSON response MUST be in %s.", count, language)
}

// BuildColorTransferPrompt asks for a professional re-grade toward colors.
func BuildColorTransferPrompt(colors []ExtractedColor) string {
	lines := make([]string, 0, len(colors))
	for _, c := range colors {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", c.Name, c.Hex, c.Semantic))
	}

	var sb strings.Builder
	sb.WriteString("You are an expert colorist. Your task is to creatively re-grade the provided image to match the mood of a specific color palette.\n\n")
	sb.WriteString("- **Source Image:** The user has provided an image that has already been retouched for light and shadow.\n")
	sb.WriteString("- **Target Palette:** Harmonize the image's colors with the following palette:\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
	sb.WriteString("- **Objective:** The final image should feel as if it belongs to the same world as the reference palette. " +
		"Adjust midtones, highlights, and shadows subtly to incorporate these colors. " +
		"Do not just tint the image; perform a professional-grade color transfer.\n\n")
	sb.WriteString(imageOnlyRule)
	return sb.String()
}

// BuildSuggestionPrompt asks for recommended dodge and burn intensities.
func BuildSuggestionPrompt(guidance string) string {
	var sb strings.Builder
	sb.WriteString("You are a world-class photo retoucher. Study the provided image and recommend how strongly to apply a \"Dodge & Burn\" enhancement to increase its dimensionality.\n\n")
	sb.WriteString("- **dodge:** integer from 0 to 100, how much to brighten highlights.\n")
	sb.WriteString("- **burn:** integer from 0 to 100, how much to darken shadows.\n")
	sb.WriteString("- **rationale:** one short sentence explaining the recommendation.\n")
	if g := strings.TrimSpace(guidance); g != "" {
		fmt.Fprintf(&sb, "- **User Guidance:** \"%s\"\n", g)
	}
	sb.WriteString("\nRespond with JSON only.")
	return sb.String()
}
