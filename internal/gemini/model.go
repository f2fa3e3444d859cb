package gemini

// Gemini model IDs used by the retouch operations.
//
// | Model Name             | API Model ID           | Use Case                          |
// |------------------------|------------------------|-----------------------------------|
// | Gemini 2.5 Flash Image | gemini-2.5-flash-image | Image editing (enhance, transfer) |
// | Gemini 2.5 Flash       | gemini-2.5-flash       | Structured JSON (palette, advice) |
const (
	// ModelGemini25FlashImage edits images and returns inline image parts.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini25Flash is stable and supports response schemas.
	ModelGemini25Flash = "gemini-2.5-flash"
)

// Defaults applied by NewClient when Options leaves a field empty.
const (
	DefaultImageModel      = ModelGemini25FlashImage
	DefaultJSONModel       = ModelGemini25Flash
	DefaultPaletteLanguage = "Italian"
)
