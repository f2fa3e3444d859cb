// Package gemini implements the four remote retouch operations over the
// Gemini API: dodge and burn enhancement, palette extraction, color
// transfer and intensity suggestion. Prompts are built locally; all image
// work happens in the model.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/retouch-studio/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of the genai Models service the operations
// call. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenAIClient creates a Gemini API client for apiKey.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	ImageModel      string
	JSONModel       string
	PaletteLanguage string
	// RequestsPerMinute caps outbound calls; zero or less disables the cap.
	RequestsPerMinute int
	// Timeout bounds each call, including time spent waiting on the limiter.
	Timeout time.Duration
}

// Client runs the remote operations. It is safe for concurrent use.
type Client struct {
	gen     ContentGenerator
	opts    Options
	limiter *rate.Limiter
}

// NewClient wraps gen with the given options.
func NewClient(gen ContentGenerator, opts Options) *Client {
	if opts.ImageModel == "" {
		opts.ImageModel = DefaultImageModel
	}
	if opts.JSONModel == "" {
		opts.JSONModel = DefaultJSONModel
	}
	if opts.PaletteLanguage == "" {
		opts.PaletteLanguage = DefaultPaletteLanguage
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), opts.RequestsPerMinute)
	}

	return &Client{gen: gen, opts: opts, limiter: limiter}
}

// Options returns the effective options.
func (c *Client) Options() Options {
	return c.opts
}

// Enhance applies a dodge and burn retouch and returns the result as a data URI.
func (c *Client) Enhance(ctx context.Context, img Image, params RetouchParameters) (string, error) {
	var uri string
	err := c.call(ctx, OpEnhance, c.opts.ImageModel, img, BuildRetouchPrompt(params), imageConfig(),
		func(resp *genai.GenerateContentResponse) error {
			var err error
			uri, err = ExtractImage(resp)
			return err
		})
	return uri, err
}

// ExtractPalette asks for count dominant colors of img.
func (c *Client) ExtractPalette(ctx context.Context, img Image, count int) (ColorPalette, error) {
	if count < MinPaletteSize || count > MaxPaletteSize {
		return ColorPalette{}, &ParameterError{Field: "count", Value: fmt.Sprint(count)}
	}

	var palette ColorPalette
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   paletteSchema(c.opts.PaletteLanguage),
	}
	err := c.call(ctx, OpExtract, c.opts.JSONModel, img, BuildPaletteExtractionPrompt(count, c.opts.PaletteLanguage), cfg,
		func(resp *genai.GenerateContentResponse) error {
			text, err := jsonText(resp)
			if err != nil {
				return err
			}
			palette, err = ValidatePaletteResponse(text, count)
			return err
		})
	return palette, err
}

// TransferColors re-grades img toward colors and returns a data URI.
func (c *Client) TransferColors(ctx context.Context, img Image, colors []ExtractedColor) (string, error) {
	if len(colors) == 0 {
		return "", &RemoteOperationError{Op: OpTransfer, Cause: ErrNoColors}
	}

	var uri string
	err := c.call(ctx, OpTransfer, c.opts.ImageModel, img, BuildColorTransferPrompt(colors), imageConfig(),
		func(resp *genai.GenerateContentResponse) error {
			var err error
			uri, err = ExtractImage(resp)
			return err
		})
	return uri, err
}

// Suggest recommends dodge and burn intensities for img.
func (c *Client) Suggest(ctx context.Context, img Image, guidance string) (Suggestion, error) {
	var s Suggestion
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema(),
	}
	err := c.call(ctx, OpSuggest, c.opts.JSONModel, img, BuildSuggestionPrompt(guidance), cfg,
		func(resp *genai.GenerateContentResponse) error {
			text, err := jsonText(resp)
			if err != nil {
				return err
			}
			s, err = ParseSuggestion(text)
			return err
		})
	return s, err
}

// call sends img and prompt to model and hands the response to handle.
// Every failure comes back as a *RemoteOperationError.
func (c *Client) call(ctx context.Context, op Operation, model string, img Image, prompt string,
	cfg *genai.GenerateContentConfig, handle func(*genai.GenerateContentResponse) error) error {

	rec := metrics.New(metrics.Namespace).
		Dimension("Operation", string(op)).
		Property("model", model).
		Metric("InputBytes", float64(len(img.Data)), metrics.UnitBytes)

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	err := c.generate(ctx, op, model, img, prompt, cfg, handle)

	rec.Dimension("Result", resultLabel(err)).
		Elapsed("RemoteOperationMs").
		Count("RemoteOperation").
		Flush()

	if err != nil {
		return &RemoteOperationError{Op: op, Cause: err}
	}
	return nil
}

func (c *Client) generate(ctx context.Context, op Operation, model string, img Image, prompt string,
	cfg *genai.GenerateContentConfig, handle func(*genai.GenerateContentResponse) error) error {

	if err := c.limiter.Wait(ctx); err != nil {
		log.Warn().Err(err).Str("operation", string(op)).Msg("Rate limiter wait aborted")
		return &TransportError{Err: err}
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	log.Info().
		Str("operation", string(op)).
		Str("model", model).
		Int("image_bytes", len(img.Data)).
		Str("image_mime", img.MIMEType).
		Int("prompt_length", len(prompt)).
		Msg("Sending request to Gemini")

	start := time.Now()
	resp, err := c.gen.GenerateContent(ctx, model, contents, cfg)
	duration := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("operation", string(op)).Dur("duration", duration).Msg("Gemini call failed")
		return newTransportError(err)
	}

	if err := handle(resp); err != nil {
		log.Warn().Err(err).Str("operation", string(op)).Dur("duration", duration).Msg("Gemini response unusable")
		return err
	}

	log.Info().Str("operation", string(op)).Dur("duration", duration).Msg("Gemini operation complete")
	return nil
}

// jsonText returns the response text of a JSON-mode call. A response with no
// text is reported with the same causes an image call would use.
func jsonText(resp *genai.GenerateContentResponse) (string, error) {
	d := Decode(resp)
	if d.Text == "" {
		return "", d.Failure()
	}
	return d.Text, nil
}

func imageConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
}

func paletteSchema(language string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"colors": {
				Type:        genai.TypeArray,
				Description: "An array of the extracted colors.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"hex":      {Type: genai.TypeString, Description: "The color in hexadecimal format (e.g., '#RRGGBB')."},
						"name":     {Type: genai.TypeString, Description: "A creative name for the color, in " + language + "."},
						"semantic": {Type: genai.TypeString, Description: "A brief semantic description of the color's role in the image, in " + language + "."},
					},
					Required:         []string{"hex", "name", "semantic"},
					PropertyOrdering: []string{"hex", "name", "semantic"},
				},
			},
		},
		Required: []string{"colors"},
	}
}

func suggestionSchema() *genai.Schema {
	lo, hi := float64(MinIntensity), float64(MaxIntensity)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"dodge":     {Type: genai.TypeInteger, Minimum: &lo, Maximum: &hi, Description: "How much to brighten highlights, 0-100."},
			"burn":      {Type: genai.TypeInteger, Minimum: &lo, Maximum: &hi, Description: "How much to darken shadows, 0-100."},
			"rationale": {Type: genai.TypeString, Description: "One short sentence explaining the recommendation."},
		},
		Required:         []string{"dodge", "burn"},
		PropertyOrdering: []string{"dodge", "burn", "rationale"},
	}
}
