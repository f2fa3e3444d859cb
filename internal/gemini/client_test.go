package gemini

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fpang/retouch-studio/internal/metrics"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	mu     sync.Mutex
	resp   *genai.GenerateContentResponse
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
	parts  []*genai.Part
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.model = model
	f.config = config
	if len(contents) > 0 {
		f.parts = contents[0].Parts
	}
	return f.resp, f.err
}

func (f *fakeGenerator) prompt() string {
	for _, p := range f.parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop, genai.NewPartFromText(text))},
	}
}

func imageResponse(mime string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop, imagePart(mime, data))},
	}
}

var testImage = Image{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"}

func captureMetrics(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	metrics.SetOutput(&buf)
	t.Cleanup(func() { metrics.SetOutput(os.Stdout) })
	return &buf
}

func TestEnhance(t *testing.T) {
	buf := captureMetrics(t)
	gen := &fakeGenerator{resp: imageResponse("image/png", []byte{1, 2, 3})}
	c := NewClient(gen, Options{})

	uri, err := c.Enhance(context.Background(), testImage, RetouchParameters{Dodge: 80, Burn: 20, Style: StyleDramatic})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if uri != "data:image/png;base64,AQID" {
		t.Errorf("Enhance() = %q", uri)
	}
	if gen.model != DefaultImageModel {
		t.Errorf("model = %q, want %q", gen.model, DefaultImageModel)
	}
	if got := gen.config.ResponseModalities; len(got) != 2 || got[0] != "TEXT" || got[1] != "IMAGE" {
		t.Errorf("ResponseModalities = %v", got)
	}
	if len(gen.parts) != 2 || gen.parts[0].InlineData == nil || gen.parts[0].InlineData.MIMEType != "image/jpeg" {
		t.Fatal("request should carry the image part first")
	}
	p := gen.prompt()
	if !strings.Contains(p, "**Dodge Intensity:** very strong") || !strings.Contains(p, "**Burn Intensity:** subtle") {
		t.Errorf("prompt bands wrong:\n%s", p)
	}
	if !strings.Contains(p, "Dramatic") {
		t.Error("prompt should name the Dramatic style")
	}
	if !strings.Contains(buf.String(), `"Result":"success"`) || !strings.Contains(buf.String(), `"Operation":"enhance"`) {
		t.Errorf("metrics line missing dimensions: %s", buf.String())
	}
}

func TestEnhanceBlocked(t *testing.T) {
	captureMetrics(t)
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}}
	c := NewClient(gen, Options{})

	_, err := c.Enhance(context.Background(), testImage, DefaultParameters())
	var opErr *RemoteOperationError
	if !errors.As(err, &opErr) || opErr.Op != OpEnhance {
		t.Fatalf("error = %v, want RemoteOperationError for enhance", err)
	}
	var genErr *GenerationFailure
	if !errors.As(err, &genErr) || genErr.Cause != CauseBlocked {
		t.Fatalf("error = %v, want blocked GenerationFailure", err)
	}
	if !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("Error() = %q, want SAFETY", err.Error())
	}
}

func TestTransportErrorKeepsStatus(t *testing.T) {
	captureMetrics(t)
	gen := &fakeGenerator{err: &genai.APIError{Code: 429, Message: "Resource exhausted"}}
	c := NewClient(gen, Options{})

	_, err := c.Suggest(context.Background(), testImage, "")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if te.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", te.StatusCode)
	}
	if !strings.Contains(err.Error(), "Resource exhausted") {
		t.Errorf("Error() = %q, should embed the cause message", err.Error())
	}
}

func TestExtractPalette(t *testing.T) {
	captureMetrics(t)
	gen := &fakeGenerator{resp: textResponse(`{"colors":[{"hex":"#112233","name":"Notte","semantic":"ombre"}]}`)}
	c := NewClient(gen, Options{JSONModel: "custom-json", PaletteLanguage: "English"})

	palette, err := c.ExtractPalette(context.Background(), testImage, 4)
	if err != nil {
		t.Fatalf("ExtractPalette() error = %v", err)
	}
	if len(palette.Colors) != 1 || palette.Colors[0].Name != "Notte" {
		t.Errorf("palette = %+v", palette)
	}
	if gen.model != "custom-json" {
		t.Errorf("model = %q, want custom-json", gen.model)
	}
	if gen.config.ResponseMIMEType != "application/json" || gen.config.ResponseSchema == nil {
		t.Error("palette call should request JSON with a schema")
	}
	if _, ok := gen.config.ResponseSchema.Properties["colors"]; !ok {
		t.Error("schema should declare colors")
	}
	if !strings.Contains(gen.prompt(), "MUST be in English.") {
		t.Error("prompt should use the configured palette language")
	}
}

func TestExtractPaletteRejectsCount(t *testing.T) {
	gen := &fakeGenerator{}
	c := NewClient(gen, Options{})
	for _, n := range []int{0, 3, 17} {
		if _, err := c.ExtractPalette(context.Background(), testImage, n); err == nil {
			t.Errorf("ExtractPalette(count=%d) should fail", n)
		}
	}
	if gen.calls != 0 {
		t.Errorf("calls = %d, want none for invalid counts", gen.calls)
	}
}

func TestExtractPaletteMissingColors(t *testing.T) {
	captureMetrics(t)
	c := NewClient(&fakeGenerator{resp: textResponse(`{"palette":"none"}`)}, Options{})
	_, err := c.ExtractPalette(context.Background(), testImage, 8)
	var parseErr *ParseFailure
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseFailure", err)
	}
}

func TestExtractPaletteEmptyTextUsesFailureCause(t *testing.T) {
	captureMetrics(t)
	c := NewClient(&fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{candidate(genai.FinishReasonRecitation)},
	}}, Options{})
	_, err := c.ExtractPalette(context.Background(), testImage, 8)
	var genErr *GenerationFailure
	if !errors.As(err, &genErr) || genErr.Cause != CauseAbnormalFinish {
		t.Fatalf("error = %v, want abnormal finish", err)
	}
}

func TestTransferColors(t *testing.T) {
	captureMetrics(t)
	gen := &fakeGenerator{resp: imageResponse("image/jpeg", []byte{9})}
	c := NewClient(gen, Options{})

	if _, err := c.TransferColors(context.Background(), testImage, nil); !errors.Is(err, ErrNoColors) {
		t.Fatalf("empty colors error = %v, want ErrNoColors", err)
	}
	if gen.calls != 0 {
		t.Fatal("empty colors should not reach the model")
	}

	uri, err := c.TransferColors(context.Background(), testImage, []ExtractedColor{{Hex: "#010203", Name: "Ombra", Semantic: "scuro"}})
	if err != nil {
		t.Fatalf("TransferColors() error = %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("uri = %q", uri)
	}
	if !strings.Contains(gen.prompt(), "- Ombra (#010203): scuro") {
		t.Error("prompt should list the selected colors")
	}
}

func TestSuggest(t *testing.T) {
	captureMetrics(t)
	gen := &fakeGenerator{resp: textResponse("```json\n{\"dodge\": 70, \"burn\": 35, \"rationale\": \"soft window light\"}\n```")}
	c := NewClient(gen, Options{})

	s, err := c.Suggest(context.Background(), testImage, "more drama")
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if s.Dodge != 70 || s.Burn != 35 || s.Rationale != "soft window light" {
		t.Errorf("Suggest() = %+v", s)
	}
	if gen.model != DefaultJSONModel {
		t.Errorf("model = %q, want %q", gen.model, DefaultJSONModel)
	}
}

func TestTimeoutAppliesToLimiterWait(t *testing.T) {
	captureMetrics(t)
	gen := &fakeGenerator{resp: imageResponse("image/png", []byte{1})}
	c := NewClient(gen, Options{RequestsPerMinute: 1, Timeout: 50 * time.Millisecond})

	if _, err := c.Enhance(context.Background(), testImage, DefaultParameters()); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	_, err := c.Enhance(context.Background(), testImage, DefaultParameters())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("second call error = %v, want TransportError from limiter", err)
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1", gen.calls)
	}
}
