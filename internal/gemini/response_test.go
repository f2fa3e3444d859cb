package gemini

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func candidate(finish genai.FinishReason, parts ...*genai.Part) *genai.Candidate {
	return &genai.Candidate{
		Content:      &genai.Content{Role: genai.RoleModel, Parts: parts},
		FinishReason: finish,
	}
}

func imagePart(mime string, data []byte) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: data}}
}

func TestExtractImageFirstImageAfterText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop,
			genai.NewPartFromText("Here is your image"),
			imagePart("image/png", []byte{1, 2, 3}),
			imagePart("image/jpeg", []byte{4, 5, 6}),
		)},
	}
	uri, err := ExtractImage(resp)
	if err != nil {
		t.Fatalf("ExtractImage() error = %v", err)
	}
	if uri != "data:image/png;base64,AQID" {
		t.Errorf("ExtractImage() = %q, want first image part", uri)
	}
}

func TestExtractImageSkipsNonImageAndEmptyParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop,
			imagePart("application/pdf", []byte{9}),
			imagePart("image/png", nil),
			imagePart("image/webp", []byte{7}),
		)},
	}
	uri, err := ExtractImage(resp)
	if err != nil {
		t.Fatalf("ExtractImage() error = %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/webp;base64,") {
		t.Errorf("ExtractImage() = %q, want webp part", uri)
	}
}

func TestExtractImageFailurePriority(t *testing.T) {
	tests := []struct {
		name       string
		resp       *genai.GenerateContentResponse
		wantCause  FailureCause
		wantSubstr string
	}{
		{
			name: "block reason wins over everything",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
				Candidates:     []*genai.Candidate{candidate(genai.FinishReasonSafety, genai.NewPartFromText("no"))},
			},
			wantCause:  CauseBlocked,
			wantSubstr: "SAFETY",
		},
		{
			name: "abnormal finish wins over text",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{candidate(genai.FinishReasonMaxTokens, genai.NewPartFromText("partial"))},
			},
			wantCause:  CauseAbnormalFinish,
			wantSubstr: "MAX_TOKENS",
		},
		{
			name: "text when finished normally",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop, genai.NewPartFromText("I cannot edit this photo."))},
			},
			wantCause:  CauseTextOnly,
			wantSubstr: "I cannot edit this photo.",
		},
		{
			name:       "empty candidates",
			resp:       &genai.GenerateContentResponse{},
			wantCause:  CauseEmpty,
			wantSubstr: "empty or filtered",
		},
		{
			name:       "nil response",
			resp:       nil,
			wantCause:  CauseEmpty,
			wantSubstr: "empty or filtered",
		},
		{
			name: "unspecified block reason ignored",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonUnspecified},
				Candidates:     []*genai.Candidate{candidate(genai.FinishReasonStop)},
			},
			wantCause:  CauseEmpty,
			wantSubstr: "empty or filtered",
		},
		{
			name: "thought text ignored",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop, &genai.Part{Text: "thinking", Thought: true})},
			},
			wantCause:  CauseEmpty,
			wantSubstr: "empty or filtered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractImage(tt.resp)
			var genErr *GenerationFailure
			if !errors.As(err, &genErr) {
				t.Fatalf("ExtractImage() error = %v, want *GenerationFailure", err)
			}
			if genErr.Cause != tt.wantCause {
				t.Errorf("Cause = %v, want %v", genErr.Cause, tt.wantCause)
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("Error() = %q, want substring %q", err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestDecodeKinds(t *testing.T) {
	d := Decode(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{candidate(genai.FinishReasonStop, genai.NewPartFromText(" hello "))},
	})
	if d.Kind != KindTextOnly || d.Text != "hello" {
		t.Errorf("Decode() = %+v, want text-only hello", d)
	}
	if d.FinishReason != "STOP" {
		t.Errorf("FinishReason = %q, want STOP", d.FinishReason)
	}
}

func TestValidatePaletteResponse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{"plain", `{"colors":[{"hex":"#112233","name":"Notte","semantic":"ombre"},{"hex":"#AABBCC","name":"Cielo","semantic":"sfondo"}]}`, 2, false},
		{"fenced", "```json\n{\"colors\":[{\"hex\":\"#000000\",\"name\":\"Nero\",\"semantic\":\"base\"}]}\n```", 1, false},
		{"trailing comma", `{"colors":[{"hex":"#FFFFFF","name":"Bianco","semantic":"luce"},]}`, 1, false},
		{"count mismatch accepted", `{"colors":[{"hex":"red","name":"Rosso","semantic":"accento"}]}`, 1, false},
		{"empty array", `{"colors":[]}`, 0, false},
		{"missing colors", `{"palette":[]}`, 0, true},
		{"colors not array", `{"colors":"#112233"}`, 0, true},
		{"null colors", `{"colors":null}`, 0, true},
		{"top-level array", `[{"hex":"#112233"}]`, 0, true},
		{"no json", `I could not analyze this image.`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			palette, err := ValidatePaletteResponse(tt.input, 8)
			if tt.wantErr {
				var parseErr *ParseFailure
				if !errors.As(err, &parseErr) {
					t.Fatalf("error = %v, want *ParseFailure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(palette.Colors) != tt.wantCount {
				t.Errorf("got %d colors, want %d", len(palette.Colors), tt.wantCount)
			}
		})
	}
}

func TestValidatePalettePreservesOrder(t *testing.T) {
	palette, err := ValidatePaletteResponse(`{"colors":[{"hex":"#3"},{"hex":"#1"},{"hex":"#2"}]}`, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, c := range palette.Colors {
		got = append(got, c.Hex)
	}
	if strings.Join(got, ",") != "#3,#1,#2" {
		t.Errorf("order = %v, want model order", got)
	}
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantDodge int
		wantBurn  int
		wantErr   bool
	}{
		{"ints", `{"dodge":65,"burn":30,"rationale":"flat light"}`, 65, 30, false},
		{"floats rounded", `{"dodge":64.6,"burn":30.2}`, 65, 30, false},
		{"clamped", `{"dodge":140,"burn":-5}`, 100, 0, false},
		{"missing burn", `{"dodge":40}`, 0, 0, true},
		{"not json", `sure, try 50 and 50`, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSuggestion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if s.Dodge != tt.wantDodge || s.Burn != tt.wantBurn {
				t.Errorf("got %d/%d, want %d/%d", s.Dodge, s.Burn, tt.wantDodge, tt.wantBurn)
			}
		})
	}
}
