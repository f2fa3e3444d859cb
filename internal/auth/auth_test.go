package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/fpang/retouch-studio/internal/metrics"
	"google.golang.org/genai"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"
	t.Setenv(APIKeyEnv, "  "+testKey+"\n")

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	_, err := GetAPIKey()
	if err == nil {
		t.Fatal("expected error when no API key is set")
	}
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Type != ErrTypeNoKey {
		t.Errorf("expected ValidationError of type no_key, got %v", err)
	}
}

type stubGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (s stubGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return s.resp, s.err
}

func TestValidateAPIKey(t *testing.T) {
	metrics.SetEnabled(false)
	defer metrics.SetEnabled(true)

	ok := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}

	tests := []struct {
		name     string
		gen      stubGenerator
		wantType ValidationErrorType
		wantErr  bool
	}{
		{"success", stubGenerator{resp: ok}, 0, false},
		{"empty response", stubGenerator{resp: &genai.GenerateContentResponse{}}, ErrTypeUnknown, true},
		{"unauthorized", stubGenerator{err: &genai.APIError{Code: 403, Message: "denied"}}, ErrTypeInvalidKey, true},
		{"rate limited", stubGenerator{err: &genai.APIError{Code: 429}}, ErrTypeQuotaExceeded, true},
		{"server error", stubGenerator{err: &genai.APIError{Code: 503}}, ErrTypeNetworkError, true},
		{"dial failure", stubGenerator{err: errors.New("dial tcp: no such host")}, ErrTypeNetworkError, true},
		{"bad key text", stubGenerator{err: errors.New("API key not valid. Please pass a valid API key.")}, ErrTypeInvalidKey, true},
		{"other", stubGenerator{err: errors.New("boom")}, ErrTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(context.Background(), tt.gen, "gemini-2.5-flash")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if valErr.Type != tt.wantType {
				t.Errorf("type = %v, want %v", valErr.Type, tt.wantType)
			}
		})
	}
}
