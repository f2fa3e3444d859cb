package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fpang/retouch-studio/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ValidationError represents a specific type of API key failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

func (t ValidationErrorType) String() string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Generator is the subset of the genai Models service used for validation.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ValidateAPIKey makes a minimal text call against model and returns nil if
// the key works, or a *ValidationError describing the failure.
func ValidateAPIKey(ctx context.Context, gen Generator, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, model, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	var valErr *ValidationError
	result := "success"
	switch {
	case err != nil:
		valErr = classifyError(err)
		result = valErr.Type.String()
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		valErr = &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
		result = "empty_response"
	}

	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()

	if valErr != nil {
		return valErr
	}

	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}

// messagePatterns classify SDK errors that carry no status code.
var messagePatterns = []struct {
	kind    ValidationErrorType
	message string
	needles []string
}{
	{ErrTypeInvalidKey, "API key is invalid or has been revoked", []string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{ErrTypeQuotaExceeded, "API quota exceeded or rate limited", []string{"quota", "resource exhausted", "rate limit"}},
	{ErrTypeNetworkError, "Network error, check your internet connection", []string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

func classifyError(err error) *ValidationError {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message, err)
	}
	var apiErrVal genai.APIError
	if errors.As(err, &apiErrVal) {
		return classifyStatus(apiErrVal.Code, apiErrVal.Message, err)
	}

	lower := strings.ToLower(err.Error())
	for _, p := range messagePatterns {
		for _, n := range p.needles {
			if strings.Contains(lower, n) {
				log.Error().Err(err).Str("kind", p.kind.String()).Msg("API key validation failed")
				return &ValidationError{Type: p.kind, Message: p.message, Err: err}
			}
		}
	}
	log.Error().Err(err).Msg("Unknown error during API key validation")
	return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
}

func classifyStatus(code int, message string, err error) *ValidationError {
	switch {
	case code == 400:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "Bad request, the API key may be malformed", Err: err}
	case code == 401 || code == 403:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case code == 429:
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded, try again later", Err: err}
	case code >= 500:
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Gemini API server error, try again later", Err: err}
	default:
		log.Error().Int("code", code).Str("message", message).Msg("Gemini API error")
		return &ValidationError{Type: ErrTypeUnknown, Message: message, Err: err}
	}
}
