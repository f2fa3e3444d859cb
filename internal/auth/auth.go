package auth

import (
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// APIKeyEnv is the single credential the binaries need.
const APIKeyEnv = "GEMINI_API_KEY"

// ErrNoAPIKey is returned when the credential is missing. Callers treat it as
// fatal at startup.
var ErrNoAPIKey = errors.New("API key not found: set " + APIKeyEnv + " in the environment or a .env file")

// GetAPIKey reads the Gemini API key from the environment.
func GetAPIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if key == "" {
		log.Error().Str("env", APIKeyEnv).Msg("Gemini API key is not configured")
		return "", &ValidationError{Type: ErrTypeNoKey, Message: "no API key configured", Err: ErrNoAPIKey}
	}
	log.Debug().Msg("Using API key from environment variable")
	return key, nil
}
