// Package config loads runtime settings for the retouch binaries from
// .env files, environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Default values applied when neither the environment nor a flag sets one.
const (
	DefaultPort                = "8080"
	DefaultImageModel          = "gemini-2.5-flash-image"
	DefaultJSONModel           = "gemini-2.5-flash"
	DefaultPaletteLanguage     = "Italian"
	DefaultLocale              = "it"
	DefaultRequestsPerMinute   = 30
	DefaultSessionTTL          = 2 * time.Hour
	DefaultOperationTimeout    = 120 * time.Second
	DefaultMaxLiveHandles      = 16
	DefaultPreviewMaxDimension = 1024
)

// Config holds every tunable the retouch binaries read.
type Config struct {
	Port                string
	ImageModel          string
	JSONModel           string
	PaletteLanguage     string
	DefaultLocale       string
	RequestsPerMinute   int
	SessionTTL          time.Duration
	OperationTimeout    time.Duration
	MaxLiveHandles      int
	PreviewMaxDimension int
	ValidateKey         bool
	MetricsEnabled      bool
}

// envFiles are loaded in order if present. Earlier files win, and real
// environment variables always win over both.
var envFiles = []string{".env", ".env.local"}

// Load reads .env files and the environment into a Config.
func Load() Config {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			log.Debug().Str("file", f).Msg("Loaded env file")
		}
	}

	c := Config{
		Port:                getenv("PORT", DefaultPort),
		ImageModel:          getenv("RETOUCH_IMAGE_MODEL", DefaultImageModel),
		JSONModel:           getenv("RETOUCH_JSON_MODEL", DefaultJSONModel),
		PaletteLanguage:     getenv("RETOUCH_PALETTE_LANGUAGE", DefaultPaletteLanguage),
		DefaultLocale:       getenv("RETOUCH_DEFAULT_LOCALE", DefaultLocale),
		RequestsPerMinute:   getenvInt("RETOUCH_REQUESTS_PER_MINUTE", DefaultRequestsPerMinute),
		SessionTTL:          getenvDuration("RETOUCH_SESSION_TTL", DefaultSessionTTL),
		OperationTimeout:    getenvDuration("RETOUCH_OPERATION_TIMEOUT", DefaultOperationTimeout),
		MaxLiveHandles:      getenvInt("RETOUCH_MAX_LIVE_HANDLES", DefaultMaxLiveHandles),
		PreviewMaxDimension: getenvInt("RETOUCH_PREVIEW_MAX_DIMENSION", DefaultPreviewMaxDimension),
		ValidateKey:         getenvBool("RETOUCH_VALIDATE_KEY", false),
		MetricsEnabled:      getenvBool("RETOUCH_METRICS", true),
	}
	return c
}

// BindFlags registers the flags shared by every binary: models, locale,
// rate limiting and startup checks.
func (c *Config) BindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.ImageModel, "image-model", c.ImageModel, "Gemini model for image generation")
	f.StringVar(&c.JSONModel, "json-model", c.JSONModel, "Gemini model for structured JSON output")
	f.StringVar(&c.PaletteLanguage, "palette-language", c.PaletteLanguage, "Language for palette color names and semantics")
	f.StringVar(&c.DefaultLocale, "locale", c.DefaultLocale, "Fallback locale for user-facing messages")
	f.IntVar(&c.RequestsPerMinute, "rpm", c.RequestsPerMinute, "Maximum outbound model calls per minute (0 disables the limit)")
	f.DurationVar(&c.OperationTimeout, "timeout", c.OperationTimeout, "Timeout for a single remote operation")
	f.BoolVar(&c.ValidateKey, "validate-key", c.ValidateKey, "Validate the Gemini API key at startup")
	f.BoolVar(&c.MetricsEnabled, "metrics", c.MetricsEnabled, "Emit EMF metric lines")
}

// BindServerFlags registers the HTTP server and session flags.
func (c *Config) BindServerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&c.Port, "port", "p", c.Port, "HTTP listen port")
	f.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Idle time before a session is evicted")
	f.IntVar(&c.MaxLiveHandles, "max-handles", c.MaxLiveHandles, "Maximum live preview handles per session")
	f.IntVar(&c.PreviewMaxDimension, "preview-size", c.PreviewMaxDimension, "Longest side of generated previews in pixels")
}

// Fields returns the config as loggable key/value pairs. No secrets live here.
func (c Config) Fields() map[string]string {
	return map[string]string{
		"port":             c.Port,
		"palette_language": c.PaletteLanguage,
		"locale":           c.DefaultLocale,
		"rpm":              strconv.Itoa(c.RequestsPerMinute),
		"session_ttl":      c.SessionTTL.String(),
		"timeout":          c.OperationTimeout.String(),
		"max_handles":      strconv.Itoa(c.MaxLiveHandles),
		"preview_size":     strconv.Itoa(c.PreviewMaxDimension),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("Invalid integer in environment, using default")
		return def
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("Invalid duration in environment, using default")
		return def
	}
	return d
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Bool("default", def).Msg("Invalid boolean in environment, using default")
		return def
	}
	return b
}
