package config

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "RETOUCH_IMAGE_MODEL", "RETOUCH_JSON_MODEL", "RETOUCH_SESSION_TTL", "RETOUCH_REQUESTS_PER_MINUTE"} {
		t.Setenv(k, "")
	}

	c := Load()
	if c.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", c.Port, DefaultPort)
	}
	if c.ImageModel != DefaultImageModel || c.JSONModel != DefaultJSONModel {
		t.Errorf("models = %q/%q", c.ImageModel, c.JSONModel)
	}
	if c.SessionTTL != DefaultSessionTTL {
		t.Errorf("SessionTTL = %v, want %v", c.SessionTTL, DefaultSessionTTL)
	}
	if c.RequestsPerMinute != DefaultRequestsPerMinute {
		t.Errorf("RequestsPerMinute = %d", c.RequestsPerMinute)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("RETOUCH_SESSION_TTL", "15m")
	t.Setenv("RETOUCH_VALIDATE_KEY", "true")
	t.Setenv("RETOUCH_MAX_LIVE_HANDLES", "not-a-number")

	c := Load()
	if c.Port != "9090" {
		t.Errorf("Port = %q, want 9090", c.Port)
	}
	if c.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want 15m", c.SessionTTL)
	}
	if !c.ValidateKey {
		t.Error("ValidateKey = false, want true")
	}
	if c.MaxLiveHandles != DefaultMaxLiveHandles {
		t.Errorf("MaxLiveHandles = %d, want default on bad input", c.MaxLiveHandles)
	}
}

func TestBindFlagsOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")

	c := Load()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	c.BindFlags(cmd)
	c.BindServerFlags(cmd)
	cmd.SetArgs([]string{"--port", "7070", "--timeout", "30s"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if c.Port != "7070" {
		t.Errorf("Port = %q, want 7070", c.Port)
	}
	if c.OperationTimeout != 30*time.Second {
		t.Errorf("OperationTimeout = %v, want 30s", c.OperationTimeout)
	}
}

func TestSharedFlagsOmitServerFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	c := Load()
	cmd := &cobra.Command{Use: "test"}
	c.BindFlags(cmd)
	for _, name := range []string{"port", "session-ttl", "max-handles", "preview-size"} {
		if cmd.Flags().Lookup(name) != nil {
			t.Errorf("shared flags include server flag --%s", name)
		}
	}
	for _, name := range []string{"image-model", "json-model", "locale", "rpm", "timeout", "validate-key", "metrics"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("shared flags missing --%s", name)
		}
	}
}
