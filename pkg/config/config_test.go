package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig pins the shipped defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Model.BaseURL != "http://127.0.0.1:8080" {
		t.Errorf("base url = %q", cfg.Model.BaseURL)
	}
	if cfg.Model.MaxTokens != 150 || cfg.Model.Temperature != 0.7 {
		t.Errorf("decoding defaults changed: %+v", cfg.Model)
	}
	if len(cfg.Model.Stop) != 2 || cfg.Model.Stop[0] != "User:" {
		t.Errorf("stop sequences = %v", cfg.Model.Stop)
	}
	if cfg.Chat.MaxHistory != 20 || cfg.Chat.DefaultSession != "default" {
		t.Errorf("chat defaults = %+v", cfg.Chat)
	}
	if cfg.ConvLog.RetentionDays != 90 {
		t.Errorf("retention = %d, want 90", cfg.ConvLog.RetentionDays)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8000" {
		t.Errorf("listen addr = %q", got)
	}
}

// TestLoadConfigMissingFile verifies a missing file yields the
// defaults rather than an error.
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Fatalf("port = %d, want default", cfg.Server.Port)
	}
}

// TestLoadConfigFile verifies a partial file overlays the defaults.
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server": {"port": 9001}, "support": {"phone": "1800-0000-0000"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Support.Phone != "1800-0000-0000" {
		t.Errorf("phone = %q", cfg.Support.Phone)
	}
	// Untouched sections keep their defaults.
	if cfg.Model.MaxTokens != 150 {
		t.Errorf("max tokens = %d, want default", cfg.Model.MaxTokens)
	}
}

// TestLoadConfigEnvOverride verifies environment variables win over
// both defaults and the file.
func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server": {"port": 9001}}`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SUPPORTBOT_SERVER_PORT", "9999")
	t.Setenv("SUPPORTBOT_MODEL_BASE_URL", "http://model-host:8080")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Model.BaseURL != "http://model-host:8080" {
		t.Errorf("base url = %q", cfg.Model.BaseURL)
	}
}

// TestSaveConfigRoundTrip verifies save then load preserves values.
func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Server.Port = 9005
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Port != 9005 {
		t.Fatalf("port = %d, want 9005", loaded.Server.Port)
	}
}

// TestFlexibleStringSlice verifies mixed string/number allow lists.
func TestFlexibleStringSlice(t *testing.T) {
	var f FlexibleStringSlice
	if err := json.Unmarshal([]byte(`["abc", 123456789012345678, "@user"]`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(f) != 3 || f[0] != "abc" || f[2] != "@user" {
		t.Fatalf("parsed = %v", f)
	}

	if err := json.Unmarshal([]byte(`"not an array"`), &f); err == nil {
		t.Fatal("expected an error for non-array input")
	}
}

// TestConversationDBPath verifies path assembly and home expansion.
func TestConversationDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Dir = "data"
	if got := cfg.ConversationDBPath(); got != filepath.Join("data", "conversations.db") {
		t.Fatalf("path = %q", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	cfg.Data.Dir = "~/supportbot-data"
	if got := cfg.ConversationDBPath(); got != filepath.Join(home, "supportbot-data", "conversations.db") {
		t.Fatalf("expanded path = %q", got)
	}
}
