package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultmetrics/internal/metrics"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetricsConfig_DefaultsAndRules(t *testing.T) {
	cfg := MetricsConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty metrics config should pass: %v", err)
	}
	if cfg.TodoTags != string(metrics.TodoTagsAll) {
		t.Errorf("todo_tags = %q, want %q", cfg.TodoTags, metrics.TodoTagsAll)
	}

	cfg = MetricsConfig{TodoTags: "matching", Workers: 4, Undirected: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("matching should pass: %v", err)
	}
	opts := cfg.Options("/vault")
	if opts.Root != "/vault" || opts.TodoTags != metrics.TodoTagsMatching || opts.Workers != 4 || !opts.Undirected {
		t.Errorf("options = %+v", opts)
	}

	cfg = MetricsConfig{TodoTags: "some"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown todo_tags rule should fail")
	}

	cfg = MetricsConfig{Workers: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("negative workers should fail")
	}
}

func TestVaultConfig_Required(t *testing.T) {
	cfg := VaultConfig{Path: "", Output: "metrics.json"}
	if err := cfg.Validate(); err == nil {
		t.Error("empty vault path should fail")
	}
	cfg = VaultConfig{Path: "./vault"}
	if err := cfg.Validate(); err == nil {
		t.Error("empty output should fail")
	}
}

func TestWatchConfig_NegativeDebounce(t *testing.T) {
	cfg := WatchConfig{Debounce: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("negative debounce should fail")
	}
}

func TestFullConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Auth.Mode = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
