package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/swashbuckle/internal/chat"
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
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
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

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestSearchConfig_EmptyEngineDefaultsSQLite(t *testing.T) {
	cfg := SearchConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != "sqlite" {
		t.Errorf("engine = %q, want sqlite", cfg.Engine)
	}
}

func TestSearchConfig_UnknownEngine(t *testing.T) {
	cfg := SearchConfig{Engine: "elastic"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown engine should fail validation")
	}
}

func TestChatConfig_BaseURLRequired(t *testing.T) {
	for _, u := range []string{"", "not a url", "ftp://x"} {
		cfg := ChatConfig{BaseURL: u}
		if err := cfg.Validate(); err == nil {
			t.Errorf("base url %q should fail validation", u)
		}
	}
}

func TestChatConfig_DefaultVariants(t *testing.T) {
	cfg := ChatConfig{BaseURL: "https://chat.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Variants) != 3 || cfg.Variants[1].Route != "chat-stricter" {
		t.Errorf("variants = %+v", cfg.Variants)
	}
}

func TestChatConfig_DuplicateVariant(t *testing.T) {
	cfg := ChatConfig{
		BaseURL: "https://chat.example.com",
		Variants: []chat.Variant{
			{Name: "a", Route: "chat"},
			{Name: "a", Route: "chat-2"},
		},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate variant error", err)
	}
}

func TestChatConfig_NegativeTimeout(t *testing.T) {
	cfg := ChatConfig{BaseURL: "https://chat.example.com", Timeout: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("negative timeout should fail validation")
	}
}

func TestSiteConfig_Required(t *testing.T) {
	cfg := SiteConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty site config should fail validation")
	}
}
