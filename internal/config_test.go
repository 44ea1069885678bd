package internal

import (
	"strings"
	"testing"
	"time"
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
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.SQLite.Enabled() {
		t.Error("default config should enable the mirror")
	}
	if _, err := cfg.Workspace.Matcher(); err != nil {
		t.Fatalf("default matcher: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestWorkspaceConfig_Invalid(t *testing.T) {
	cases := map[string]func(*WorkspaceConfig){
		"empty root":          func(c *WorkspaceConfig) { c.Root = "" },
		"no extensions":       func(c *WorkspaceConfig) { c.Extensions = nil },
		"extension no dot":    func(c *WorkspaceConfig) { c.Extensions = []string{"md"} },
		"bad glob":            func(c *WorkspaceConfig) { c.Exclude = []string{"[unclosed"} },
		"no date fields":      func(c *WorkspaceConfig) { c.DateFields = nil },
		"blank date field":    func(c *WorkspaceConfig) { c.DateFields = []string{"date", ""} },
		"pattern missing day": func(c *WorkspaceConfig) { c.FilenamePattern = "YYYY-MM.md" },
		"zero workers":        func(c *WorkspaceConfig) { c.ScanWorkers = 0 },
		"too many workers":    func(c *WorkspaceConfig) { c.ScanWorkers = 1000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(&cfg.Workspace)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestWatcherConfig_Invalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Watcher.Debounce = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero debounce should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Watcher.RetryDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative retry delay should fail")
	}
}

func TestHTTPConfig_Port(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("out of range port should fail")
	}
	cfg.App.HTTP.Port = 9090
	if got := cfg.App.HTTP.Address(); got != ":9090" {
		t.Errorf("address = %q", got)
	}
}

func TestSQLiteConfig_EmptyDisables(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = ""
	if cfg.SQLite.Enabled() {
		t.Error("empty path should disable the mirror")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty sqlite path should validate: %v", err)
	}
}
