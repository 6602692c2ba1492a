package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NOTES_API_URL", "NOTES_HOST", "PORT", "LOG_LEVEL", "NOTES_MARKDOWN", "NOTES_MCP"} {
		// Setenv registers the restore; unset so .env files can fill them in
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoad_Layers(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "notes.yaml")
	os.WriteFile(yamlPath, []byte("api_url: http://notes.internal/api\nport: \"9000\"\nmarkdown: true\n"), 0o644)

	envPath := filepath.Join(dir, ".env")
	os.WriteFile(envPath, []byte("LOG_LEVEL=debug\n"), 0o644)

	t.Setenv("PORT", "9100")

	cfg, err := Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "http://notes.internal/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q, env must win over file", cfg.Port)
	}
	if !cfg.Markdown {
		t.Error("Markdown not read from file")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from .env", cfg.LogLevel)
	}
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	clearEnv(t)
	if _, err := Load("", filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad url scheme", "NOTES_API_URL", "ftp://notes/api"},
		{"url without host", "NOTES_API_URL", "/api"},
		{"bad port", "PORT", "http"},
		{"bad level", "LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			cfg, err := Load("", "")
			if err != nil {
				t.Fatalf("Load() error = %v, validation belongs to Validate", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() with %s=%q succeeded, want error", tt.key, tt.val)
			}
		})
	}

	t.Run("bad bool", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NOTES_MCP", "maybe")
		if _, err := Load("", ""); err == nil {
			t.Error("Load() with NOTES_MCP=maybe succeeded, want error")
		}
	})
}

func TestLoad_OverrideBeforeValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTES_API_URL", "not a url")
	t.Setenv("PORT", "http")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.APIURL = "http://notes.internal/api"
	cfg.Port = "9000"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after overrides = %v", err)
	}
}

func TestConfig_Addr(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Addr(); got != "127.0.0.1:7521" {
		t.Errorf("default Addr() = %q, want loopback", got)
	}

	t.Setenv("NOTES_HOST", "0.0.0.0")
	cfg, _ = Load("", "")
	if got := cfg.Addr(); got != "0.0.0.0:7521" {
		t.Errorf("Addr() = %q", got)
	}

	cfg.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty host accepted")
	}
}

func TestConfig_Level(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "WARN"
	lvl, err := cfg.Level()
	if err != nil || lvl != slog.LevelWarn {
		t.Errorf("Level() = %v, %v", lvl, err)
	}
}
