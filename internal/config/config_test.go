package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iopred/wreckage"
)

var envKeys = []string{
	"WRECKAGE_SERVICE_URL", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	"GOOGLE_GENAI_API_KEY", "GENAI_API_KEY", "GEMINI_MODEL", "PERSONA_PROMPTS_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultMatchesLayout(t *testing.T) {
	cfg := Default()
	assert.Equal(t, wreckage.DefaultLayout(), cfg.WreckageLayout())
	assert.Equal(t, wreckage.DefaultLoadTimeout, cfg.Loader.Timeout.Duration)
	assert.Equal(t, int64(wreckage.DefaultMaxImageBytes), cfg.Loader.MaxBytes)
	assert.Empty(t, cfg.Service.URL)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
	}{
		{"toml", "wreckage.toml", `
[layout]
width = 600
font_size = 18.5

[loader]
timeout = "3s"

[delivery]
share_command = ["xdg-open"]
`},
		{"yaml", "wreckage.yaml", `
layout:
  width: 600
  font_size: 18.5
loader:
  timeout: 3s
delivery:
  share_command: [xdg-open]
`},
		{"json", "wreckage.json", `{
  "layout": {"width": 600, "font_size": 18.5},
  "loader": {"timeout": "3s"},
  "delivery": {"share_command": ["xdg-open"]}
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(writeFile(t, tt.file, tt.contents))
			require.NoError(t, err)

			want := Default()
			want.Layout.Width = 600
			want.Layout.FontSize = 18.5
			want.Loader.Timeout = Duration{3 * time.Second}
			want.Delivery.ShareCommand = []string{"xdg-open"}
			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name, file, contents, want string
	}{
		{"unsupported", "wreckage.ini", "width=1", "unsupported config format"},
		{"bad toml", "wreckage.toml", "[layout", "decode TOML"},
		{"bad duration", "wreckage.json", `{"loader":{"timeout":"soon"}}`, "parse duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.contents))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"WRECKAGE_SERVICE_URL": "http://localhost:3000",
		"GOOGLE_API_KEY":       "google",
		"GENAI_API_KEY":        "genai",
		"GEMINI_MODEL":         " gemini-2.5-flash, ,gemini-2.0-flash ",
		"PERSONA_PROMPTS_DIR":  "/prompts",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "http://localhost:3000", cfg.Service.URL)
	assert.Equal(t, "google", cfg.Gemini.APIKey)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.Gemini.Models)
	assert.Equal(t, "/prompts", cfg.Gemini.PromptsDir)

	env["GEMINI_API_KEY"] = "gemini"
	cfg.applyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "gemini", cfg.Gemini.APIKey)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WRECKAGE_SERVICE_URL", "http://env")
	cfg, err := Load(writeFile(t, "c.toml", "[service]\nurl = \"http://file\"\ntimeout = \"2s\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.Service.URL)
	assert.Equal(t, 2*time.Second, cfg.Service.Timeout.Duration)
}

func TestDurationText(t *testing.T) {
	text, err := Duration{90 * time.Second}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	var d Duration
	require.NoError(t, d.UnmarshalText(text))
	assert.Equal(t, 90*time.Second, d.Duration)
}
