// Package config loads wreckage settings from TOML, YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/iopred/wreckage"
)

// Config holds everything the CLI needs to wire a Wrecker.
type Config struct {
	Layout   LayoutConfig   `toml:"layout" yaml:"layout" json:"layout"`
	Loader   LoaderConfig   `toml:"loader" yaml:"loader" json:"loader"`
	Service  ServiceConfig  `toml:"service" yaml:"service" json:"service"`
	Gemini   GeminiConfig   `toml:"gemini" yaml:"gemini" json:"gemini"`
	Delivery DeliveryConfig `toml:"delivery" yaml:"delivery" json:"delivery"`
}

// LayoutConfig mirrors wreckage.LayoutConfig.
type LayoutConfig struct {
	Width      int     `toml:"width" yaml:"width" json:"width"`
	Margin     int     `toml:"margin" yaml:"margin" json:"margin"`
	Spacing    int     `toml:"spacing" yaml:"spacing" json:"spacing"`
	LineHeight int     `toml:"line_height" yaml:"line_height" json:"line_height"`
	FontSize   float64 `toml:"font_size" yaml:"font_size" json:"font_size"`
	MinAspect  float64 `toml:"min_aspect" yaml:"min_aspect" json:"min_aspect"`
	// FontPath selects a TrueType font; empty uses the embedded font.
	FontPath string `toml:"font_path" yaml:"font_path" json:"font_path"`
}

// LoaderConfig controls image fetching.
type LoaderConfig struct {
	Timeout  Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
	MaxBytes int64    `toml:"max_bytes" yaml:"max_bytes" json:"max_bytes"`
}

// ServiceConfig points at the HTTP rewrite service. An empty URL disables it.
type ServiceConfig struct {
	URL     string   `toml:"url" yaml:"url" json:"url"`
	Timeout Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
}

// GeminiConfig enables the Gemini collaborator when APIKey is set.
type GeminiConfig struct {
	APIKey     string   `toml:"api_key" yaml:"api_key" json:"api_key"`
	Models     []string `toml:"models" yaml:"models" json:"models"`
	PromptsDir string   `toml:"prompts_dir" yaml:"prompts_dir" json:"prompts_dir"`
}

// DeliveryConfig controls where artifacts go.
type DeliveryConfig struct {
	DownloadDir  string   `toml:"download_dir" yaml:"download_dir" json:"download_dir"`
	ShareCommand []string `toml:"share_command" yaml:"share_command" json:"share_command"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML, YAML and JSON.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	l := wreckage.DefaultLayout()
	return &Config{
		Layout: LayoutConfig{
			Width:      l.Width,
			Margin:     l.Margin,
			Spacing:    l.Spacing,
			LineHeight: l.LineHeight,
			FontSize:   l.FontSize,
			MinAspect:  l.MinAspect,
		},
		Loader: LoaderConfig{
			Timeout:  Duration{wreckage.DefaultLoadTimeout},
			MaxBytes: wreckage.DefaultMaxImageBytes,
		},
		Service: ServiceConfig{
			Timeout: Duration{15 * time.Second},
		},
		Delivery: DeliveryConfig{
			DownloadDir: ".",
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("WRECKAGE_SERVICE_URL"); v != "" {
		c.Service.URL = v
	}
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENAI_API_KEY", "GENAI_API_KEY"} {
		if v := getenv(name); v != "" {
			c.Gemini.APIKey = v
			break
		}
	}
	if v := getenv("GEMINI_MODEL"); v != "" {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		c.Gemini.Models = models
	}
	if v := getenv("PERSONA_PROMPTS_DIR"); v != "" {
		c.Gemini.PromptsDir = v
	}
}

// WreckageLayout converts the layout section to a wreckage.LayoutConfig.
func (c *Config) WreckageLayout() wreckage.LayoutConfig {
	l := wreckage.DefaultLayout()
	l.Width = c.Layout.Width
	l.Margin = c.Layout.Margin
	l.Spacing = c.Layout.Spacing
	l.LineHeight = c.Layout.LineHeight
	l.FontSize = c.Layout.FontSize
	l.MinAspect = c.Layout.MinAspect
	return l
}
