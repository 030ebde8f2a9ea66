package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad base url", func(c *Config) { c.Site.BaseURL = "not-a-url" }},
		{"no category paths", func(c *Config) { c.Site.CategoryPaths = nil }},
		{"empty product marker", func(c *Config) { c.Site.ProductPathMarker = "" }},
		{"zero navigation timeout", func(c *Config) { c.Browser.NavigationTimeout = 0 }},
		{"zero max scrolls", func(c *Config) { c.Browser.MaxScrolls = 0 }},
		{"zero viewport", func(c *Config) { c.Browser.ViewportWidth = 0 }},
		{"negative redirects", func(c *Config) { c.Assets.MaxRedirects = -1 }},
		{"zero concurrency", func(c *Config) { c.Assets.Concurrency = 0 }},
		{"mongo enabled without uri", func(c *Config) {
			c.Storage.Mongo.Enabled = true
			c.Storage.Mongo.URI = ""
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://www.thememdex100.com"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	for _, bad := range []string{"ftp://example.com", "https://", "relative/path"} {
		if err := ValidateURL(bad); err == nil {
			t.Errorf("ValidateURL(%q): expected error", bad)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Site.ProductPathMarker != "/product-page/" {
		t.Errorf("product marker = %q", cfg.Site.ProductPathMarker)
	}
	if cfg.Browser.MaxScrolls != 20 {
		t.Errorf("max scrolls = %d", cfg.Browser.MaxScrolls)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merchpipe.yaml")
	yaml := `site:
  base_url: https://shop.example.com
browser:
  max_scrolls: 5
  navigation_timeout: 30s
assets:
  concurrency: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Site.BaseURL != "https://shop.example.com" {
		t.Errorf("base url = %q", cfg.Site.BaseURL)
	}
	if cfg.Browser.MaxScrolls != 5 {
		t.Errorf("max scrolls = %d", cfg.Browser.MaxScrolls)
	}
	if cfg.Browser.NavigationTimeout != 30*time.Second {
		t.Errorf("navigation timeout = %s", cfg.Browser.NavigationTimeout)
	}
	if cfg.Assets.Concurrency != 2 {
		t.Errorf("concurrency = %d", cfg.Assets.Concurrency)
	}
	// Untouched keys keep their defaults.
	if cfg.Output.CatalogFile != "products.json" {
		t.Errorf("catalog file = %q", cfg.Output.CatalogFile)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for explicitly named missing config file")
	}
}
