package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if len(cfg.Site.CategoryPaths) == 0 {
		return fmt.Errorf("site.category_paths must list at least one listing page")
	}
	if cfg.Site.ProductPathMarker == "" {
		return fmt.Errorf("site.product_path_marker must not be empty")
	}

	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}
	if cfg.Browser.SelectorWait <= 0 {
		return fmt.Errorf("browser.selector_wait must be > 0")
	}
	if cfg.Browser.MaxScrolls < 1 {
		return fmt.Errorf("browser.max_scrolls must be >= 1, got %d", cfg.Browser.MaxScrolls)
	}
	if cfg.Browser.ViewportWidth < 1 || cfg.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d",
			cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}

	if cfg.Assets.Timeout <= 0 {
		return fmt.Errorf("assets.timeout must be > 0")
	}
	if cfg.Assets.MaxRedirects < 0 {
		return fmt.Errorf("assets.max_redirects must be >= 0")
	}
	if cfg.Assets.Concurrency < 1 {
		return fmt.Errorf("assets.concurrency must be >= 1, got %d", cfg.Assets.Concurrency)
	}

	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri must be set when mongo is enabled")
		}
		if cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo database and collection must be set when mongo is enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a crawl target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
