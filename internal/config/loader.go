package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the command layer on top of the result.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("MERCHPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("merchpipe")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".merchpipe"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("site.base_url", cfg.Site.BaseURL)
	v.SetDefault("site.category_paths", cfg.Site.CategoryPaths)
	v.SetDefault("site.product_path_marker", cfg.Site.ProductPathMarker)
	v.SetDefault("site.asset_host_marker", cfg.Site.AssetHostMarker)
	v.SetDefault("site.not_found_phrases", cfg.Site.NotFoundPhrases)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.viewport_width", cfg.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", cfg.Browser.ViewportHeight)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)
	v.SetDefault("browser.selector_wait", cfg.Browser.SelectorWait)
	v.SetDefault("browser.detail_wait", cfg.Browser.DetailWait)
	v.SetDefault("browser.idle_wait", cfg.Browser.IdleWait)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.scroll_settle", cfg.Browser.ScrollSettle)
	v.SetDefault("browser.max_scrolls", cfg.Browser.MaxScrolls)

	v.SetDefault("assets.timeout", cfg.Assets.Timeout)
	v.SetDefault("assets.max_redirects", cfg.Assets.MaxRedirects)
	v.SetDefault("assets.concurrency", cfg.Assets.Concurrency)
	v.SetDefault("assets.dir", cfg.Assets.Dir)

	v.SetDefault("output.data_dir", cfg.Output.DataDir)
	v.SetDefault("output.raw_file", cfg.Output.RawFile)
	v.SetDefault("output.failed_file", cfg.Output.FailedFile)
	v.SetDefault("output.catalog_file", cfg.Output.CatalogFile)

	v.SetDefault("storage.mongo.enabled", cfg.Storage.Mongo.Enabled)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
