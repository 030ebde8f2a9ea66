package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for merchpipe.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"    yaml:"site"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Assets  AssetsConfig  `mapstructure:"assets"  yaml:"assets"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SiteConfig describes the storefront being crawled. The selector
// heuristics in the extractors are specific to this storefront's
// markup; these values only locate it.
type SiteConfig struct {
	BaseURL           string   `mapstructure:"base_url"            yaml:"base_url"`
	CategoryPaths     []string `mapstructure:"category_paths"      yaml:"category_paths"`
	ProductPathMarker string   `mapstructure:"product_path_marker" yaml:"product_path_marker"`
	AssetHostMarker   string   `mapstructure:"asset_host_marker"   yaml:"asset_host_marker"`
	NotFoundPhrases   []string `mapstructure:"not_found_phrases"   yaml:"not_found_phrases"`
}

// BrowserConfig controls the rendering session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	Stealth           bool          `mapstructure:"stealth"            yaml:"stealth"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
	ViewportWidth     int           `mapstructure:"viewport_width"     yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height"    yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SelectorWait      time.Duration `mapstructure:"selector_wait"      yaml:"selector_wait"`
	DetailWait        time.Duration `mapstructure:"detail_wait"        yaml:"detail_wait"`
	IdleWait          time.Duration `mapstructure:"idle_wait"          yaml:"idle_wait"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"       yaml:"settle_delay"`
	ScrollSettle      time.Duration `mapstructure:"scroll_settle"      yaml:"scroll_settle"`
	MaxScrolls        int           `mapstructure:"max_scrolls"        yaml:"max_scrolls"`
}

// AssetsConfig controls image/asset downloads.
type AssetsConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	Concurrency  int           `mapstructure:"concurrency"   yaml:"concurrency"`
	Dir          string        `mapstructure:"dir"           yaml:"dir"`
}

// OutputConfig names the on-disk artifacts.
type OutputConfig struct {
	DataDir     string `mapstructure:"data_dir"     yaml:"data_dir"`
	RawFile     string `mapstructure:"raw_file"     yaml:"raw_file"`
	FailedFile  string `mapstructure:"failed_file"  yaml:"failed_file"`
	CatalogFile string `mapstructure:"catalog_file" yaml:"catalog_file"`
}

// StorageConfig controls optional catalog publishing backends.
type StorageConfig struct {
	Mongo MongoConfig `mapstructure:"mongo" yaml:"mongo"`
}

// MongoConfig publishes the canonical catalog to a MongoDB collection
// in addition to the catalog file. Disabled by default.
type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:           "https://www.thememdex100.com",
			CategoryPaths:     []string{"/category/all-products"},
			ProductPathMarker: "/product-page/",
			AssetHostMarker:   "wixstatic",
			NotFoundPhrases:   []string{"couldn't be found", "product not found"},
		},
		Browser: BrowserConfig{
			Headless:          true,
			Stealth:           false,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ViewportWidth:     1440,
			ViewportHeight:    900,
			NavigationTimeout: 60 * time.Second,
			SelectorWait:      5 * time.Second,
			DetailWait:        8 * time.Second,
			IdleWait:          30 * time.Second,
			SettleDelay:       8 * time.Second,
			ScrollSettle:      1500 * time.Millisecond,
			MaxScrolls:        20,
		},
		Assets: AssetsConfig{
			Timeout:      60 * time.Second,
			MaxRedirects: 5,
			Concurrency:  4,
			Dir:          "assets/products",
		},
		Output: OutputConfig{
			DataDir:     "data",
			RawFile:     "products-raw.json",
			FailedFile:  "products-failed.json",
			CatalogFile: "products.json",
		},
		Storage: StorageConfig{
			Mongo: MongoConfig{
				Enabled:    false,
				URI:        "mongodb://localhost:27017",
				Database:   "merchpipe",
				Collection: "catalog",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
