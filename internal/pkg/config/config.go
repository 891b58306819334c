package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Region RegionConfig `mapstructure:"region"`
	Tiles  TilesConfig  `mapstructure:"tiles"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// RegionConfig selects the geographic area and zoom level to export.
type RegionConfig struct {
	MinLat float64 `mapstructure:"min_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLat float64 `mapstructure:"max_lat"`
	MaxLon float64 `mapstructure:"max_lon"`
	Zoom   int     `mapstructure:"zoom"`
}

// TilesConfig configures the tile-server client.
type TilesConfig struct {
	URLTemplate    string  `mapstructure:"url_template"`
	UserAgent      string  `mapstructure:"user_agent"`
	Workers        int     `mapstructure:"workers"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	Retries        int     `mapstructure:"retries"`
	RateLimit      float64 `mapstructure:"rate_limit"`
}

// OutputConfig configures the exported image file.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults: a sample region from Zürich to Munich at zoom 10.
	v.SetDefault("region.min_lat", 47.381)
	v.SetDefault("region.min_lon", 8.3795)
	v.SetDefault("region.max_lat", 48.926)
	v.SetDefault("region.max_lon", 10.6920)
	v.SetDefault("region.zoom", 10)
	v.SetDefault("tiles.url_template", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("tiles.user_agent",
		"OSM-and-Stadiamaps-Downloader/1.0 (+https://github.com/werner-roman/OSM-and-Stadiamaps-Downloader)")
	v.SetDefault("tiles.workers", 4)
	v.SetDefault("tiles.timeout_seconds", 30)
	v.SetDefault("tiles.retries", 3)
	// ~one request every 300ms, per the OSM tile usage policy.
	v.SetDefault("tiles.rate_limit", 3.0)
	v.SetDefault("output.path", "osm_export_map.png")
	v.SetDefault("output.jpeg_quality", 90)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: OSMDL_REGION_MIN_LAT → region.min_lat
	v.SetEnvPrefix("OSMDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// Bounding-box geometry is validated again by the domain before any tile
// is requested.
func (c *Config) Validate() error {
	var errs []string

	for _, ph := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(c.Tiles.URLTemplate, ph) {
			errs = append(errs, fmt.Sprintf("tiles.url_template must contain %s", ph))
		}
	}
	if c.Tiles.UserAgent == "" {
		errs = append(errs, "tiles.user_agent is required (tile usage policy)")
	}
	if c.Tiles.Workers <= 0 {
		errs = append(errs, "tiles.workers must be positive")
	}
	if c.Tiles.TimeoutSeconds <= 0 {
		errs = append(errs, "tiles.timeout_seconds must be positive")
	}
	if c.Tiles.Retries < 0 {
		errs = append(errs, "tiles.retries must not be negative")
	}
	if c.Tiles.RateLimit <= 0 {
		errs = append(errs, "tiles.rate_limit must be positive")
	}
	if c.Output.Path == "" {
		errs = append(errs, "output.path is required")
	} else {
		switch strings.ToLower(filepath.Ext(c.Output.Path)) {
		case ".png", ".jpg", ".jpeg":
		default:
			errs = append(errs, fmt.Sprintf("output.path must end in .png, .jpg or .jpeg, got %q", c.Output.Path))
		}
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		errs = append(errs, fmt.Sprintf("output.jpeg_quality must be 1-100, got %d", c.Output.JPEGQuality))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
