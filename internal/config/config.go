package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	PhotoPrism PhotoPrismConfig `yaml:"photoprism"`
	Detection  DetectionConfig  `yaml:"detection"`
	Cache      CacheConfig      `yaml:"cache"`
	Display    DisplayConfig    `yaml:"display"`
	Database   DatabaseConfig   `yaml:"database"`
}

type PhotoPrismConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DatabaseURL string `yaml:"database_url"` // MariaDB DSN for direct database access (optional)
}

type DetectionConfig struct {
	BatchSize     int     `yaml:"batch_size"`     // photos per batch, 0 = capability default
	MinFaceSize   float64 `yaml:"min_face_size"`  // full-resolution projected units
	LegacyOffset  float64 `yaml:"legacy_offset"`  // threshold offset applied on legacy devices
	HighAccuracy  *bool   `yaml:"high_accuracy"`  // nil = capability default
	ThumbSize     int     `yaml:"thumb_size"`     // target size for detection thumbnails
	CascadePath   string  `yaml:"cascade_path"`   // pigo cascade model file
	LimitedAccess bool    `yaml:"limited_access"` // restricted library permission mode
}

type CacheConfig struct {
	Dir string `yaml:"dir"` // directory for file-backed cache persistence
	Key string `yaml:"key"` // storage namespace key
}

type DisplayConfig struct {
	Width  int  `yaml:"width"`  // consumer display width in px, drives capability tier
	Height int  `yaml:"height"` // consumer display height in px
	Legacy bool `yaml:"legacy"` // force the legacy capability tier
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`            // PostgreSQL connection URL for cache persistence
	MaxOpenConns int    `yaml:"max_open_conns"` // default 5
	MaxIdleConns int    `yaml:"max_idle_conns"` // default 2
}

// Detection defaults. MinFaceSize and LegacyOffset are expressed in
// full-resolution projected units (see detector package).
const (
	DefaultMinFaceSize  = 200.0
	DefaultLegacyOffset = 40.0
	DefaultThumbSize    = 224
	DefaultCacheKey     = "face-detection"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean ("1", "true", "yes").
func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Load builds the configuration from environment variables. If FACESCAN_CONFIG
// points to a YAML file, its values are overlaid on top of the env-derived
// config; a missing file is an error, an unset variable is not.
func Load() (*Config, error) {
	cfg := &Config{
		PhotoPrism: PhotoPrismConfig{
			URL:         os.Getenv("PHOTOPRISM_URL"),
			Username:    os.Getenv("PHOTOPRISM_USERNAME"),
			Password:    os.Getenv("PHOTOPRISM_PASSWORD"),
			DatabaseURL: os.Getenv("PHOTOPRISM_DATABASE_URL"),
		},
		Detection: DetectionConfig{
			BatchSize:     envInt("FACESCAN_BATCH_SIZE", 0),
			MinFaceSize:   envFloat("FACESCAN_MIN_FACE_SIZE", DefaultMinFaceSize),
			LegacyOffset:  envFloat("FACESCAN_LEGACY_OFFSET", DefaultLegacyOffset),
			ThumbSize:     envInt("FACESCAN_THUMB_SIZE", DefaultThumbSize),
			CascadePath:   os.Getenv("FACESCAN_CASCADE_PATH"),
			LimitedAccess: envBool("FACESCAN_LIMITED_ACCESS"),
		},
		Cache: CacheConfig{
			Dir: os.Getenv("FACESCAN_CACHE_DIR"),
			Key: DefaultCacheKey,
		},
		Display: DisplayConfig{
			Width:  envInt("FACESCAN_DISPLAY_WIDTH", 0),
			Height: envInt("FACESCAN_DISPLAY_HEIGHT", 0),
			Legacy: envBool("FACESCAN_DISPLAY_LEGACY"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
	}

	if key := os.Getenv("FACESCAN_CACHE_KEY"); key != "" {
		cfg.Cache.Key = key
	}
	if v := os.Getenv("FACESCAN_HIGH_ACCURACY"); v != "" {
		high := v == "1" || v == "true" || v == "yes"
		cfg.Detection.HighAccuracy = &high
	}

	if path := os.Getenv("FACESCAN_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// EffectiveBatchSize resolves the batch size: explicit config wins,
// otherwise the capability tier default applies.
func (c *Config) EffectiveBatchSize() int {
	if c.Detection.BatchSize > 0 {
		return c.Detection.BatchSize
	}
	return c.Tier().BatchSize()
}

// EffectiveHighAccuracy resolves the detector accuracy: explicit config wins,
// otherwise only the legacy tier degrades to low accuracy.
func (c *Config) EffectiveHighAccuracy() bool {
	if c.Detection.HighAccuracy != nil {
		return *c.Detection.HighAccuracy
	}
	return c.Tier() != TierLegacy
}

// Tier resolves the device capability tier from the configured display metrics.
func (c *Config) Tier() Tier {
	return ResolveTier(c.Display.Width, c.Display.Height, c.Display.Legacy)
}
