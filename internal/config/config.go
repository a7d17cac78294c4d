package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir string       `mapstructure:"data_dir"`
	Notion  NotionConfig `mapstructure:"notion"`
	Cache   CacheConfig  `mapstructure:"cache"`
	Canvas  CanvasConfig `mapstructure:"canvas"`
}

type NotionConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
	Version string `mapstructure:"version"`
}

type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

type CanvasConfig struct {
	DebounceMillis int `mapstructure:"debounce_ms"`
}

func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	defaultDataDir := filepath.Join(homeDir, ".flowblocs")

	viper.SetDefault("data_dir", defaultDataDir)
	viper.SetDefault("notion.base_url", "https://api.notion.com")
	viper.SetDefault("notion.version", "2022-06-28")
	viper.SetDefault("cache.ttl_minutes", 30)
	viper.SetDefault("canvas.debounce_ms", 500)

	// Environment variable overrides
	viper.SetEnvPrefix("FLOWBLOCS")
	viper.AutomaticEnv()
	viper.BindEnv("data_dir", "FLOWBLOCS_DATA_DIR")
	viper.BindEnv("notion.token", "FLOWBLOCS_NOTION_TOKEN", "NOTION_TOKEN")
	viper.BindEnv("notion.base_url", "FLOWBLOCS_NOTION_BASE_URL")
	viper.BindEnv("notion.version", "FLOWBLOCS_NOTION_VERSION")

	// Config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultDataDir)

	// Read config file if exists (ignore error if not found)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

func (c *Config) CanvasDebounce() time.Duration {
	if c.Canvas.DebounceMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Canvas.DebounceMillis) * time.Millisecond
}
