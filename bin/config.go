package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// Environment variables are GOMFT_RECORD_SIZE etc.
	env_prefix = "GOMFT"
)

// Settings which may come from a config file or the environment.
// Command line flags take precedence.
type Config struct {
	RecordSize int64  `mapstructure:"record_size"`
	SectorSize int64  `mapstructure:"sector_size"`
	LogFormat  string `mapstructure:"log_format"`
	PageSize   int64  `mapstructure:"page_size"`
	CachePages int    `mapstructure:"cache_pages"`
}

var (
	record_size_flag = app.Flag(
		"record_size", "Size of an MFT record (usually 1024).").Int64()

	sector_size_flag = app.Flag(
		"sector_size", "Size of a sector for fixups (usually 512).").Int64()

	current_config = defaultConfig()
)

func defaultConfig() *Config {
	return &Config{
		RecordSize: 1024,
		SectorSize: 512,
		LogFormat:  "human",
		PageSize:   0x1000,
		CachePages: 10000,
	}
}

func loadConfig(path string) error {
	v := viper.New()

	defaults := defaultConfig()
	v.SetDefault("record_size", defaults.RecordSize)
	v.SetDefault("sector_size", defaults.SectorSize)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("page_size", defaults.PageSize)
	v.SetDefault("cache_pages", defaults.CachePages)

	v.SetEnvPrefix(env_prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		if err != nil {
			return fmt.Errorf("reading %v: %w", path, err)
		}
	}

	config := &Config{}
	err := v.Unmarshal(config)
	if err != nil {
		return err
	}

	if *record_size_flag > 0 {
		config.RecordSize = *record_size_flag
	}

	if *sector_size_flag > 0 {
		config.SectorSize = *sector_size_flag
	}

	if *log_format_flag != "" {
		config.LogFormat = *log_format_flag
	}

	switch config.LogFormat {
	case "human", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.LogFormat)
	}

	current_config = config
	return nil
}

func getConfig() *Config {
	return current_config
}
