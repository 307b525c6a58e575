// Package config loads settings for the geuui CLI and issuer programs from an optional
// YAML file and GEUUI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Lzww0608/geuui/internal/log"
)

const envPrefix = "GEUUI"

type Config struct {
	Log     log.Config
	Output  OutputConfig
	Segment SegmentConfig
	Node    NodeConfig
}

type OutputConfig struct {
	// Format is "compact" or "separated"
	Format string
	Count  int
}

type SegmentConfig struct {
	DSN    string `mapstructure:"dsn"`
	BizTag string `mapstructure:"biz_tag"`
}

type NodeConfig struct {
	Servers  []string
	Service  string
	Port     int
	CacheDir string `mapstructure:"cache_dir"`
}

// Load reads configuration from configPath (a directory) and the environment.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("geuui")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("output.format", "compact")
	v.SetDefault("output.count", 1)
	v.SetDefault("segment.dsn", "root:root@tcp(127.0.0.1:3306)/geuui?parseTime=true")
	v.SetDefault("segment.biz_tag", "default")
	v.SetDefault("node.servers", []string{"127.0.0.1:2181"})
	v.SetDefault("node.service", "geuui")
	v.SetDefault("node.port", 8080)
	v.SetDefault("node.cache_dir", ".")
}

// Validate checks values that would otherwise fail later at use time.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "compact", "separated":
	default:
		return fmt.Errorf("config: output.format must be compact or separated, got %q", c.Output.Format)
	}
	if c.Output.Count < 1 {
		return fmt.Errorf("config: output.count must be positive, got %d", c.Output.Count)
	}
	return nil
}
