package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an explicit config file location.
const ConfigPathEnvVar = "CINESPOT_CONFIG"

// DefaultConfigPaths are searched in order when no explicit path is set.
var DefaultConfigPaths = []string{
	"cinespot.yaml",
	"config/cinespot.yaml",
	"/etc/cinespot/config.yaml",
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
}

type TMDBConfig struct {
	APIKey   string        `koanf:"api_key"`
	Language string        `koanf:"language"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type SuggestConfig struct {
	OpenAIAPIKey  string        `koanf:"openai_api_key"`
	OpenAIModel   string        `koanf:"openai_model"`
	GeminiAPIKey  string        `koanf:"gemini_api_key"`
	GeminiEnabled bool          `koanf:"gemini_enabled"`
	SourceTimeout time.Duration `koanf:"source_timeout"`
}

type StorageConfig struct {
	DataDir  string `koanf:"data_dir"`
	CacheDir string `koanf:"cache_dir"`
}

type LogConfig struct {
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	TMDB    TMDBConfig    `koanf:"tmdb"`
	Suggest SuggestConfig `koanf:"suggest"`
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		TMDB: TMDBConfig{
			Language: "en-US",
			CacheTTL: 6 * time.Hour,
		},
		Suggest: SuggestConfig{
			OpenAIModel:   "gpt-3.5-turbo",
			SourceTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:  "data",
			CacheDir: "cache",
		},
		Log: LogConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from layered sources with clear precedence:
// environment variables over the optional YAML file over built-in defaults.
// Environment names map CINESPOT_SERVER_PORT -> server.port.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("CINESPOT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CINESPOT_")
		return strings.Replace(strings.ToLower(s), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Suggest.SourceTimeout <= 0 {
		return fmt.Errorf("suggest source_timeout must be positive")
	}
	if c.TMDB.CacheTTL <= 0 {
		return fmt.Errorf("tmdb cache_ttl must be positive")
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
