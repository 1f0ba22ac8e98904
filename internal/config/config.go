// Package config loads application configuration from defaults, an
// optional config.yaml, and AMORA_* environment variables, then
// validates the result.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Fal      FalConfig      `mapstructure:"fal"`
	Database DatabaseConfig `mapstructure:"database"`
	Images   ImagesConfig   `mapstructure:"images"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen" validate:"required"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"     validate:"required"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"required,min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// FalConfig configures the fal.ai image generation client. An empty API
// key is allowed at startup; image requests then fail per-request with a
// configuration error, matching how the app degrades without images.
type FalConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Model   string        `mapstructure:"model"    validate:"required"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"required,min=1s,max=10m"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ImagesConfig struct {
	Retention           time.Duration `mapstructure:"retention"            validate:"required,min=1h"`
	MaintenanceSchedule string        `mapstructure:"maintenance_schedule" validate:"required"`
}

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file (optional)
// 3. AMORA_* environment variables
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("AMORA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("server.listen", ":3050")

	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.temperature", 1.0)
	viper.SetDefault("gemini.timeout", 2*time.Minute)
	viper.SetDefault("gemini.max_retries", 2)
	viper.SetDefault("gemini.retry_delay", 2*time.Second)

	viper.SetDefault("fal.base_url", "https://fal.run")
	viper.SetDefault("fal.model", "fal-ai/flux-pro/v1.1-ultra")
	viper.SetDefault("fal.timeout", 2*time.Minute)

	viper.SetDefault("database.path", "amora.db")

	viper.SetDefault("images.retention", 7*24*time.Hour)
	viper.SetDefault("images.maintenance_schedule", "0 4 * * *")
}
