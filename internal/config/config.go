// Package config handles configuration loading and management for RankPilot.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for RankPilot.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model is the model identifier passed to the API.
	Model string `mapstructure:"model"`
	// UseBedrock routes completions through AWS Bedrock instead of the
	// Anthropic API directly.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
	// MaxTokens caps each completion response.
	MaxTokens int `mapstructure:"max_tokens"`
}

// EngineConfig holds workflow and orchestrator execution settings.
type EngineConfig struct {
	// SplitFanOut bounds concurrently executing handlers under a split.
	SplitFanOut int `mapstructure:"split_fan_out"`
	// DelayCap is the maximum a delay node may sleep.
	DelayCap time.Duration `mapstructure:"delay_cap"`
	// RefineGroupMax bounds peer critique group size.
	RefineGroupMax int `mapstructure:"refine_group_max"`
	// DailyPlanDays is the daily plan length in business days.
	DailyPlanDays int `mapstructure:"daily_plan_days"`
	// SkipRefinement disables the peer critique pass.
	SkipRefinement bool `mapstructure:"skip_refinement"`
}

// DeliveryConfig holds outbound channel settings.
type DeliveryConfig struct {
	Email    EmailConfig    `mapstructure:"email"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Subject  string `mapstructure:"subject"`
}

// WhatsAppConfig holds WhatsApp gateway settings.
type WhatsAppConfig struct {
	GatewayURL string `mapstructure:"gateway_url"`
	Token      string `mapstructure:"token"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// DebugLogPath enables file-based debug logging when set.
	DebugLogPath string `mapstructure:"debug_log_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, RANKPILOT_*)
// 2. Project config (.rankpilot.yaml in current directory or parent)
// 3. User config (~/.config/rankpilot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over the user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("RANKPILOT")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.use_bedrock", "RANKPILOT_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("delivery.email.password", "RANKPILOT_SMTP_PASSWORD")
	v.BindEnv("delivery.whatsapp.token", "RANKPILOT_WHATSAPP_TOKEN")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("engine.split_fan_out", cfg.Engine.SplitFanOut)
	v.Set("engine.delay_cap", cfg.Engine.DelayCap.String())
	v.Set("engine.refine_group_max", cfg.Engine.RefineGroupMax)
	v.Set("engine.daily_plan_days", cfg.Engine.DailyPlanDays)
	v.Set("engine.skip_refinement", cfg.Engine.SkipRefinement)
	v.Set("delivery.email.host", cfg.Delivery.Email.Host)
	v.Set("delivery.email.port", cfg.Delivery.Email.Port)
	v.Set("delivery.email.from", cfg.Delivery.Email.From)
	v.Set("delivery.email.username", cfg.Delivery.Email.Username)
	v.Set("delivery.email.subject", cfg.Delivery.Email.Subject)
	v.Set("delivery.whatsapp.gateway_url", cfg.Delivery.WhatsApp.GatewayURL)
	v.Set("logging.debug_log_path", cfg.Logging.DebugLogPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.max_tokens", 4096)

	v.SetDefault("engine.split_fan_out", 4)
	v.SetDefault("engine.delay_cap", "30s")
	v.SetDefault("engine.refine_group_max", 3)
	v.SetDefault("engine.daily_plan_days", 5)
	v.SetDefault("engine.skip_refinement", false)

	v.SetDefault("delivery.email.port", 587)
	v.SetDefault("delivery.email.subject", "RankPilot report")
}

// getUserConfigDir returns the XDG config directory for RankPilot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rankpilot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "rankpilot")
	}
	return filepath.Join(home, ".config", "rankpilot")
}

// findProjectConfig searches for .rankpilot.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".rankpilot.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Engine: EngineConfig{
			SplitFanOut:    4,
			DelayCap:       30 * time.Second,
			RefineGroupMax: 3,
			DailyPlanDays:  5,
		},
		Delivery: DeliveryConfig{
			Email: EmailConfig{
				Port:    587,
				Subject: "RankPilot report",
			},
		},
	}
}
