package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no Anthropic API key could be resolved.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// apiKeyEnvVars are checked in order before the config file. The
// Anthropic SDK's own variable wins over the RankPilot-prefixed one so a
// globally configured key keeps working inside RankPilot projects.
var apiKeyEnvVars = []string{"ANTHROPIC_API_KEY", "RANKPILOT_API_KEY"}

// KeySource identifies where the API key was resolved from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// resolveKey finds the effective API key and its source. Config-file
// values may reference environment variables (api_key: ${MY_KEY}); an
// unexpanded reference counts as unset.
func resolveKey(cfg *Config) (string, KeySource) {
	for _, name := range apiKeyEnvVars {
		if key := os.Getenv(name); key != "" {
			return key, KeySourceEnv
		}
	}

	if cfg != nil {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, KeySourceConfig
		}
	}

	return "", KeySourceNone
}

// GetAPIKey returns the Anthropic API key, preferring environment
// variables over the merged user/project config.
func GetAPIKey(cfg *Config) (string, error) {
	key, source := resolveKey(cfg)
	if source == KeySourceNone {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// GetAPIKeySource returns where the effective API key comes from, for
// the config command's display.
func GetAPIKeySource(cfg *Config) KeySource {
	_, source := resolveKey(cfg)
	return source
}

// ValidateAPIKey checks the key's shape without calling the API.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case !strings.HasPrefix(key, "sk-ant-"):
		return fmt.Errorf("invalid API key: expected sk-ant- prefix, got %q", MaskAPIKey(key))
	case len(key) < 20:
		return errors.New("invalid API key: too short")
	}
	return nil
}

// MaskAPIKey returns a display form that keeps the prefix and the last
// four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 15 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}
