package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rankpilot/rankpilot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify RankPilot configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/rankpilot/config.yaml
Project-specific overrides can be placed in .rankpilot.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (from %s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.max_tokens: %d\n", cfg.Anthropic.MaxTokens)
	fmt.Printf("engine.split_fan_out: %d\n", cfg.Engine.SplitFanOut)
	fmt.Printf("engine.delay_cap: %s\n", cfg.Engine.DelayCap)
	fmt.Printf("engine.refine_group_max: %d\n", cfg.Engine.RefineGroupMax)
	fmt.Printf("engine.daily_plan_days: %d\n", cfg.Engine.DailyPlanDays)
	fmt.Printf("engine.skip_refinement: %t\n", cfg.Engine.SkipRefinement)
	fmt.Printf("delivery.email.host: %s\n", cfg.Delivery.Email.Host)
	fmt.Printf("delivery.email.from: %s\n", cfg.Delivery.Email.From)
	fmt.Printf("delivery.whatsapp.gateway_url: %s\n", cfg.Delivery.WhatsApp.GatewayURL)
	fmt.Printf("logging.debug_log_path: %s\n", cfg.Logging.DebugLogPath)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s\n", key)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.max_tokens":
		return strconv.Itoa(cfg.Anthropic.MaxTokens), nil
	case "engine.split_fan_out":
		return strconv.Itoa(cfg.Engine.SplitFanOut), nil
	case "engine.delay_cap":
		return cfg.Engine.DelayCap.String(), nil
	case "engine.refine_group_max":
		return strconv.Itoa(cfg.Engine.RefineGroupMax), nil
	case "engine.daily_plan_days":
		return strconv.Itoa(cfg.Engine.DailyPlanDays), nil
	case "engine.skip_refinement":
		return strconv.FormatBool(cfg.Engine.SkipRefinement), nil
	case "delivery.email.host":
		return cfg.Delivery.Email.Host, nil
	case "delivery.email.from":
		return cfg.Delivery.Email.From, nil
	case "delivery.whatsapp.gateway_url":
		return cfg.Delivery.WhatsApp.GatewayURL, nil
	case "logging.debug_log_path":
		return cfg.Logging.DebugLogPath, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_tokens: %s", value)
		}
		cfg.Anthropic.MaxTokens = n
	case "engine.split_fan_out":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid fan-out: %s", value)
		}
		cfg.Engine.SplitFanOut = n
	case "engine.delay_cap":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Engine.DelayCap = d
	case "engine.refine_group_max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 2 {
			return fmt.Errorf("invalid group max (need >= 2): %s", value)
		}
		cfg.Engine.RefineGroupMax = n
	case "engine.daily_plan_days":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid plan days: %s", value)
		}
		cfg.Engine.DailyPlanDays = n
	case "engine.skip_refinement":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Engine.SkipRefinement = b
	case "delivery.email.host":
		cfg.Delivery.Email.Host = value
	case "delivery.email.from":
		cfg.Delivery.Email.From = value
	case "delivery.whatsapp.gateway_url":
		cfg.Delivery.WhatsApp.GatewayURL = value
	case "logging.debug_log_path":
		cfg.Logging.DebugLogPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
