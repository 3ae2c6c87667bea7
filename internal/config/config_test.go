package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfigFile(t, `
anthropic:
  api_key: sk-ant-REDACTED
  model: claude-sonnet-4-20250514
  use_bedrock: true
  aws_region: us-west-2
engine:
  split_fan_out: 8
  delay_cap: 10s
  daily_plan_days: 3
delivery:
  email:
    host: smtp.example.com
    from: reports@example.com
  whatsapp:
    gateway_url: https://wa.example.com/send
logging:
  debug_log_path: /tmp/rankpilot-debug.log
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-REDACTED" {
		t.Errorf("unexpected api key: %s", cfg.Anthropic.APIKey)
	}
	if !cfg.Anthropic.UseBedrock || cfg.Anthropic.AWSRegion != "us-west-2" {
		t.Errorf("bedrock settings lost: %+v", cfg.Anthropic)
	}
	if cfg.Engine.SplitFanOut != 8 {
		t.Errorf("expected fan-out 8, got %d", cfg.Engine.SplitFanOut)
	}
	if cfg.Engine.DelayCap != 10*time.Second {
		t.Errorf("expected delay cap 10s, got %v", cfg.Engine.DelayCap)
	}
	if cfg.Engine.DailyPlanDays != 3 {
		t.Errorf("expected 3 plan days, got %d", cfg.Engine.DailyPlanDays)
	}
	if cfg.Delivery.Email.Host != "smtp.example.com" {
		t.Errorf("email host lost: %+v", cfg.Delivery.Email)
	}
	if cfg.Delivery.WhatsApp.GatewayURL != "https://wa.example.com/send" {
		t.Errorf("whatsapp gateway lost: %+v", cfg.Delivery.WhatsApp)
	}
	if cfg.Logging.DebugLogPath != "/tmp/rankpilot-debug.log" {
		t.Errorf("debug log path lost: %s", cfg.Logging.DebugLogPath)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := writeConfigFile(t, "anthropic:\n  api_key: sk-ant-abc\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Engine.SplitFanOut != 4 {
		t.Errorf("expected default fan-out 4, got %d", cfg.Engine.SplitFanOut)
	}
	if cfg.Engine.DelayCap != 30*time.Second {
		t.Errorf("expected default delay cap 30s, got %v", cfg.Engine.DelayCap)
	}
	if cfg.Engine.DailyPlanDays != 5 {
		t.Errorf("expected default 5 plan days, got %d", cfg.Engine.DailyPlanDays)
	}
	if cfg.Delivery.Email.Port != 587 {
		t.Errorf("expected default SMTP port 587, got %d", cfg.Delivery.Email.Port)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("expected default max tokens 4096, got %d", cfg.Anthropic.MaxTokens)
	}
}

func TestLoadFromPathExpandsEnvInAPIKey(t *testing.T) {
	t.Setenv("RANKPILOT_TEST_KEY", "sk-ant-from-env-1234567890")
	path := writeConfigFile(t, "anthropic:\n  api_key: ${RANKPILOT_TEST_KEY}\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env-1234567890" {
		t.Errorf("env reference not expanded: %s", cfg.Anthropic.APIKey)
	}
}

func TestDefaultMatchesSetDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Engine.SplitFanOut != 4 || cfg.Engine.DelayCap != 30*time.Second {
		t.Errorf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Engine.RefineGroupMax != 3 || cfg.Engine.DailyPlanDays != 5 {
		t.Errorf("unexpected engine defaults: %+v", cfg.Engine)
	}
}
