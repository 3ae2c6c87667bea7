package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// WhatsAppConfig holds gateway settings for the WhatsApp adapter.
type WhatsAppConfig struct {
	// GatewayURL is the HTTP endpoint of the WhatsApp sending gateway.
	GatewayURL string
	// Token authenticates against the gateway.
	Token string
}

// WhatsAppAdapter delivers message content through an HTTP WhatsApp gateway.
type WhatsAppAdapter struct {
	cfg    WhatsAppConfig
	client *http.Client
}

// NewWhatsAppAdapter creates a WhatsApp adapter with a 10s request timeout.
func NewWhatsAppAdapter(cfg WhatsAppConfig) *WhatsAppAdapter {
	return &WhatsAppAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel implements Adapter.
func (a *WhatsAppAdapter) Channel() models.DeliveryChannel {
	return models.ChannelWhatsApp
}

// Send implements Adapter. The destination is the recipient phone number.
func (a *WhatsAppAdapter) Send(ctx context.Context, destination, content string) (string, error) {
	if a.cfg.GatewayURL == "" {
		return "", fmt.Errorf("whatsapp adapter not configured (gateway url missing)")
	}

	body, err := json.Marshal(map[string]string{
		"to":   destination,
		"body": content,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}

	return fmt.Sprintf("whatsapp sent to %s", destination), nil
}
