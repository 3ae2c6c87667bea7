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

// WebhookAdapter POSTs message content to a destination URL as JSON.
type WebhookAdapter struct {
	client *http.Client
}

// NewWebhookAdapter creates a webhook adapter with a 10s request timeout.
func NewWebhookAdapter() *WebhookAdapter {
	return &WebhookAdapter{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel implements Adapter.
func (a *WebhookAdapter) Channel() models.DeliveryChannel {
	return models.ChannelWebhook
}

// Send implements Adapter. The destination is the webhook URL.
func (a *WebhookAdapter) Send(ctx context.Context, destination, content string) (string, error) {
	payload := map[string]any{
		"source":    "rankpilot",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"content":   content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "RankPilot-Delivery/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return fmt.Sprintf("webhook delivered to %s (%d)", destination, resp.StatusCode), nil
}
