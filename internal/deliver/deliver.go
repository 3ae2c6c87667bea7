// Package deliver provides pluggable outbound delivery adapters for
// workflow action and report nodes: email, WhatsApp, webhook, and in-app
// notifications, dispatched through a channel-keyed registry.
package deliver

import (
	"context"
	"fmt"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// Adapter sends one message to one destination over a single channel.
type Adapter interface {
	// Channel returns the delivery channel this adapter serves.
	Channel() models.DeliveryChannel
	// Send delivers content to destination and returns a human-readable
	// acknowledgement string.
	Send(ctx context.Context, destination, content string) (string, error)
}

// Registry dispatches deliveries to the adapter registered for a channel.
type Registry struct {
	adapters map[models.DeliveryChannel]Adapter
}

// NewRegistry creates a registry with the given adapters. Registering two
// adapters for the same channel keeps the last one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.DeliveryChannel]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Channel()] = a
	}
	return r
}

// Register adds or replaces the adapter for its channel.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Channel()] = a
}

// Deliver sends content to destination over the given channel.
func (r *Registry) Deliver(ctx context.Context, ch models.DeliveryChannel, destination, content string) (string, error) {
	adapter, ok := r.adapters[ch]
	if !ok {
		return "", fmt.Errorf("no adapter registered for channel %q", ch)
	}
	ack, err := adapter.Send(ctx, destination, content)
	if err != nil {
		return "", fmt.Errorf("deliver via %s to %s: %w", ch, destination, err)
	}
	return ack, nil
}

// Channels returns the channels with a registered adapter.
func (r *Registry) Channels() []models.DeliveryChannel {
	out := make([]models.DeliveryChannel, 0, len(r.adapters))
	for ch := range r.adapters {
		out = append(out, ch)
	}
	return out
}
