package models

// DeliveryChannel identifies one of the outbound delivery mechanisms.
type DeliveryChannel string

const (
	// ChannelEmail delivers via the configured email gateway.
	ChannelEmail DeliveryChannel = "email"
	// ChannelWhatsApp delivers via the configured WhatsApp gateway.
	ChannelWhatsApp DeliveryChannel = "whatsapp"
	// ChannelWebhook POSTs the content to an HTTP endpoint.
	ChannelWebhook DeliveryChannel = "webhook"
	// ChannelNotification writes to the in-app notification inbox.
	ChannelNotification DeliveryChannel = "notification"
)

// Valid returns true if the channel is a known value.
func (c DeliveryChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelWebhook, ChannelNotification:
		return true
	default:
		return false
	}
}
