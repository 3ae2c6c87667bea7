package deliver

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// EmailConfig holds SMTP settings for the email adapter.
type EmailConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// From is the sender address.
	From string
	// Username and Password authenticate against the SMTP server.
	// Auth is skipped when Username is empty.
	Username string
	Password string
	// Subject is the subject line applied to every message.
	Subject string
}

// sendMailFunc matches smtp.SendMail; injectable for tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailAdapter delivers report content over SMTP.
type EmailAdapter struct {
	cfg      EmailConfig
	sendMail sendMailFunc
}

// NewEmailAdapter creates an email adapter with the given SMTP settings.
func NewEmailAdapter(cfg EmailConfig) *EmailAdapter {
	if cfg.Subject == "" {
		cfg.Subject = "RankPilot report"
	}
	return &EmailAdapter{cfg: cfg, sendMail: smtp.SendMail}
}

// Channel implements Adapter.
func (a *EmailAdapter) Channel() models.DeliveryChannel {
	return models.ChannelEmail
}

// Send implements Adapter. The destination is the recipient address.
func (a *EmailAdapter) Send(ctx context.Context, destination, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.cfg.Host == "" {
		return "", fmt.Errorf("email adapter not configured (smtp host missing)")
	}

	var auth smtp.Auth
	if a.cfg.Username != "" {
		auth = smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", a.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", destination)
	fmt.Fprintf(&msg, "Subject: %s\r\n", a.cfg.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(content)

	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	if err := a.sendMail(addr, auth, a.cfg.From, []string{destination}, []byte(msg.String())); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	return fmt.Sprintf("email sent to %s", destination), nil
}
