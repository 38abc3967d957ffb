package smtp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"
	"time"

	"github.com/jmorake/floodwatch/internal/config"
)

const subject = "Flood Alert Notification"

// bodyTemplate wraps the alert label in the operator-facing message.
var bodyTemplate = template.Must(template.New("alert").Parse(`Attention:

{{.Alert}}

City: {{.City}}
Issued: {{.Issued}}

Please take necessary precautions.

--
floodwatch monitoring
`))

// Notifier delivers alert emails over SMTP with STARTTLS-capable PlainAuth.
// It implements job.Notifier.
type Notifier struct {
	cfg    config.SMTPConfig
	city   string
	logger *slog.Logger

	// send is swapped out in tests to capture the wire message.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotifier creates an email notifier. With incomplete SMTP configuration
// it degrades to logging the alert instead of returning errors, so a
// misconfigured mailbox never fails a monitoring cycle.
func NewNotifier(cfg config.SMTPConfig, city string, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		city:   city,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// Notify emails the alert message to the configured recipient.
func (n *Notifier) Notify(_ context.Context, alert string) error {
	if !n.cfg.Configured() {
		n.logger.Warn("smtp not configured, skipping email alert", "alert", alert)
		return nil
	}

	body, err := renderBody(alert, n.city)
	if err != nil {
		return fmt.Errorf("render alert email: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\n\r\n%s",
		n.cfg.From, n.cfg.To, subject, time.Now().Format(time.RFC1123Z), body)

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	if err := n.send(addr, auth, n.cfg.From, []string{n.cfg.To}, []byte(msg)); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	n.logger.Info("alert email sent", "to", n.cfg.To)
	return nil
}

func renderBody(alert, city string) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Alert  string
		City   string
		Issued string
	}{
		Alert:  alert,
		City:   city,
		Issued: time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
