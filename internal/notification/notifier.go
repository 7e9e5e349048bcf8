package notification

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/model"
	"context"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"
)

// New builds the notifier selected by cfg. The returned close function
// releases its connection and is never nil.
func New(cfg config.NotifierConfig) (model.Notifier, func(), error) {
	switch cfg.Type {
	case "", "log":
		return LogNotifier{}, func() {}, nil
	case "nats":
		n, err := NewNATSNotifier(cfg.NATS)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create nats notifier: %w", err)
		}
		return n, n.Close, nil
	case "email":
		return NewEmailNotifier(cfg.SMTP), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier type '%s'", cfg.Type)
	}
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

// Notify logs the notification.
func (LogNotifier) Notify(_ context.Context, n model.Notification) error {
	log.Printf("[%s] %s: %s (run %s)", n.Kind, n.Title, n.Description, n.RunID)
	return nil
}

// EmailNotifier implements the Notifier interface for sending emails.
type EmailNotifier struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	// PlainAuth will not send credentials until the server identifies itself as a trusted one.
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	return &EmailNotifier{cfg: cfg, auth: auth, send: smtp.SendMail}
}

// Notify sends an email to the configured recipients.
func (n *EmailNotifier) Notify(_ context.Context, msg model.Notification) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	recipients := strings.Split(n.cfg.To, ",")

	err := n.send(addr, n.auth, n.cfg.From, recipients, n.message(msg))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) message(msg model.Notification) []byte {
	body := "<h1>" + html.EscapeString(msg.Title) + "</h1>" +
		"<p>" + html.EscapeString(msg.Description) + "</p>"
	if s := msg.Stats; s != nil {
		body += fmt.Sprintf("<ul><li>Devices: %d</li><li>Blocked: %d</li><li>Monitoring: %d</li><li>Clean: %d</li><li>Processing time: %d ms</li></ul>",
			s.TotalDevices, s.ThreatsBlocked, s.UnderMonitoring, s.CleanDevices, s.ProcessingTime)
	}
	body += "<p><small>Run " + html.EscapeString(msg.RunID) + "</small></p>"

	return []byte("To: " + n.cfg.To + "\r\n" +
		"From: " + n.cfg.From + "\r\n" +
		"Subject: BotSpectra: " + msg.Title + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body)
}
