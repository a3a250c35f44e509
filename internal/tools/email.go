package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the sender credentials for the email tool.
// Host and Port default to Gmail when empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// Configured reports whether the sender credentials are present.
func (c SMTPConfig) Configured() bool {
	return c.Sender != "" && c.Password != ""
}

// addr returns the host:port to dial, defaulting to Gmail submission.
func (c SMTPConfig) addr() (host string, full string) {
	host = c.Host
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := c.Port
	if port == 0 {
		port = 587
	}
	return host, fmt.Sprintf("%s:%d", host, port)
}

// sendFunc sends a message; tests override it to avoid a real SMTP dial.
type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailTool sends the final itinerary to the traveler over SMTP.
// Delivery is best-effort: the planner treats a failure here as a degraded
// plan, not a failed run.
type EmailTool struct {
	cfg    SMTPConfig
	send   sendFunc
	logger *slog.Logger
}

// EmailOption configures an EmailTool.
type EmailOption func(*EmailTool)

// WithSendFunc overrides the SMTP send. Used by tests.
func WithSendFunc(send sendFunc) EmailOption {
	return func(t *EmailTool) {
		t.send = send
	}
}

// WithEmailLogger sets the logger.
func WithEmailLogger(logger *slog.Logger) EmailOption {
	return func(t *EmailTool) {
		t.logger = logger
	}
}

// NewEmailTool creates the email tool.
func NewEmailTool(cfg SMTPConfig, opts ...EmailOption) *EmailTool {
	t := &EmailTool{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *EmailTool) Name() string {
	return "send_email"
}

func (t *EmailTool) Description() string {
	return "Sends an email with the final trip itinerary to the user. " +
		"Provide the recipient address, a subject line, and the plan as the HTML body."
}

func (t *EmailTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to_email": map[string]any{
				"type":        "string",
				"description": "The recipient's email address.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "The subject line of the email.",
			},
			"body_html": map[string]any{
				"type":        "string",
				"description": "The HTML content of the email body, typically the final plan.",
			},
		},
		"required": []any{"to_email", "subject", "body_html"},
	}
}

// Call sends the message. An unconfigured sender is reported as an error so
// the model can note the plan was not emailed.
func (t *EmailTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if !t.cfg.Configured() {
		return "", fmt.Errorf("email functionality is disabled because sender credentials are not configured")
	}

	to := stringArg(args, "to_email")
	subject := stringArg(args, "subject")
	body := stringArg(args, "body_html")

	if to == "" || subject == "" {
		return "", fmt.Errorf("to_email and subject are required")
	}

	host, addr := t.cfg.addr()
	auth := smtp.PlainAuth("", t.cfg.Sender, t.cfg.Password, host)

	msg := strings.Join([]string{
		"From: " + t.cfg.Sender,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	t.logger.Info("sending itinerary email",
		slog.String("to", to),
		slog.String("subject", subject),
	)

	if err := t.send(addr, auth, t.cfg.Sender, []string{to}, []byte(msg)); err != nil {
		t.logger.Error("email send failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("sending the email failed: %w", err)
	}

	t.logger.Info("email sent", slog.String("to", to))
	return fmt.Sprintf("Email with the trip plan has been successfully sent to %s.", to), nil
}
