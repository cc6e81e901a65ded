// Package notify delivers completion notifications for processed
// generation records. The orchestration core only depends on the
// Notifier interface; SMTP is the default transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Summary is the aggregate outcome of one processed generation record,
// as delivered to the notification transport.
type Summary struct {
	UserID            string
	RecordID          uuid.UUID
	SucceededRequests int
	FailedRequests    int
	TotalQuestions    int
	GeneratedAt       time.Time
}

// Notifier delivers a completion summary. Delivery failures must not fail
// record processing; callers log and move on.
type Notifier interface {
	Notify(ctx context.Context, summary Summary) error
}

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// NoopNotifier discards notifications. Used when notification is disabled.
type NoopNotifier struct{}

// Notify implements Notifier.
func (NoopNotifier) Notify(context.Context, Summary) error { return nil }

// SMTPNotifier sends a plain-text summary mail per processed record.
type SMTPNotifier struct {
	cfg    Config
	logger *slog.Logger

	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTP notifier from the given settings.
func NewSMTPNotifier(cfg Config, logger *slog.Logger) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, errors.New("smtp host and port are required")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, errors.New("smtp from and to addresses are required")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger.With("component", "smtp_notifier"),
		send:   smtp.SendMail,
	}, nil
}

// Notify implements Notifier.
func (n *SMTPNotifier) Notify(ctx context.Context, summary Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := buildMessage(n.cfg.From, n.cfg.To, summary)
	if err := n.send(addr, auth, n.cfg.From, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("send notification mail: %w", err)
	}

	n.logger.InfoContext(ctx, "notification sent",
		"record_id", summary.RecordID,
		"user_id", summary.UserID,
		"total_questions", summary.TotalQuestions)
	return nil
}

func buildMessage(from, to string, s Summary) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Question generation %s finished\r\n", s.RecordID)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "Generation record %s for user %s finished at %s.\r\n\r\n",
		s.RecordID, s.UserID, s.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Requests succeeded: %d\r\n", s.SucceededRequests)
	fmt.Fprintf(&b, "Requests failed:    %d\r\n", s.FailedRequests)
	fmt.Fprintf(&b, "Questions produced: %d\r\n", s.TotalQuestions)

	return []byte(b.String())
}
