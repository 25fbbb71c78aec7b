package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/config"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, from, recipient, subject, body string) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	addr string
}

func NewSMTPSender(addr string) *SMTPSender {
	return &SMTPSender{addr: addr}
}

func (s *SMTPSender) Send(ctx context.Context, from, recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n",
		from, recipient, subject, body)
	if err := smtp.SendMail(s.addr, nil, from, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

// LogSender records messages to the log instead of delivering them. Used in
// development when no relay is configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, from, recipient, subject, body string) error {
	s.log.Info("email (log transport)", "to", recipient, "subject", subject)
	return nil
}

// NewSenderFromConfig picks the transport named in the config.
func NewSenderFromConfig(cfg config.MailerConfig, log *slog.Logger) Sender {
	if cfg.Transport == "smtp" {
		return NewSMTPSender(cfg.SMTPAddr)
	}
	return NewLogSender(log)
}
