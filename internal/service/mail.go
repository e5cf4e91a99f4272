package service

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mail struct {
	To      string
	Subject string
	Body    string
}

// Deliverer actually sends a mail. It may block for as long as the mail
// server takes.
type Deliverer interface {
	Deliver(ctx context.Context, m *Mail) error
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SkipVerify disables TLS certificate checks, for local relays only
	SkipVerify bool
}

type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPSender(c MailConfig) (*SMTPSender, error) {
	if c.Host == "" || c.Port <= 0 {
		return nil, errors.New("mail host and port are required")
	}

	if c.From == "" {
		return nil, errors.New("mail sender address is required")
	}

	d := gomail.NewDialer(c.Host, c.Port, c.Username, c.Password)
	if c.SkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: c.Host}
	}

	return &SMTPSender{from: c.From, dialer: d}, nil
}

func (s *SMTPSender) Deliver(ctx context.Context, m *Mail) error {
	if strings.EqualFold(m.To, s.from) {
		return errors.New("refusing to mail the sender address")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.Body)

	return s.dialer.DialAndSend(msg)
}

// LogSender writes mails to the debug log instead of sending them. Used when
// mail.enabled is false, which config refuses in production.
type LogSender struct{}

func (LogSender) Deliver(_ context.Context, m *Mail) error {
	zap.L().Debug("Mail delivery disabled, logging mail instead",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body))

	return nil
}
