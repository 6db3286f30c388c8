package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"storefront/internal/config"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("no recipient specified")

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	fromEmail string
	dialer    sender
	backoff   time.Duration
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		fromEmail: cfg.From,
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		backoff:   time.Second,
	}
}

// render executes the "subject" and "body" blocks of a template file.
func render(templateFile string, data any) (subject, body string, err error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", err
	}
	subject = buf.String()

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, "body", data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	if email == "" {
		return -1, ErrNoRecipient
	}

	subject, body, err := render(templateFile, data)
	if err != nil {
		return -1, fmt.Errorf("render %s: %w", templateFile, err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return 250, nil
		}
		// linear backoff
		if i < maxRetries-1 {
			time.Sleep(m.backoff * time.Duration(i+1))
		}
	}
	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
