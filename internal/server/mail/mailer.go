// Package mail delivers password-reset tokens over SMTP.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	sc "github.com/placekeeper/placekeeper/internal/server/config"
)

var (
	//go:embed templates/password_reset.html
	emailTemplates embed.FS

	passwordResetTemplate = template.Must(
		template.New("password_reset.html").ParseFS(emailTemplates, "templates/password_reset.html"))
)

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

// SMTPMailer sends reset mails through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(cfg *sc.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

// SendPasswordReset renders the reset template and mails it to email.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, name, token string) error {
	if m.host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	from := m.from
	if from == "" {
		from = m.username
	}
	if from == "" {
		return fmt.Errorf("smtp from address is not configured")
	}

	body := bytes.Buffer{}
	data := struct {
		UserName      string
		PasswordToken string
	}{UserName: name, PasswordToken: token}
	if err := passwordResetTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render password reset template: %w", err)
	}

	msg := buildHTMLMessage(from, email, "Reset your password", body.String())

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return sendMail(addr, auth, from, []string{email}, []byte(msg))
}

func buildHTMLMessage(from, to, subject, body string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		from, to, subject, body)
}
