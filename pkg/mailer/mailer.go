// Package mailer sends account emails over SMTP.
package mailer

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`<p>Hi {{.Username}},</p>
<p>Please confirm your email address to activate your account.</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>If you did not sign up, you can ignore this message.</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<p>Hi {{.Username}},</p>
<p>Your password has been reset. Your new password is:</p>
<p><strong>{{.Password}}</strong></p>
<p>Please log in and change it right away.</p>`))
)

// Dialer is the part of gomail.Dialer the mailer needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer renders account emails and hands them to an SMTP dialer.
type SMTPMailer struct {
	dialer Dialer
	from   string
}

func New(host string, port int, username, password, from string) *SMTPMailer {
	return NewWithDialer(gomail.NewDialer(host, port, username, password), from)
}

func NewWithDialer(d Dialer, from string) *SMTPMailer {
	return &SMTPMailer{dialer: d, from: from}
}

func (m *SMTPMailer) SendVerificationEmail(to, username, link string) error {
	return m.send(to, "Verify your email", verificationTmpl, map[string]string{
		"Username": username,
		"Link":     link,
	})
}

func (m *SMTPMailer) SendPasswordResetEmail(to, username, password string) error {
	return m.send(to, "Your new password", resetTmpl, map[string]string{
		"Username": username,
		"Password": password,
	})
}

func (m *SMTPMailer) send(to, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return errors.Wrapf(err, "render %s", tmpl.Name())
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrapf(err, "send %s mail", tmpl.Name())
	}
	return nil
}
