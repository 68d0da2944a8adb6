package utils

import (
	"bytes"
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailData struct {
	To      string
	Name    string
	Subject string
	Lines   []string
}

// Mailer sends plain notification mail over SMTP. A Mailer with no host is
// disabled and Send is a no-op.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	m := &Mailer{from: from}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, user, pass)
	}
	return m
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.dialer != nil
}

func (m *Mailer) Send(data *EmailData) error {
	if !m.Enabled() {
		return nil
	}
	msg := BuildMessage(m.from, data)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("could not send email: %w", err)
	}
	return nil
}

func BuildMessage(from string, data *EmailData) *gomail.Message {
	var body bytes.Buffer
	body.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	for _, line := range data.Lines {
		body.WriteString(line)
		body.WriteString("\n")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", data.To)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/plain", body.String())
	return m
}
