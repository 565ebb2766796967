// Package mail builds and sends the storefront's transactional email.
//
//	err := mail.To(order.UserEmail).
//	    Subject("Your Perennia order").
//	    Template(confirmationTmpl, data).
//	    Send(ctx)
//
// Messages go through the process-wide Sender. With MAIL_HOST set that is
// SMTP; otherwise messages are written to the log.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"sync"

	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/pkg/logger"
)

var ErrNoRecipients = errors.New("mail: no recipients")

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPFromEnv reads the MAIL_* settings.
func SMTPFromEnv() SMTP {
	return SMTP{
		Host:     config.MailHost(),
		Port:     config.MailPort(),
		Username: config.MailUsername(),
		Password: config.MailPassword(),
		From:     config.MailFrom(),
		FromName: config.MailFromName(),
	}
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}

var (
	senderMu sync.RWMutex
	sender   Sender
)

// SetSender replaces the process-wide sender and returns a func restoring
// the previous one.
func SetSender(s Sender) (restore func()) {
	senderMu.Lock()
	prev := sender
	sender = s
	senderMu.Unlock()
	return func() {
		senderMu.Lock()
		sender = prev
		senderMu.Unlock()
	}
}

func currentSender() Sender {
	senderMu.RLock()
	s := sender
	senderMu.RUnlock()
	if s != nil {
		return s
	}
	if cfg := SMTPFromEnv(); cfg.Host != "" {
		return SMTPSender{Config: cfg}
	}
	return LogSender{}
}

// ------------------- Message -------------------

// Message is a fluent builder for an email.
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	HTML    bool

	err error
}

// To starts a message to the given recipients.
func To(addresses ...string) *Message {
	m := &Message{HTML: true}
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			m.To = append(m.To, a)
		}
	}
	return m
}

func (m *Message) Cc(addresses ...string) *Message {
	m.CC = append(m.CC, addresses...)
	return m
}

func (m *Message) WithSubject(s string) *Message {
	m.Subject = s
	return m
}

// HTMLBody sets an HTML body.
func (m *Message) HTMLBody(html string) *Message {
	m.Body = html
	m.HTML = true
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.Body = text
	m.HTML = false
	return m
}

// Template renders tmpl with data into an HTML body. A render failure is
// reported by Send.
func (m *Message) Template(tmpl *template.Template, data interface{}) *Message {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		m.err = fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
		return m
	}
	return m.HTMLBody(buf.String())
}

// Send delivers the message through the current Sender.
func (m *Message) Send(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	return currentSender().Send(ctx, m)
}

// Raw renders the message as an RFC 5322 document.
func (m *Message) Raw(from string) []byte {
	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	if len(m.CC) > 0 {
		b.WriteString("Cc: " + strings.Join(m.CC, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}

// ------------------- Senders -------------------

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m *Message) error {
	logger.WithCtx(ctx).Info("mail not configured, message logged",
		"to", strings.Join(m.To, ","), "subject", m.Subject, "bytes", len(m.Body))
	return nil
}

// SMTPSender delivers over SMTP: implicit TLS on port 465, STARTTLS
// otherwise.
type SMTPSender struct {
	Config SMTP
}

func (s SMTPSender) Send(_ context.Context, m *Message) error {
	cfg := s.Config
	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	rcpt := append(append([]string(nil), m.To...), m.CC...)
	raw := m.Raw(from)

	addr := cfg.Host + ":" + cfg.Port
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	if cfg.Port == "465" {
		return sendTLS(addr, auth, cfg.From, rcpt, raw, cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, cfg.From, rcpt, raw); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

func sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte, host string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Recorder keeps every message it is given. Tests install it with
// SetSender.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Send(_ context.Context, m *Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, *m)
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
