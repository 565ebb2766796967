// Package notification fans a message out to the admin's channels.
//
//	type orderAlert struct{ order models.Order }
//	func (n orderAlert) Via() []string { return []string{notification.Mail, notification.Slack} }
//	func (n orderAlert) ToMail() notification.MailData { ... }
//	func (n orderAlert) ToSlack() notification.SlackData { ... }
//
//	errs := notification.Send(ctx, "owner@perennia.bb", orderAlert{order})
//
// A channel without a destination configured is skipped, not failed.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perennia/storefront/pkg/http"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/mail"
)

// Channel names returned by Via.
const (
	Mail    = "mail"
	Slack   = "slack"
	Webhook = "webhook"
)

// ErrSkipped marks a channel that had nowhere to deliver.
var ErrSkipped = errors.New("notification: channel not configured")

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the notifiable address if set
	Subject string
	HTML    string
	Text    string // used when HTML is empty
}

type SlackData struct {
	WebhookURL  string // overrides the default webhook if set
	Text        string
	Attachments []SlackAttachment
}

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData carries an arbitrary JSON payload to POST to a URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// Notification is the interface every notification must satisfy.
type Notification interface {
	Via() []string
}

type Mailable interface {
	ToMail() MailData
}

type Slackable interface {
	ToSlack() SlackData
}

type Webhookable interface {
	ToWebhook() WebhookData
}

var defaultSlackWebhook string

// SetSlackWebhook sets the default Slack incoming webhook URL.
func SetSlackWebhook(url string) { defaultSlackWebhook = url }

// Send dispatches n through every channel returned by Via. address is the
// mail recipient. Skipped channels are logged at debug and not returned.
func Send(ctx context.Context, address string, n Notification) []error {
	log := logger.WithCtx(ctx)
	var errs []error
	for _, channel := range n.Via() {
		err := dispatch(ctx, address, channel, n)
		switch {
		case err == nil:
		case errors.Is(err, ErrSkipped):
			log.Debug("notification channel skipped", "channel", channel, "type", fmt.Sprintf("%T", n))
		default:
			log.Error("notification channel failed", "channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

func dispatch(ctx context.Context, address, channel string, n Notification) error {
	switch channel {
	case Mail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return sendMail(ctx, address, m.ToMail())

	case Slack:
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return sendSlack(ctx, s.ToSlack())

	case Webhook:
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return sendWebhook(ctx, wh.ToWebhook())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

func sendMail(ctx context.Context, address string, d MailData) error {
	to := d.To
	if to == "" {
		to = address
	}
	if to == "" {
		return ErrSkipped
	}

	msg := mail.To(to).WithSubject(d.Subject)
	if d.HTML != "" {
		msg.HTMLBody(d.HTML)
	} else {
		msg.Text(d.Text)
	}
	return msg.Send(ctx)
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func sendSlack(ctx context.Context, d SlackData) error {
	url := d.WebhookURL
	if url == "" {
		url = defaultSlackWebhook
	}
	if url == "" {
		return ErrSkipped
	}

	resp, err := http.Post(url).
		Body(slackPayload{Text: d.Text, Attachments: d.Attachments}).
		Timeout(5 * time.Second).
		Retry(2, 500*time.Millisecond).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("notification: slack: %w", err)
	}
	return nil
}

func sendWebhook(ctx context.Context, d WebhookData) error {
	if d.URL == "" {
		return ErrSkipped
	}

	resp, err := http.Post(d.URL).
		Headers(d.Headers).
		Body(d.Payload).
		Timeout(10 * time.Second).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("notification: webhook: %w", err)
	}
	return nil
}
