package notification_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/mail"
	"github.com/perennia/storefront/pkg/notification"
)

type alert struct {
	via   []string
	slack string
}

func (a alert) Via() []string { return a.via }

func (a alert) ToMail() notification.MailData {
	return notification.MailData{Subject: "New order", HTML: "<p>order</p>"}
}

func (a alert) ToSlack() notification.SlackData {
	return notification.SlackData{WebhookURL: a.slack, Text: "New order"}
}

func TestSendMailAndSlack(t *testing.T) {
	rec := &mail.Recorder{}
	defer mail.SetSender(rec)()

	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	errs := notification.Send(context.Background(), "owner@perennia.bb", alert{
		via:   []string{notification.Mail, notification.Slack},
		slack: srv.URL,
	})
	assert.Empty(t, errs)

	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, []string{"owner@perennia.bb"}, rec.Sent()[0].To)
	assert.Equal(t, "New order", got["text"])
}

func TestUnconfiguredSlackIsSkipped(t *testing.T) {
	notification.SetSlackWebhook("")
	errs := notification.Send(context.Background(), "", alert{via: []string{notification.Slack, notification.Mail}})
	assert.Empty(t, errs)
}

func TestSlackFailureIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	errs := notification.Send(context.Background(), "", alert{via: []string{notification.Slack}, slack: srv.URL})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "403")
}

func TestUnsupportedChannel(t *testing.T) {
	errs := notification.Send(context.Background(), "", alert{via: []string{notification.Webhook, "pager"}})
	assert.Len(t, errs, 2)
}
