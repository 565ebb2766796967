package jobs

import (
	"bytes"
	"context"
	"errors"
	"html/template"

	"github.com/perennia/storefront/pkg/notification"
)

// ContactAlertJob forwards a contact-form message to the admin.
type ContactAlertJob struct {
	MessageID string `json:"message_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`

	adminEmail string
}

func (ContactAlertJob) JobName() string { return ContactAlertName }

func (j *ContactAlertJob) Handle(ctx context.Context) error {
	if errs := notification.Send(ctx, j.adminEmail, contactAlert{job: j}); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

type contactAlert struct{ job *ContactAlertJob }

func (contactAlert) Via() []string { return []string{notification.Mail, notification.Slack} }

func (n contactAlert) ToMail() notification.MailData {
	return notification.MailData{
		Subject: "Contact form: " + n.job.Subject,
		Text:    n.job.Name + " <" + n.job.Email + "> left a message. Read it in the dashboard.",
	}
}

func (n contactAlert) ToSlack() notification.SlackData {
	return notification.SlackData{Text: "New message from " + n.job.Name + ": " + n.job.Subject}
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
