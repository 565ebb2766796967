package mail_test

import (
	"context"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/mail"
)

func TestSendUsesInstalledSender(t *testing.T) {
	rec := &mail.Recorder{}
	defer mail.SetSender(rec)()

	err := mail.To("jane@example.com", " ").WithSubject("Hello").Text("plain body").Send(context.Background())
	require.NoError(t, err)

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"jane@example.com"}, sent[0].To)
	assert.Equal(t, "Hello", sent[0].Subject)
	assert.False(t, sent[0].HTML)
}

func TestSendWithoutRecipients(t *testing.T) {
	defer mail.SetSender(&mail.Recorder{})()
	assert.ErrorIs(t, mail.To().WithSubject("x").Send(context.Background()), mail.ErrNoRecipients)
}

func TestTemplateEscapesData(t *testing.T) {
	rec := &mail.Recorder{}
	defer mail.SetSender(rec)()

	tmpl := template.Must(template.New("greet").Parse(`<p>Hi {{.}}</p>`))
	require.NoError(t, mail.To("a@b.c").Template(tmpl, "<script>").Send(context.Background()))
	assert.Equal(t, "<p>Hi &lt;script&gt;</p>", rec.Sent()[0].Body)
}

func TestTemplateErrorSurfacesOnSend(t *testing.T) {
	defer mail.SetSender(&mail.Recorder{})()

	tmpl := template.Must(template.New("bad").Parse(`{{.Missing.Field}}`))
	err := mail.To("a@b.c").Template(tmpl, struct{}{}).Send(context.Background())
	assert.ErrorContains(t, err, "mail: render bad")
}

func TestRawHeaders(t *testing.T) {
	m := mail.To("a@b.c").Cc("d@e.f").WithSubject("Order").HTMLBody("<b>x</b>")
	raw := string(m.Raw("Perennia <orders@perennia.bb>"))

	assert.Contains(t, raw, "From: Perennia <orders@perennia.bb>\r\n")
	assert.Contains(t, raw, "To: a@b.c\r\n")
	assert.Contains(t, raw, "Cc: d@e.f\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.Contains(t, raw, "\r\n\r\n<b>x</b>")
}
