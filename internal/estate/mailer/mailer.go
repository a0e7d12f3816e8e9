// Package mailer delivers account notifications out of band.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/aussiebroadwan/estate/pkg/slogx"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var (
	confirmTmpl = template.Must(template.New("confirm").Parse(`Hello {{.Name}},

Your account is almost ready. Confirm it by opening the link below:

{{.Link}}

If you did not create this account you can ignore this message.
`))

	resetTmpl = template.Must(template.New("reset").Parse(`Hello {{.Name}},

You asked to reset your password. Choose a new one here:

{{.Link}}

If you did not ask for this you can ignore this message.
`))
)

type linkData struct {
	Name string
	Link string
}

func render(tmpl *template.Template, name, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, linkData{Name: name, Link: link}); err != nil {
		return "", fmt.Errorf("render %s mail: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// ConfirmationMessage builds the account confirmation email.
func ConfirmationMessage(to, name, link string) (Message, error) {
	body, err := render(confirmTmpl, name, link)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Confirm your account", Body: body}, nil
}

// PasswordResetMessage builds the password reset email.
func PasswordResetMessage(to, name, link string) (Message, error) {
	body, err := render(resetTmpl, name, link)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset your password", Body: body}, nil
}

// Log writes messages to the request logger instead of sending them.
// Used in development.
type Log struct{}

func (Log) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("mail not sent (log mailer)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
