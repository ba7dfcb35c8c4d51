// Package mail composes and sends the transactional emails carrying
// verification and password reset links.
package mail

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/samber/oops"

	"github.com/enewspaper/newsroom/internal/core/ports"
)

// Message is a composed email with plaintext and HTML bodies.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a composed message and reports per-recipient acceptance.
type Sender interface {
	Send(ctx context.Context, msg Message) (ports.Delivery, error)
}

// Mailer builds links against baseURL and hands messages to a Sender.
type Mailer struct {
	sender  Sender
	baseURL string
	from    string
}

func NewMailer(sender Sender, baseURL, from string) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/"), from: from}
}

type linkData struct {
	Link string
}

var (
	verifyText = texttemplate.Must(texttemplate.New("verify").Parse(
		"Welcome to the newsroom!\n\nConfirm your email address by opening the link below:\n\n{{.Link}}\n\nIf you did not sign up, ignore this message.\n"))
	verifyHTML = htmltemplate.Must(htmltemplate.New("verify").Parse(
		`<p>Welcome to the newsroom!</p><p>Confirm your email address by clicking <a href="{{.Link}}">this link</a>.</p><p>If you did not sign up, ignore this message.</p>`))

	resetText = texttemplate.Must(texttemplate.New("reset").Parse(
		"A password reset was requested for your account.\n\nChoose a new password here:\n\n{{.Link}}\n\nThe link expires soon. If you did not ask for it, ignore this message.\n"))
	resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(
		`<p>A password reset was requested for your account.</p><p><a href="{{.Link}}">Choose a new password</a>.</p><p>The link expires soon. If you did not ask for it, ignore this message.</p>`))
)

// SendVerification mails the <base>/verify/<token> link.
func (m *Mailer) SendVerification(ctx context.Context, email, rawToken string) (ports.Delivery, error) {
	msg, err := m.compose(email, "Verify your email", m.baseURL+"/verify/"+rawToken, verifyText, verifyHTML)
	if err != nil {
		return ports.Delivery{Rejected: []string{email}}, err
	}
	return m.sender.Send(ctx, msg)
}

// SendPasswordReset mails the <base>/reset_pwd/<token> link.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, rawToken string) (ports.Delivery, error) {
	msg, err := m.compose(email, "Reset your password", m.baseURL+"/reset_pwd/"+rawToken, resetText, resetHTML)
	if err != nil {
		return ports.Delivery{Rejected: []string{email}}, err
	}
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) compose(to, subject, link string, text *texttemplate.Template, html *htmltemplate.Template) (Message, error) {
	data := linkData{Link: link}

	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return Message{}, oops.Code("MAIL_COMPOSE_FAILED").With("template", text.Name()).Wrap(err)
	}
	if err := html.Execute(&hb, data); err != nil {
		return Message{}, oops.Code("MAIL_COMPOSE_FAILED").With("template", html.Name()).Wrap(err)
	}
	return Message{From: m.from, To: to, Subject: subject, Text: tb.String(), HTML: hb.String()}, nil
}
