// Package mailer delivers contact form messages and password reset links
package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Message is an outgoing e-mail
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// New returns an SMTP sender when mail is enabled and a logging sender otherwise
func New(cfg config.MailConfig) Sender {
	if !cfg.Enabled || cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTP(cfg)
}

// SMTP sends mail through an SMTP relay
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP creates an SMTP sender
func NewSMTP(cfg config.MailConfig) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTP) compose(m Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", s.from)
	gm.SetHeader("To", m.To)
	if m.ReplyTo != "" {
		gm.SetHeader("Reply-To", m.ReplyTo)
	}
	gm.SetHeader("Subject", m.Subject)
	gm.SetBody("text/html", m.HTML)
	return gm
}

// Send delivers m. The dial is not cancellable; ctx is only checked first.
func (s *SMTP) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.compose(m)); err != nil {
		log.Error().Err(err).Str("to", m.To).Msg("Failed to send mail")
		return fmt.Errorf("failed to send mail: %w", err)
	}
	log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("Mail sent")
	return nil
}

// LogSender records messages in the log instead of sending them
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m Message) error {
	log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("Mail delivery disabled, message logged")
	return nil
}

// ContactMessage forwards a contact form submission to the faculty inbox
func ContactMessage(to string, c domain.ContactMessage) Message {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>New contact message</h2>
			<p><strong>From:</strong> %s &lt;%s&gt;</p>
			<p><strong>Subject:</strong> %s</p>
			<p style="white-space: pre-wrap;">%s</p>
		</div>
	`, html.EscapeString(c.Name), html.EscapeString(c.Email), html.EscapeString(c.Subject), html.EscapeString(c.Message))

	return Message{
		To:      to,
		ReplyTo: c.Email,
		Subject: "[Contact] " + c.Subject,
		HTML:    body,
	}
}

// PasswordReset carries a recovery link to the account owner
func PasswordReset(to, link string) Message {
	escaped := html.EscapeString(link)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Password Reset Request</h2>
			<p>You requested to reset your password. Click the button below to proceed:</p>
			<a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
			<p>Or copy this link:</p>
			<p>%s</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, escaped, escaped)

	return Message{To: to, Subject: "Reset Your Password", HTML: body}
}
