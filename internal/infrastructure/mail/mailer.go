// Package mail sends rendered notifications over SMTP with go-mail.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/infrastructure/queue"
)

const sendTimeout = 15 * time.Second

// Config captures the SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// DirectSubject is the subject of operator-written messages.
	DirectSubject string
}

type dialSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Mailer renders and sends notifications. It satisfies queue.Sender.
type Mailer struct {
	client   dialSender
	renderer *Renderer
	from     string
	subject  string
}

// NewMailer builds an SMTP client. Authentication is enabled when a username
// is configured; STARTTLS is used when the server offers it.
func NewMailer(cfg Config, renderer *Renderer) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(sendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return newMailer(client, renderer, cfg), nil
}

func newMailer(client dialSender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{client: client, renderer: renderer, from: cfg.From, subject: cfg.DirectSubject}
}

// Send renders n and delivers it. Rendering and addressing errors are
// permanent.
func (m *Mailer) Send(ctx context.Context, n domain.Notification) error {
	data := n.Data
	if n.Kind == domain.NotifyDirect {
		data = make(map[string]string, len(n.Data)+1)
		data["subject"] = m.subject
		for k, v := range n.Data {
			data[k] = v
		}
	}

	subject, body, err := m.renderer.Render(n.Kind, data)
	if err != nil {
		return errors.Join(queue.ErrPermanent, err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return errors.Join(queue.ErrPermanent, fmt.Errorf("from address: %w", err))
	}
	if err := msg.To(n.To); err != nil {
		return errors.Join(queue.ErrPermanent, fmt.Errorf("to address: %w", err))
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
