// Package mail delivers transactional email through SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/abduss/forum/internal/config"
	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	validationSubject = "Projet Forum - E-mail de validation"
	recoverySubject   = "Projet Forum - Récupération de mot de passe"
)

// ErrRejected is returned when SendGrid keeps refusing a message.
var ErrRejected = errors.New("mail rejected by provider")

type client interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// Sender builds and sends the forum's emails.
type Sender struct {
	client  client
	cfg     config.MailConfig
	backoff func() retry.Backoff
	log     *zap.Logger
}

// NewSender returns a Sender backed by the SendGrid API.
func NewSender(cfg config.MailConfig) *Sender {
	return newSender(sendgrid.NewSendClient(cfg.SendgridAPIKey), cfg)
}

func newSender(c client, cfg config.MailConfig) *Sender {
	return &Sender{
		client: c,
		cfg:    cfg,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(uint64(cfg.Retries), retry.NewConstant(cfg.RetryDelay))
		},
		log: zap.L().Named("mail"),
	}
}

// SendValidationEmail mails the account confirmation link.
func (s *Sender) SendValidationEmail(ctx context.Context, to string, userID uuid.UUID, token string) error {
	link := s.link("/confirmEmail", userID, token)
	body := "<p>Bienvenue !<br>" +
		"Vous pouvez dès à présent valider votre compte en cliquant <a href='" + link + "'>ici</a><br><br>" +
		"Ce lien expirera dans 24h.</p>"
	return s.send(ctx, s.message(validationSubject, sgmail.NewEmail("", to), "", body))
}

// SendRecoveryEmail mails the password reset link.
func (s *Sender) SendRecoveryEmail(ctx context.Context, to string, userID uuid.UUID, token string) error {
	link := s.link("/recoverPassword", userID, token)
	body := "<p>Bonjour,<br>" +
		"Afin de récupérer l'accès à votre compte et modifier votre mot de passe, merci de cliquer sur <a href='" + link + "'>ce lien.</a><br><br>" +
		"Ce lien expirera dans 24h.</p>"
	return s.send(ctx, s.message(recoverySubject, sgmail.NewEmail("", to), "", body))
}

// SendContact forwards a visitor's message to the contact mailbox.
func (s *Sender) SendContact(ctx context.Context, from, message string) error {
	msg := s.message("Contact de la part de - "+from, sgmail.NewEmail("", s.cfg.ContactAddress), message, "")
	msg.SetReplyTo(sgmail.NewEmail("", from))
	return s.send(ctx, msg)
}

func (s *Sender) link(path string, userID uuid.UUID, token string) string {
	q := url.Values{}
	q.Set("id", userID.String())
	q.Set("token", token)
	return s.cfg.ApplicationURL + path + "?" + q.Encode()
}

func (s *Sender) message(subject string, to *sgmail.Email, text, html string) *sgmail.SGMailV3 {
	msg := sgmail.NewV3Mail()
	msg.SetFrom(sgmail.NewEmail(s.cfg.FromName, s.cfg.FromAddress))
	msg.Subject = subject

	p := sgmail.NewPersonalization()
	p.AddTos(to)
	msg.AddPersonalizations(p)

	if text != "" {
		msg.AddContent(sgmail.NewContent("text/plain", text))
	}
	if html != "" {
		msg.AddContent(sgmail.NewContent("text/html", html))
	}
	msg.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(s.cfg.Sandbox)))
	return msg
}

// send delivers msg, retrying transport errors and non-2xx answers.
func (s *Sender) send(ctx context.Context, msg *sgmail.SGMailV3) error {
	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		resp, err := s.client.SendWithContext(ctx, msg)
		if err != nil {
			s.log.Warn("sendgrid request failed", zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			s.log.Warn("sendgrid rejected message", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			return retry.RetryableError(fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	return nil
}
