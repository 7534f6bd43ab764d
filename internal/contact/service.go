// Package contact relays messages from the public contact form to the site mailbox.
package contact

import (
	"context"
	"errors"
	"strings"

	"github.com/abduss/forum/internal/apperr"
	"github.com/abduss/forum/internal/user"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxMessageLength = 5000

var (
	ErrMessageCannotBeNull = apperr.New(apperr.KindInvalidInput, "MessageCannotBeNull")
	ErrMessageTooLong      = apperr.New(apperr.KindInvalidInput, "MessageTooLong")
)

var validate = validator.New()

type mailer interface {
	SendContact(ctx context.Context, from, message string) error
}

// Service validates contact requests and hands them to the mailer.
type Service struct {
	mail mailer
	log  *zap.Logger
}

func NewService(mail mailer) *Service {
	return &Service{mail: mail, log: zap.L().Named("contact")}
}

// Send forwards message on behalf of email. All input problems are reported together.
func (s *Service) Send(ctx context.Context, email, message string) error {
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)

	var errs []error
	switch {
	case email == "":
		errs = append(errs, user.ErrEmailCannotBeNull)
	case validate.Var(email, "email") != nil:
		errs = append(errs, user.ErrInvalidEmail)
	}
	switch {
	case message == "":
		errs = append(errs, ErrMessageCannotBeNull)
	case len([]rune(message)) > maxMessageLength:
		errs = append(errs, ErrMessageTooLong)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if err := s.mail.SendContact(ctx, email, message); err != nil {
		s.log.Error("send contact email", zap.String("from", email), zap.Error(err))
		return user.ErrEmailNotSent
	}
	return nil
}
