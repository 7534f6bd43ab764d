package user

import "github.com/abduss/forum/internal/apperr"

var (
	ErrEmailCannotBeNull    = apperr.New(apperr.KindInvalidInput, "EmailCannotBeNull")
	ErrUsernameCannotBeNull = apperr.New(apperr.KindInvalidInput, "UsernameCannotBeNull")
	ErrPasswordCannotBeNull = apperr.New(apperr.KindInvalidInput, "PasswordCannotBeNull")
	ErrPasswordTooShort     = apperr.New(apperr.KindInvalidInput, "PasswordTooShort")
	ErrPasswordTooLong      = apperr.New(apperr.KindInvalidInput, "PasswordTooLong")
	ErrInvalidEmail         = apperr.New(apperr.KindInvalidInput, "InvalidEmail")
	ErrInvalidToken         = apperr.New(apperr.KindInvalidInput, "InvalidToken")
	ErrIncorrectPassword    = apperr.New(apperr.KindInvalidInput, "IncorrectPassword")
	ErrInvalidRole          = apperr.New(apperr.KindInvalidInput, "InvalidRole")
	ErrUserNotFound         = apperr.New(apperr.KindNotFound, "UserNotFound")
	ErrUsernameAlreadyTaken = apperr.New(apperr.KindConflict, "UsernameAlreadyTaken")
	ErrEmailAlreadyTaken    = apperr.New(apperr.KindConflict, "EmailAlreadyTaken")
	ErrUserNotAuthorized    = apperr.New(apperr.KindForbidden, "UserNotAuthorized")
	ErrEmailNotSent         = apperr.New(apperr.KindFailed, "EmailNotSent")
)

// ErrFailed is a failure reported without a message.
var ErrFailed = apperr.New(apperr.KindFailed, "")
