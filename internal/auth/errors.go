package auth

import "github.com/abduss/forum/internal/apperr"

var (
	ErrEmailCannotBeNull        = apperr.New(apperr.KindInvalidInput, "EmailCannotBeNull")
	ErrPasswordCannotBeNull     = apperr.New(apperr.KindInvalidInput, "PasswordCannotBeNull")
	ErrUsernameCannotBeNull     = apperr.New(apperr.KindInvalidInput, "UsernameCannotBeNull")
	ErrRefreshTokenCannotBeNull = apperr.New(apperr.KindInvalidInput, "RefreshTokenCannotBeNull")
	ErrWrongEmailOrPassword     = apperr.New(apperr.KindUnauthorized, "WrongEmailOrPassword")
	ErrConfirmationEmailResent  = apperr.New(apperr.KindAccountState, "ConfirmationEmailResent")
	ErrAccountLocked            = apperr.New(apperr.KindAccountState, "AccountLocked")
	ErrAccountNotAllowed        = apperr.New(apperr.KindAccountState, "AccountNotAllowed")
	ErrUserBanned               = apperr.New(apperr.KindForbidden, "UserBanned")
	ErrRefreshTokenNotFound     = apperr.New(apperr.KindNotFound, "RefreshTokenNotFound")
)

// ErrRenewalFailed reports a missing or expired refresh token without a message.
var ErrRenewalFailed = apperr.New(apperr.KindUnauthorized, "")
