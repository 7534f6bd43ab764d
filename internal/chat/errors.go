package chat

import "github.com/abduss/forum/internal/apperr"

var (
	ErrEmptyMessage    = apperr.New(apperr.KindInvalidInput, "MessageCannotBeNull")
	ErrMessageNotFound = apperr.New(apperr.KindNotFound, "MessageNotFound")
)
