package conversation

import "github.com/abduss/forum/internal/apperr"

var (
	ErrConversationNotFound  = apperr.New(apperr.KindNotFound, "ConversationNotFound")
	ErrMessageNotFound       = apperr.New(apperr.KindNotFound, "MessageNotFound")
	ErrNoMessageFound        = apperr.New(apperr.KindNotFound, "NoMessageFound")
	ErrContentCannotBeNull   = apperr.New(apperr.KindInvalidInput, "ContentCannotBeNull")
	ErrReceiverCannotBeNull  = apperr.New(apperr.KindInvalidInput, "ReceiverCannotBeNull")
	ErrCannotMessageYourself = apperr.New(apperr.KindInvalidInput, "CannotMessageYourself")
)
